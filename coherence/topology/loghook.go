package topology

import (
	"log"

	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/sequencer"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

// LogHook reports the progress of a build, one line per event.
type LogHook struct {
	*log.Logger

	// Ports also reports every port connection when set.
	Ports bool
}

// NewLogHook creates a LogHook that writes to the logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func logs the event.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosStateChanged:
		h.Printf("%s: %s", ctx.Item, ctx.Detail)
	case controller.HookPosControllerCreated:
		c := ctx.Item.(controller.Controller)
		h.Printf("%s: %s controller, version %d", c.Name(), c.Kind(),
			c.Version())
	case sequencer.HookPosSequencerBound:
		seq := ctx.Item.(controller.Agent)
		ctrl := ctx.Detail.(controller.Controller)
		h.Printf("%s: bound to %s", seq.Name(), ctrl.Name())
	case noc.HookPosPortConnected:
		if !h.Ports {
			return
		}

		p := ctx.Item.(*noc.Port)
		ep := ctx.Detail.(*noc.Endpoint)
		h.Printf("%s: %s endpoint %d, vnet %d", p.FullName(), ep.Role,
			ep.ID, ep.VNet)
	}
}
