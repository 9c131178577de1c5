package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/sequencer"
	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

// BuildProgress follows a fabric build. It is a hook to be registered with
// the topology builder.
type BuildProgress struct {
	mu sync.Mutex
	ProgressView
}

// ProgressView is a point-in-time copy of a build's progress.
type ProgressView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StartTime   time.Time `json:"start_time"`
	State       string    `json:"state"`
	Controllers uint64    `json:"controllers"`
	Sequencers  uint64    `json:"sequencers"`
	Ports       uint64    `json:"ports"`
	Done        bool      `json:"done"`
}

// Func counts the build events.
func (b *BuildProgress) Func(ctx sim.HookCtx) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ctx.Pos {
	case controller.HookPosControllerCreated:
		b.Controllers++
	case sequencer.HookPosSequencerBound:
		b.Sequencers++
	case noc.HookPosPortConnected:
		b.Ports++
	case topology.HookPosStateChanged:
		state := ctx.Detail.(topology.State)
		b.State = state.String()
		b.Done = state == topology.StateDone
	}
}

// Snapshot returns the current progress.
func (b *BuildProgress) Snapshot() ProgressView {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.ProgressView
}
