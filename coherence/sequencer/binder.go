package sequencer

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/sim"
)

// HookPosSequencerBound marks when a sequencer is bound to its controller.
// The hook item is the sequencer and the detail is the controller.
var HookPosSequencerBound = &sim.HookPos{Name: "Sequencer Bound"}

// Bindable is a sequencer that can be backed by a controller.
type Bindable interface {
	controller.Agent

	Version() int
	Controller() controller.Controller

	accepts(k controller.Kind) bool
	setController(ctrl controller.Controller) error
	isBound() bool
}

// A Binder binds sequencers to controllers.
type Binder struct {
	sim.HookableBase
}

// Bind makes the controller the only coherence engine behind the sequencer
// and the sequencer the only agent of the controller. Binding happens once;
// binding either side a second time is an error.
func (b *Binder) Bind(seq Bindable, ctrl controller.Controller) error {
	if !seq.accepts(ctrl.Kind()) {
		return coherence.NewStructuralWiringError(seq.Name(),
			"cannot be backed by %s controller %s", ctrl.Kind(), ctrl.Name())
	}

	if seq.isBound() {
		return coherence.NewStructuralWiringError(seq.Name(),
			"already backed by %s", seq.Controller().Name())
	}

	if err := ctrl.AttachSequencer(seq); err != nil {
		return err
	}

	if err := seq.setController(ctrl); err != nil {
		return err
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosSequencerBound,
		Item:   seq,
		Detail: ctrl,
	})

	return nil
}

// Bind binds a sequencer to a controller without invoking any hook.
func Bind(seq Bindable, ctrl controller.Controller) error {
	b := Binder{}
	return b.Bind(seq, ctrl)
}
