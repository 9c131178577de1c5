package controller

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/sim"
)

// HookPosControllerCreated marks when the factory creates a controller. The
// hook item is the controller and the detail is its version.
var HookPosControllerCreated = &sim.HookPos{Name: "Controller Created"}

// Factory creates controllers and assigns their version IDs.
//
// Versions are dense and unique across all kinds. They are handed out in
// kind order: core L1s, accelerator L1s, L2s, directories, DMAs and finally
// the IO controller. The network builds its destination lists from this
// order, so creating a controller out of order is an error.
type Factory struct {
	sim.HookableBase

	parent      string
	lineSize    uint64
	nextVersion int
	stage       stage
	perStage    map[stage]int
}

// NewFactory creates a factory. It fails if the requested protocol is not the
// one compiled into the binary, before any controller can be created.
func NewFactory(
	parent string,
	protocol string,
	cacheLineSize uint64,
) (*Factory, error) {
	if err := coherence.ProtocolMustMatch(protocol); err != nil {
		return nil, err
	}

	if !mem.IsPowerOfTwo(cacheLineSize) {
		return nil, coherence.NewConfigurationError("cacheLineSize",
			"%d is not a power of two", cacheLineSize)
	}

	if err := sim.ValidateName(parent); err != nil {
		return nil, coherence.NewConfigurationError("name", "%v", err)
	}

	f := &Factory{
		parent:   parent,
		lineSize: cacheLineSize,
		perStage: make(map[stage]int),
	}

	return f, nil
}

// NumCreated returns the number of controllers created so far, which is also
// the next version to be assigned.
func (f *Factory) NumCreated() int {
	return f.nextVersion
}

func (f *Factory) enter(s stage) error {
	if s < f.stage {
		return coherence.NewStructuralWiringError(f.parent,
			"cannot create a %s controller after %s controllers", s, f.stage)
	}

	if s == stageIO && f.perStage[stageIO] > 0 {
		return coherence.NewStructuralWiringError(f.parent,
			"only one IO controller is allowed")
	}

	return nil
}

func (f *Factory) base(
	s stage,
	kind Kind,
	elemName string,
	numTBEs, transitionsPerCycle int,
	clock *sim.ClockDomain,
) controllerBase {
	index := f.perStage[s]

	name := sim.BuildNameWithIndex(f.parent, elemName, index)
	if s == stageIO {
		name = sim.BuildName(f.parent, elemName)
	}

	b := controllerBase{
		name:                name,
		kind:                kind,
		version:             f.nextVersion,
		kindIndex:           index,
		clock:               clock,
		lineSize:            f.lineSize,
		tbes:                NewTBETable(numTBEs),
		transitionsPerCycle: transitionsPerCycle,
	}

	f.stage = s
	f.perStage[s]++
	f.nextVersion++

	return b
}

func (f *Factory) created(c Controller) {
	f.InvokeHook(sim.HookCtx{
		Domain: f,
		Pos:    HookPosControllerCreated,
		Item:   c,
		Detail: c.Version(),
	})
}

// CreateL1 creates the L1 controller of a core. Cores must be created in
// index order so that core IDs and versions line up.
func (f *Factory) CreateL1(coreIndex int, spec L1Spec) (*L1Controller, error) {
	return f.createL1(stageCoreL1, "L1Cntrl", coreIndex, spec)
}

// CreateAccelL1 creates the L1 controller of an accelerator.
func (f *Factory) CreateAccelL1(
	accelIndex int,
	spec L1Spec,
) (*L1Controller, error) {
	return f.createL1(stageAccelL1, "AccelL1Cntrl", accelIndex, spec)
}

func (f *Factory) createL1(
	s stage,
	elemName string,
	index int,
	spec L1Spec,
) (*L1Controller, error) {
	if err := f.enter(s); err != nil {
		return nil, err
	}

	if index != f.perStage[s] {
		return nil, coherence.NewStructuralWiringError(f.parent,
			"%s controller %d created while %d is expected",
			s, index, f.perStage[s])
	}

	if err := spec.Validate(f.lineSize); err != nil {
		return nil, err
	}

	c := &L1Controller{
		controllerBase: f.base(s, KindL1, elemName, spec.NumTBEs,
			spec.TransitionsPerCycle, spec.ClockDomain),
		ICache:          spec.ICache,
		DCache:          spec.DCache,
		SendEvictions:   spec.SendEvictions,
		EnableCounter:   spec.EnableCounter,
		L2SelectNumBits: spec.L2SelectNumBits,
		Cluster:         spec.Cluster,
		Accelerator:     s == stageAccelL1,
	}
	c.addPorts(c, l1Ports)
	f.created(c)

	return c, nil
}

// CreateL2 creates the next L2 slice.
func (f *Factory) CreateL2(spec L2Spec) (*L2Controller, error) {
	if err := f.enter(stageL2); err != nil {
		return nil, err
	}

	if err := spec.Validate(f.lineSize); err != nil {
		return nil, err
	}

	c := &L2Controller{
		controllerBase: f.base(stageL2, KindL2, "L2Cntrl", spec.NumTBEs,
			spec.TransitionsPerCycle, spec.ClockDomain),
		Cache: spec.Cache,
	}
	c.addPorts(c, l2Ports)
	f.created(c)

	return c, nil
}

// CreateDirectory creates the next directory.
func (f *Factory) CreateDirectory(
	spec DirectorySpec,
) (*DirectoryController, error) {
	if err := f.enter(stageDirectory); err != nil {
		return nil, err
	}

	if err := spec.Validate(f.lineSize); err != nil {
		return nil, err
	}

	c := &DirectoryController{
		controllerBase: f.base(stageDirectory, KindDirectory, "DirCntrl",
			spec.NumTBEs, spec.TransitionsPerCycle, spec.ClockDomain),
		MemorySize:       spec.MemorySize,
		ProbeFilter:      spec.ProbeFilter,
		ProbeFilterCache: spec.ProbeFilterCache,
	}
	c.addPorts(c, directoryPorts)
	f.created(c)

	return c, nil
}

// CreateDMA creates the next DMA controller.
func (f *Factory) CreateDMA(spec DMASpec) (*DMAController, error) {
	if err := f.enter(stageDMA); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c := &DMAController{
		controllerBase: f.base(stageDMA, KindDMA, "DMACntrl",
			spec.NumTBEs, spec.TransitionsPerCycle, spec.ClockDomain),
		MaxOutstanding: spec.MaxOutstanding,
	}
	c.addPorts(c, dmaPorts)
	f.created(c)

	return c, nil
}

// CreateIO creates the IO controller. There can be only one, and it takes
// the version after the last DMA controller.
func (f *Factory) CreateIO(spec DMASpec) (*IOController, error) {
	if err := f.enter(stageIO); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c := &IOController{
		controllerBase: f.base(stageIO, KindIO, "IOCntrl",
			spec.NumTBEs, spec.TransitionsPerCycle, spec.ClockDomain),
		MaxOutstanding: spec.MaxOutstanding,
	}
	c.addPorts(c, ioPorts)
	f.created(c)

	return c, nil
}
