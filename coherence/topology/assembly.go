package topology

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/cluster"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/partition"
	"github.com/sarchlab/cohfabric/coherence/sequencer"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

// assembly is one run of a build. Each phase must complete over the whole
// controller set before the next one starts.
type assembly struct {
	sim.HookableBase

	name   string
	config Config
	hooks  []sim.Hook
	state  State

	partitioner *partition.Partitioner
	specs       specSet
	network     *noc.Network
	domain      *Domain
	result      *Result
}

func (a *assembly) run() (*Result, error) {
	phases := []func() error{
		a.prepare,
		a.createControllers,
		a.bindSequencers,
		a.assembleClusters,
		a.wireNetwork,
	}

	for _, phase := range phases {
		if err := phase(); err != nil {
			return nil, err
		}
	}

	return a.result, nil
}

func (a *assembly) advance(to State) error {
	if to != a.state+1 {
		return coherence.NewStructuralWiringError(a.name,
			"cannot go from %s to %s", a.state, to)
	}

	a.state = to
	a.InvokeHook(sim.HookCtx{
		Domain: a,
		Pos:    HookPosStateChanged,
		Item:   a.name,
		Detail: to,
	})

	return nil
}

// hook registers the hooks of the build with a part of it.
func (a *assembly) hook(h sim.Hookable) {
	for _, hook := range a.hooks {
		h.AcceptHook(hook)
	}
}

// prepare derives everything that does not create controllers.
func (a *assembly) prepare() error {
	c := a.config

	p, err := partition.New(c.CacheLineSize, c.NumDirectories, c.NumL2Slices)
	if err != nil {
		return err
	}

	a.partitioner = p

	a.specs, err = c.specs(p)
	if err != nil {
		return err
	}

	nb := noc.MakeBuilder()
	for class, vnet := range c.VirtualNetworks {
		nb = nb.WithVirtualNetwork(class, vnet)
	}

	a.network, err = nb.Build(sim.BuildName(a.name, "Network"))
	if err != nil {
		return err
	}

	a.hook(a.network)

	memCtrlClock := sim.NewDerivedClockDomain(
		sim.BuildName(a.name, "MemCtrlClockDomain"),
		c.FabricClock, c.MemCtrlClockDivider)

	a.domain = &Domain{}
	a.result = &Result{
		Name:         a.name,
		Domain:       a.domain,
		Network:      a.network,
		Partitioner:  p,
		FabricClock:  c.FabricClock,
		MemCtrlClock: memCtrlClock,
	}

	return nil
}

func (a *assembly) createControllers() error {
	c := a.config

	f, err := controller.NewFactory(a.name, c.Protocol, c.CacheLineSize)
	if err != nil {
		return err
	}

	a.hook(f)

	for i, spec := range a.specs.cpuL1s {
		if err := a.keep(f.CreateL1(i, spec)); err != nil {
			return err
		}
	}

	for i, spec := range a.specs.accelL1s {
		if err := a.keep(f.CreateAccelL1(i, spec)); err != nil {
			return err
		}
	}

	for i := 0; i < c.NumL2Slices; i++ {
		if err := a.keep(f.CreateL2(a.specs.l2)); err != nil {
			return err
		}
	}

	for i := 0; i < c.NumDirectories; i++ {
		if err := a.keep(f.CreateDirectory(a.specs.directory)); err != nil {
			return err
		}
	}

	for i := 0; i < c.NumDMAs; i++ {
		if err := a.keep(f.CreateDMA(a.specs.dma)); err != nil {
			return err
		}
	}

	if c.FullSystem {
		if err := a.keep(f.CreateIO(a.specs.dma)); err != nil {
			return err
		}
	}

	if err := a.countsMustMatchAddressBits(); err != nil {
		return err
	}

	a.result.DirControllers = a.domain.Directories
	a.result.DMAControllers = a.domain.DMAs

	return a.advance(StateControllersCreated)
}

// keep adds a freshly created controller to the domain.
func (a *assembly) keep(ctrl controller.Controller, err error) error {
	if err != nil {
		return err
	}

	return a.domain.add(ctrl)
}

func (a *assembly) countsMustMatchAddressBits() error {
	if err := a.partitioner.DirectoryCountMustMatch(
		len(a.domain.Directories)); err != nil {
		return err
	}

	return a.partitioner.L2CountMustMatch(len(a.domain.L2s))
}

func (a *assembly) bindSequencers() error {
	binder := &sequencer.Binder{}
	a.hook(binder)

	for i, l1 := range a.domain.CoreL1s {
		seq := sequencer.NewSequencer(a.name, i,
			l1.ICache, l1.DCache, l1.ClockDomain())
		if err := binder.Bind(seq, l1); err != nil {
			return err
		}

		a.result.CPUSequencers = append(a.result.CPUSequencers, seq)
	}

	for i, l1 := range a.domain.AccelL1s {
		seq := sequencer.NewSequencer(a.name, a.config.NumCPUs+i,
			l1.ICache, l1.DCache, l1.ClockDomain())
		if err := binder.Bind(seq, l1); err != nil {
			return err
		}

		a.result.AccelSequencers = append(a.result.AccelSequencers, seq)
	}

	for i, dma := range a.domain.DMAs {
		seq := sequencer.NewDMASequencer(a.name, i, dma.MaxOutstanding,
			sim.BuildNameWithIndex("", "DMAPort", i))
		if err := binder.Bind(seq, dma); err != nil {
			return err
		}

		a.result.DMASequencers = append(a.result.DMASequencers, seq)
	}

	if err := a.sequencersMustBeBound(); err != nil {
		return err
	}

	return a.advance(StateSequencersBound)
}

// sequencersMustBeBound checks that every L1 and DMA controller can accept
// agent requests.
func (a *assembly) sequencersMustBeBound() error {
	for _, ctrl := range a.domain.Controllers() {
		k := ctrl.Kind()
		if k != controller.KindL1 && k != controller.KindDMA {
			continue
		}

		if ctrl.Sequencer() == nil {
			return coherence.NewStructuralWiringError(ctrl.Name(),
				"%s controller has no sequencer", k)
		}
	}

	return nil
}

// assembleClusters groups each L2 slice's L1s into a cluster and nests those
// clusters in a top cluster that holds every shared controller.
func (a *assembly) assembleClusters() error {
	top := cluster.New(sim.BuildName(a.name, "TopCluster"))

	slices := make([]*cluster.Cluster, a.config.NumL2Slices)
	for i := range slices {
		slices[i] = cluster.New(sim.BuildNameWithIndex(a.name, "Cluster", i))
	}

	l1s := make([]*controller.L1Controller, 0,
		len(a.domain.CoreL1s)+len(a.domain.AccelL1s))
	l1s = append(l1s, a.domain.CoreL1s...)
	l1s = append(l1s, a.domain.AccelL1s...)

	for _, l1 := range l1s {
		if err := slices[l1.Cluster].Add(l1); err != nil {
			return err
		}
	}

	for _, ctrl := range a.domain.Controllers() {
		if ctrl.Kind() == controller.KindL1 {
			continue
		}

		if err := top.Add(ctrl); err != nil {
			return err
		}
	}

	for _, s := range slices {
		if err := top.AddCluster(s); err != nil {
			return err
		}
	}

	a.result.TopCluster = top

	return a.advance(StateClustered)
}

func (a *assembly) wireNetwork() error {
	for _, ctrl := range a.domain.Controllers() {
		if err := noc.Connect(ctrl, a.network); err != nil {
			return err
		}
	}

	if err := a.network.Validate(); err != nil {
		return err
	}

	if err := a.advance(StateWired); err != nil {
		return err
	}

	return a.advance(StateDone)
}
