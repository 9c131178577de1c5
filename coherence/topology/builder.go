// Package topology lays out a complete directory-coherence fabric: it creates
// the controllers, binds sequencers to them, groups them into clusters and
// wires them to the network.
package topology

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/cluster"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/partition"
	"github.com/sarchlab/cohfabric/coherence/sequencer"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

// HookPosStateChanged marks when a build enters a new state. The hook item is
// the name of the fabric and the detail is the new State.
var HookPosStateChanged = &sim.HookPos{Name: "Topology State Changed"}

// Result is everything a build produces. Nothing is returned when a build
// fails.
type Result struct {
	Name string

	// CPUSequencers is index-aligned with core IDs.
	CPUSequencers   []*sequencer.Sequencer
	AccelSequencers []*sequencer.Sequencer
	DMASequencers   []*sequencer.DMASequencer

	DirControllers []*controller.DirectoryController
	DMAControllers []*controller.DMAController
	TopCluster     *cluster.Cluster

	Domain       *Domain
	Network      *noc.Network
	Partitioner  *partition.Partitioner
	FabricClock  *sim.ClockDomain
	MemCtrlClock *sim.ClockDomain
}

// Builder can build coherence fabrics.
type Builder struct {
	config Config
	freq   sim.Freq
	hooks  []sim.Hook
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
		freq:   2 * sim.GHz,
	}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithProtocol sets the requested coherence protocol.
func (b Builder) WithProtocol(protocol string) Builder {
	b.config.Protocol = protocol
	return b
}

// WithNumCPUs sets the number of cores.
func (b Builder) WithNumCPUs(n int) Builder {
	b.config.NumCPUs = n
	return b
}

// WithAccelerators sets the accelerators that join the fabric.
func (b Builder) WithAccelerators(accels ...AcceleratorConfig) Builder {
	b.config.Accelerators = append([]AcceleratorConfig(nil), accels...)
	return b
}

// WithNumL2Slices sets the number of shared L2 slices.
func (b Builder) WithNumL2Slices(n int) Builder {
	b.config.NumL2Slices = n
	return b
}

// WithNumDirectories sets the number of directories.
func (b Builder) WithNumDirectories(n int) Builder {
	b.config.NumDirectories = n
	return b
}

// WithNumDMAs sets the number of DMA channels.
func (b Builder) WithNumDMAs(n int) Builder {
	b.config.NumDMAs = n
	return b
}

// WithCacheLineSize sets the cache line size in bytes.
func (b Builder) WithCacheLineSize(size uint64) Builder {
	b.config.CacheLineSize = size
	return b
}

// WithFullSystem enables the IO controller.
func (b Builder) WithFullSystem(fullSystem bool) Builder {
	b.config.FullSystem = fullSystem
	return b
}

// WithMemRanges sets the physical memory ranges.
func (b Builder) WithMemRanges(ranges ...mem.AddressRange) Builder {
	b.config.MemRanges = append([]mem.AddressRange(nil), ranges...)
	return b
}

// WithFabricClock sets the clock of the L2s, the directories and the DMAs.
func (b Builder) WithFabricClock(clock *sim.ClockDomain) Builder {
	b.config.FabricClock = clock
	return b
}

// WithFreq sets the frequency of the fabric clock that is created when no
// fabric clock is given.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithHook registers a hook with every part of the build.
func (b Builder) WithHook(hook sim.Hook) Builder {
	hooks := make([]sim.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, hook)

	return b
}

// Build lays out a fabric. The configuration is validated before any
// controller is created.
func (b Builder) Build(name string) (*Result, error) {
	if err := sim.ValidateName(name); err != nil {
		return nil, coherence.NewConfigurationError("name", "%v", err)
	}

	c := b.config
	if c.FabricClock == nil && b.freq > 0 {
		c.FabricClock = sim.NewClockDomain(
			sim.BuildName(name, "ClockDomain"), b.freq)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	a := &assembly{name: name, config: c, hooks: b.hooks}
	a.hook(a)

	return a.run()
}

// MustBuild is Build that panics on error.
func (b Builder) MustBuild(name string) *Result {
	r, err := b.Build(name)
	if err != nil {
		panic(err)
	}

	return r
}
