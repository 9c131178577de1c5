package topology

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/partition"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

// DefaultMemCtrlClockDivider slows the memory controller clock down to one
// third of the fabric clock.
const DefaultMemCtrlClockDivider = 3

// AcceleratorConfig describes an accelerator that joins the coherence domain
// through its own L1 controller.
type AcceleratorConfig struct {
	// CacheSize is the size of both the instruction and the data cache.
	CacheSize uint64

	// ClockDomain defaults to the fabric clock.
	ClockDomain *sim.ClockDomain

	// Slice is the L2 slice whose cluster the accelerator joins.
	Slice int
}

// Config is everything needed to lay out a fabric.
type Config struct {
	Protocol      string
	CacheLineSize uint64
	FullSystem    bool

	NumCPUs int

	// CPUClocks holds either one clock per core or a single clock that all
	// cores share. When empty, the cores run on the fabric clock.
	CPUClocks    []*sim.ClockDomain
	Accelerators []AcceleratorConfig

	L1I           controller.CacheSpec
	L1D           controller.CacheSpec
	L1TBEs        int
	SendEvictions bool
	EnableCounter bool

	NumL2Slices int
	L2          controller.CacheSpec
	L2TBEs      int

	NumDirectories int

	// ProbeFilter sizes the probe filter. Its cache takes the associativity,
	// banks and latency of DirectoryCache.
	ProbeFilter    partition.ProbeFilterSpec
	DirectoryCache controller.CacheSpec
	DirectoryTBEs  int

	NumDMAs        int
	DMAOutstanding int

	TransitionsPerCycle int
	MemRanges           []mem.AddressRange

	FabricClock         *sim.ClockDomain
	MemCtrlClockDivider int

	// VirtualNetworks overrides the default virtual network of message
	// classes.
	VirtualNetworks map[noc.MessageClass]int
}

// DefaultConfig returns a single-core fabric with one L2 slice, one
// directory and 512MB of memory.
func DefaultConfig() Config {
	return Config{
		Protocol:      coherence.MOESICMPDirectory,
		CacheLineSize: 64,
		NumCPUs:       1,
		L1I: controller.CacheSpec{
			Size: 32 * mem.KB, Assoc: 2, Banks: 1, Latency: 3,
		},
		L1D: controller.CacheSpec{
			Size: 64 * mem.KB, Assoc: 2, Banks: 1, Latency: 3,
		},
		L1TBEs:      16,
		NumL2Slices: 1,
		L2: controller.CacheSpec{
			Size: 2 * mem.MB, Assoc: 8, Banks: 1, Latency: 15,
			TagLatency: 4, DataLatency: 8,
		},
		L2TBEs:         32,
		NumDirectories: 1,
		ProbeFilter: partition.ProbeFilterSpec{
			BaseSize:   1 * mem.MB,
			Multiplier: partition.DefaultProbeFilterMultiplier,
		},
		DirectoryCache: controller.CacheSpec{
			Assoc: 8, Banks: 1, Latency: 1, TagLatency: 6, DataLatency: 6,
		},
		DirectoryTBEs:       64,
		DMAOutstanding:      16,
		TransitionsPerCycle: 4,
		MemRanges:           []mem.AddressRange{{Start: 0, Size: 512 * mem.MB}},
		MemCtrlClockDivider: DefaultMemCtrlClockDivider,
	}
}

// Validate checks everything that can be checked without building any
// controller. All failures are configuration errors.
func (c Config) Validate() error {
	if err := coherence.ProtocolMustMatch(c.Protocol); err != nil {
		return err
	}

	p, err := partition.New(c.CacheLineSize, c.NumDirectories, c.NumL2Slices)
	if err != nil {
		return err
	}

	if err := c.countsMustBeValid(); err != nil {
		return err
	}

	if err := c.clocksMustBeValid(); err != nil {
		return err
	}

	if err := c.memoryMustBeValid(p); err != nil {
		return err
	}

	_, err = c.specs(p)

	return err
}

func (c Config) countsMustBeValid() error {
	switch {
	case c.NumCPUs < 0:
		return coherence.NewConfigurationError("numCPUs",
			"must not be negative, got %d", c.NumCPUs)
	case c.NumCPUs+len(c.Accelerators) == 0:
		return coherence.NewConfigurationError("numCPUs",
			"the fabric needs at least one core or accelerator")
	case c.NumDMAs < 0:
		return coherence.NewConfigurationError("numDMAs",
			"must not be negative, got %d", c.NumDMAs)
	case c.MemCtrlClockDivider < 1:
		return coherence.NewConfigurationError("memCtrlClockDivider",
			"must be at least 1, got %d", c.MemCtrlClockDivider)
	}

	for i, a := range c.Accelerators {
		if a.Slice < 0 || a.Slice >= c.NumL2Slices {
			return coherence.NewConfigurationError("accelerators.slice",
				"accelerator %d joins slice %d, but there are %d slices",
				i, a.Slice, c.NumL2Slices)
		}
	}

	return nil
}

func (c Config) clocksMustBeValid() error {
	if c.FabricClock == nil {
		return coherence.NewConfigurationError("fabricClock", "must be set")
	}

	n := len(c.CPUClocks)
	if n > 1 && n != c.NumCPUs {
		return coherence.NewConfigurationError("cpuClocks",
			"%d clocks given for %d cores", n, c.NumCPUs)
	}

	for i, clk := range c.CPUClocks {
		if clk == nil {
			return coherence.NewConfigurationError("cpuClocks",
				"clock %d is nil", i)
		}
	}

	return nil
}

func (c Config) memoryMustBeValid(p *partition.Partitioner) error {
	if len(c.MemRanges) == 0 {
		return coherence.NewConfigurationError("memRanges",
			"at least one memory range is required")
	}

	if err := mem.RangesMustBeValid(c.MemRanges); err != nil {
		return coherence.NewConfigurationError("memRanges", "%v", err)
	}

	total, err := mem.TotalSize(c.MemRanges)
	if err != nil {
		return coherence.NewConfigurationError("memRanges", "%v", err)
	}

	_, err = p.DirectorySize(total)

	return err
}

// cpuClock returns the clock of a core.
func (c Config) cpuClock(i int) *sim.ClockDomain {
	switch len(c.CPUClocks) {
	case 0:
		return c.FabricClock
	case 1:
		return c.CPUClocks[0]
	default:
		return c.CPUClocks[i]
	}
}

// sliceOf returns the L2 slice that serves a core. Cores are spread over the
// slices in contiguous groups.
func (c Config) sliceOf(core int) int {
	perSlice := (c.NumCPUs + c.NumL2Slices - 1) / c.NumL2Slices
	return core / perSlice
}

// specSet holds the validated per-kind specs derived from a Config.
type specSet struct {
	cpuL1s    []controller.L1Spec
	accelL1s  []controller.L1Spec
	l2        controller.L2Spec
	directory controller.DirectorySpec
	dma       controller.DMASpec
}

// specs derives and validates every controller spec.
func (c Config) specs(p *partition.Partitioner) (specSet, error) {
	s := specSet{}

	for i := 0; i < c.NumCPUs; i++ {
		l1 := c.l1Spec(p, c.L1I, c.L1D, c.cpuClock(i))
		l1.Cluster = c.sliceOf(i)
		if err := l1.Validate(c.CacheLineSize); err != nil {
			return specSet{}, err
		}

		s.cpuL1s = append(s.cpuL1s, l1)
	}

	for _, a := range c.Accelerators {
		icache, dcache := c.L1I, c.L1D
		icache.Size = a.CacheSize
		dcache.Size = a.CacheSize

		clock := a.ClockDomain
		if clock == nil {
			clock = c.FabricClock
		}

		l1 := c.l1Spec(p, icache, dcache, clock)
		l1.Cluster = a.Slice
		if err := l1.Validate(c.CacheLineSize); err != nil {
			return specSet{}, err
		}

		s.accelL1s = append(s.accelL1s, l1)
	}

	s.l2 = controller.L2Spec{
		Cache:               c.L2,
		NumTBEs:             c.L2TBEs,
		TransitionsPerCycle: c.TransitionsPerCycle,
		ClockDomain:         c.FabricClock,
	}
	s.l2.Cache.StartIndexBit = p.IndexStartBit()

	if err := s.l2.Validate(c.CacheLineSize); err != nil {
		return specSet{}, err
	}

	dir, err := c.directorySpec(p)
	if err != nil {
		return specSet{}, err
	}

	s.directory = dir

	s.dma = controller.DMASpec{
		NumTBEs:             c.DMAOutstanding,
		TransitionsPerCycle: c.TransitionsPerCycle,
		MaxOutstanding:      c.DMAOutstanding,
		ClockDomain:         c.FabricClock,
	}

	if c.NumDMAs > 0 || c.FullSystem {
		if err := s.dma.Validate(); err != nil {
			return specSet{}, err
		}
	}

	return s, nil
}

func (c Config) l1Spec(
	p *partition.Partitioner,
	icache, dcache controller.CacheSpec,
	clock *sim.ClockDomain,
) controller.L1Spec {
	icache.StartIndexBit = p.BlockSizeBits
	icache.IsICache = true
	dcache.StartIndexBit = p.BlockSizeBits
	dcache.IsICache = false

	return controller.L1Spec{
		ICache:              icache,
		DCache:              dcache,
		NumTBEs:             c.L1TBEs,
		TransitionsPerCycle: c.TransitionsPerCycle,
		SendEvictions:       c.SendEvictions,
		EnableCounter:       c.EnableCounter,
		L2SelectNumBits:     p.L2Bits,
		ClockDomain:         clock,
	}
}

func (c Config) directorySpec(
	p *partition.Partitioner,
) (controller.DirectorySpec, error) {
	total, err := mem.TotalSize(c.MemRanges)
	if err != nil {
		return controller.DirectorySpec{}, coherence.NewConfigurationError(
			"memRanges", "%v", err)
	}

	size, err := p.DirectorySize(total)
	if err != nil {
		return controller.DirectorySpec{}, err
	}

	pf, err := p.ProbeFilterGeometry(c.ProbeFilter)
	if err != nil {
		return controller.DirectorySpec{}, err
	}

	pfCache := c.DirectoryCache
	pfCache.Size = pf.Size
	pfCache.StartIndexBit = pf.StartBit

	spec := controller.DirectorySpec{
		MemorySize:          size,
		ProbeFilter:         pf,
		ProbeFilterCache:    pfCache,
		NumTBEs:             c.DirectoryTBEs,
		TransitionsPerCycle: c.TransitionsPerCycle,
		ClockDomain:         c.FabricClock,
	}

	if err := spec.Validate(c.CacheLineSize); err != nil {
		return controller.DirectorySpec{}, err
	}

	return spec, nil
}
