package controller

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/partition"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/sim"
)

// CacheSpec holds the geometry of one cache array.
type CacheSpec struct {
	Size           uint64
	Assoc          int
	Banks          int
	Latency        int
	TagLatency     int
	DataLatency    int
	StartIndexBit  int
	IsICache       bool
	ResourceStalls bool
}

// NumSets returns the number of sets for the given line size.
func (s CacheSpec) NumSets(lineSize uint64) int {
	return int(s.Size / (lineSize * uint64(s.Assoc)))
}

// Validate checks that the geometry forms a whole power-of-two number of sets.
func (s CacheSpec) Validate(field string, lineSize uint64) error {
	switch {
	case s.Size == 0:
		return coherence.NewConfigurationError(field+".size",
			"must not be zero")
	case s.Assoc <= 0:
		return coherence.NewConfigurationError(field+".assoc",
			"must be positive, got %d", s.Assoc)
	case s.Banks <= 0:
		return coherence.NewConfigurationError(field+".banks",
			"must be positive, got %d", s.Banks)
	case s.Latency < 0 || s.TagLatency < 0 || s.DataLatency < 0:
		return coherence.NewConfigurationError(field+".latency",
			"must not be negative")
	case s.StartIndexBit < 0:
		return coherence.NewConfigurationError(field+".startIndexBit",
			"must not be negative, got %d", s.StartIndexBit)
	}

	setSize := lineSize * uint64(s.Assoc)
	if s.Size%setSize != 0 {
		return coherence.NewConfigurationError(field+".size",
			"%s is not a whole number of %d-way sets of %dB lines",
			mem.FormatSize(s.Size), s.Assoc, lineSize)
	}

	if !mem.IsPowerOfTwo(uint64(s.NumSets(lineSize))) {
		return coherence.NewConfigurationError(field+".size",
			"%d sets is not a power of two", s.NumSets(lineSize))
	}

	return nil
}

// L1Spec configures a private L1 controller with split I/D caches.
type L1Spec struct {
	ICache              CacheSpec
	DCache              CacheSpec
	NumTBEs             int
	TransitionsPerCycle int
	SendEvictions       bool
	EnableCounter       bool
	L2SelectNumBits     int
	Cluster             int
	ClockDomain         *sim.ClockDomain
}

// Validate checks the spec.
func (s L1Spec) Validate(lineSize uint64) error {
	if err := s.ICache.Validate("l1i", lineSize); err != nil {
		return err
	}

	if err := s.DCache.Validate("l1d", lineSize); err != nil {
		return err
	}

	if s.L2SelectNumBits < 0 {
		return coherence.NewConfigurationError("l1.l2SelectNumBits",
			"must not be negative, got %d", s.L2SelectNumBits)
	}

	if s.Cluster < 0 {
		return coherence.NewConfigurationError("l1.cluster",
			"must not be negative, got %d", s.Cluster)
	}

	return controllerParamsMustBeValid("l1", s.NumTBEs,
		s.TransitionsPerCycle, s.ClockDomain)
}

// L2Spec configures one shared L2 slice.
type L2Spec struct {
	Cache               CacheSpec
	NumTBEs             int
	TransitionsPerCycle int
	ClockDomain         *sim.ClockDomain
}

// Validate checks the spec.
func (s L2Spec) Validate(lineSize uint64) error {
	if err := s.Cache.Validate("l2", lineSize); err != nil {
		return err
	}

	return controllerParamsMustBeValid("l2", s.NumTBEs,
		s.TransitionsPerCycle, s.ClockDomain)
}

// DirectorySpec configures the directory of one memory partition.
type DirectorySpec struct {
	MemorySize          uint64
	ProbeFilter         partition.ProbeFilter
	ProbeFilterCache    CacheSpec
	NumTBEs             int
	TransitionsPerCycle int
	ClockDomain         *sim.ClockDomain
}

// Validate checks the spec.
func (s DirectorySpec) Validate(lineSize uint64) error {
	if s.MemorySize == 0 || s.MemorySize%lineSize != 0 {
		return coherence.NewConfigurationError("directory.memorySize",
			"%s is not a positive number of lines",
			mem.FormatSize(s.MemorySize))
	}

	if s.ProbeFilter.Enabled {
		err := s.ProbeFilterCache.Validate("directory.probeFilter", lineSize)
		if err != nil {
			return err
		}
	}

	return controllerParamsMustBeValid("directory", s.NumTBEs,
		s.TransitionsPerCycle, s.ClockDomain)
}

// DMASpec configures a DMA engine or the IO bridge.
type DMASpec struct {
	NumTBEs             int
	TransitionsPerCycle int
	MaxOutstanding      int
	ClockDomain         *sim.ClockDomain
}

// Validate checks the spec.
func (s DMASpec) Validate() error {
	if s.MaxOutstanding <= 0 {
		return coherence.NewConfigurationError("dma.maxOutstanding",
			"must be positive, got %d", s.MaxOutstanding)
	}

	return controllerParamsMustBeValid("dma", s.NumTBEs,
		s.TransitionsPerCycle, s.ClockDomain)
}

func controllerParamsMustBeValid(
	field string,
	numTBEs, transitionsPerCycle int,
	clock *sim.ClockDomain,
) error {
	switch {
	case numTBEs <= 0:
		return coherence.NewConfigurationError(field+".numTBEs",
			"must be positive, got %d", numTBEs)
	case transitionsPerCycle <= 0:
		return coherence.NewConfigurationError(field+".transitionsPerCycle",
			"must be positive, got %d", transitionsPerCycle)
	case clock == nil:
		return coherence.NewConfigurationError(field+".clockDomain",
			"must be set")
	}

	return nil
}

// DefaultL1Spec returns the L1 used when nothing is configured: 32kB 2-way
// instruction and 64kB 2-way data caches.
func DefaultL1Spec(clock *sim.ClockDomain) L1Spec {
	return L1Spec{
		ICache: CacheSpec{
			Size: 32 * mem.KB, Assoc: 2, Banks: 1, Latency: 3,
			IsICache: true,
		},
		DCache: CacheSpec{
			Size: 64 * mem.KB, Assoc: 2, Banks: 1, Latency: 3,
		},
		NumTBEs:             16,
		TransitionsPerCycle: 4,
		ClockDomain:         clock,
	}
}

// DefaultL2Spec returns a 2MB 8-way L2 slice.
func DefaultL2Spec(clock *sim.ClockDomain) L2Spec {
	return L2Spec{
		Cache: CacheSpec{
			Size: 2 * mem.MB, Assoc: 8, Banks: 1, Latency: 15,
			TagLatency: 4, DataLatency: 8,
		},
		NumTBEs:             32,
		TransitionsPerCycle: 4,
		ClockDomain:         clock,
	}
}

// DefaultDMASpec returns a DMA engine with 16 outstanding requests.
func DefaultDMASpec(clock *sim.ClockDomain) DMASpec {
	return DMASpec{
		NumTBEs:             16,
		TransitionsPerCycle: 4,
		MaxOutstanding:      16,
		ClockDomain:         clock,
	}
}
