package partition

import (
	"math/bits"

	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/mem"
)

// DefaultProbeFilterMultiplier over-provisions the probe filter to twice the
// configured directory size.
const DefaultProbeFilterMultiplier = 2

// ProbeFilterSpec configures the probe filter attached to each directory.
type ProbeFilterSpec struct {
	Enabled    bool
	BaseSize   uint64
	Multiplier int
}

// ProbeFilter is the derived probe filter geometry.
type ProbeFilter struct {
	Enabled  bool
	Size     uint64
	Bits     int
	StartBit int
}

// ProbeFilterGeometry derives the probe filter geometry. A disabled probe
// filter is still sized, but its geometry is only checked once it is
// enabled. Bits of a disabled filter that is not a power of two round down.
func (p *Partitioner) ProbeFilterGeometry(
	spec ProbeFilterSpec,
) (ProbeFilter, error) {
	multiplier := spec.Multiplier
	if multiplier == 0 {
		multiplier = DefaultProbeFilterMultiplier
	}

	pf := ProbeFilter{
		Enabled:  spec.Enabled,
		StartBit: p.IndexStartBit(),
	}

	if multiplier < 0 {
		if !spec.Enabled {
			return pf, nil
		}

		return ProbeFilter{}, coherence.NewConfigurationError(
			"probeFilter.multiplier", "must be positive, got %d", multiplier)
	}

	pf.Size = spec.BaseSize * uint64(multiplier)

	n, ok := mem.Log2(pf.Size)
	if ok {
		pf.Bits = n
		return pf, nil
	}

	if spec.Enabled {
		return ProbeFilter{}, coherence.NewConfigurationError(
			"probeFilter.size", "%s is not a power of two",
			mem.FormatSize(pf.Size))
	}

	if pf.Size > 0 {
		pf.Bits = bits.Len64(pf.Size) - 1
	}

	return pf, nil
}
