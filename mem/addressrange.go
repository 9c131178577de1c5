package mem

import (
	"fmt"
	"math/bits"
)

// AddressRange is a contiguous range of physical addresses [Start, Start+Size).
type AddressRange struct {
	Start uint64
	Size  uint64
}

// End returns the first address after the range. It wraps for ranges that
// reach past the address space, which RangesMustBeValid rejects.
func (r AddressRange) End() uint64 {
	return r.Start + r.Size
}

// Wraps tells if the range reaches past the end of the 64-bit address space.
func (r AddressRange) Wraps() bool {
	_, carry := bits.Add64(r.Start, r.Size, 0)
	return carry != 0
}

// Contains tells if the address falls into the range.
func (r AddressRange) Contains(addr uint64) bool {
	return addr >= r.Start && addr-r.Start < r.Size
}

func (r AddressRange) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Start, r.End())
}

// TotalSize sums the sizes of all the ranges. It fails if the sum does not
// fit in 64 bits.
func TotalSize(ranges []AddressRange) (uint64, error) {
	total := uint64(0)
	for _, r := range ranges {
		var carry uint64

		total, carry = bits.Add64(total, r.Size, 0)
		if carry != 0 {
			return 0, fmt.Errorf("total size of %d ranges overflows 64 bits",
				len(ranges))
		}
	}

	return total, nil
}

// RangesMustBeValid returns an error if a range wraps around the address
// space or if any two ranges overlap.
func RangesMustBeValid(ranges []AddressRange) error {
	for _, r := range ranges {
		if r.Wraps() {
			return fmt.Errorf("address range at 0x%x of size 0x%x "+
				"wraps around the address space", r.Start, r.Size)
		}
	}

	return RangesMustNotOverlap(ranges)
}

// RangesMustNotOverlap returns an error if any two ranges overlap. Ranges
// must not wrap.
func RangesMustNotOverlap(ranges []AddressRange) error {
	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			a, b := ranges[i], ranges[j]
			if a.Start < b.End() && b.Start < a.End() {
				return fmt.Errorf("address range %s overlaps %s", a, b)
			}
		}
	}

	return nil
}
