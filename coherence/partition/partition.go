// Package partition slices physical addresses into directory homes and L2
// banks.
//
// A cache line address is split as
//
//	| ... set index ... | home index | block offset |
//	                    ^            ^
//	                    |            BlockSizeBits
//	                    IndexStartBit
//
// The home index selects the directory (DirBits wide) or the L2 slice
// (L2Bits wide). Both fields start right above the block offset, so a line
// is always homed at one directory and one L2 slice. The set index of L2
// caches and probe filters starts above the directory bits.
package partition

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/mem"
)

// Partitioner maps physical addresses to directory and L2 indices.
type Partitioner struct {
	lineSize uint64
	numDirs  int
	numL2s   int

	BlockSizeBits int
	DirBits       int
	L2Bits        int
}

// New creates a Partitioner. The cache line size, the directory count and the
// L2 count must all be powers of two.
func New(cacheLineSize uint64, numDirs, numL2s int) (*Partitioner, error) {
	blockSizeBits, ok := mem.Log2(cacheLineSize)
	if !ok {
		return nil, coherence.NewConfigurationError("cacheLineSize",
			"%d is not a power of two", cacheLineSize)
	}

	dirBits, err := countBits("numDirectories", numDirs)
	if err != nil {
		return nil, err
	}

	l2Bits, err := countBits("numL2Slices", numL2s)
	if err != nil {
		return nil, err
	}

	p := &Partitioner{
		lineSize:      cacheLineSize,
		numDirs:       numDirs,
		numL2s:        numL2s,
		BlockSizeBits: blockSizeBits,
		DirBits:       dirBits,
		L2Bits:        l2Bits,
	}

	return p, nil
}

func countBits(field string, n int) (int, error) {
	if n <= 0 {
		return 0, coherence.NewConfigurationError(field,
			"must be positive, got %d", n)
	}

	bits, ok := mem.Log2(uint64(n))
	if !ok {
		return 0, coherence.NewConfigurationError(field,
			"%d is not a power of two", n)
	}

	return bits, nil
}

// CacheLineSize returns the line size in bytes.
func (p *Partitioner) CacheLineSize() uint64 {
	return p.lineSize
}

// NumDirectories returns the number of directory homes.
func (p *Partitioner) NumDirectories() int {
	return p.numDirs
}

// NumL2Slices returns the number of L2 slices.
func (p *Partitioner) NumL2Slices() int {
	return p.numL2s
}

// IndexStartBit is the lowest address bit of the set index of L2 caches and
// probe filters.
func (p *Partitioner) IndexStartBit() int {
	if p.DirBits > 0 {
		return p.BlockSizeBits + p.DirBits
	}

	return p.BlockSizeBits
}

// LineAddress clears the block offset of the address.
func (p *Partitioner) LineAddress(addr uint64) uint64 {
	return addr &^ (p.lineSize - 1)
}

// DirectoryIndex returns the directory that is home of the address.
func (p *Partitioner) DirectoryIndex(addr uint64) int {
	return extract(addr, p.BlockSizeBits, p.DirBits)
}

// L2Index returns the L2 slice that caches the address.
func (p *Partitioner) L2Index(addr uint64) int {
	return extract(addr, p.BlockSizeBits, p.L2Bits)
}

func extract(addr uint64, start, width int) int {
	if width == 0 {
		return 0
	}

	mask := uint64(1)<<uint(width) - 1

	return int((addr >> uint(start)) & mask)
}

// DirectorySize splits the total physical memory evenly among directories.
func (p *Partitioner) DirectorySize(totalMemory uint64) (uint64, error) {
	if totalMemory == 0 {
		return 0, coherence.NewConfigurationError("memorySize",
			"total physical memory must not be empty")
	}

	if totalMemory%uint64(p.numDirs) != 0 {
		return 0, coherence.NewConfigurationError("memorySize",
			"%s is not divisible by %d directories",
			mem.FormatSize(totalMemory), p.numDirs)
	}

	return totalMemory / uint64(p.numDirs), nil
}

// DirectoryCountMustMatch returns a StructuralWiringError if the number of
// directories built differs from the number the address bits can select.
func (p *Partitioner) DirectoryCountMustMatch(built int) error {
	if built != 1<<uint(p.DirBits) {
		return coherence.NewStructuralWiringError("directories",
			"%d built, but %d address bits select %d homes",
			built, p.DirBits, 1<<uint(p.DirBits))
	}

	return nil
}

// L2CountMustMatch is DirectoryCountMustMatch for L2 slices.
func (p *Partitioner) L2CountMustMatch(built int) error {
	if built != 1<<uint(p.L2Bits) {
		return coherence.NewStructuralWiringError("l2caches",
			"%d built, but %d address bits select %d slices",
			built, p.L2Bits, 1<<uint(p.L2Bits))
	}

	return nil
}
