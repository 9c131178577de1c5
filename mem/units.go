// Package mem provides memory size units, size parsing and physical address
// ranges.
package mem

// Size units, in bytes.
const (
	B  uint64 = 1
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
	TB uint64 = 1 << 40
)
