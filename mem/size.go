package mem

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeSuffixes = []struct {
	suffix string
	unit   uint64
}{
	{"tib", TB}, {"gib", GB}, {"mib", MB}, {"kib", KB},
	{"tb", TB}, {"gb", GB}, {"mb", MB}, {"kb", KB},
	{"t", TB}, {"g", GB}, {"m", MB}, {"k", KB},
	{"b", B},
}

// ParseSize parses sizes such as "32kB", "2MB", "512MiB" or "4096". Units are
// binary, so "1kB" is 1024 bytes.
func ParseSize(s string) (uint64, error) {
	str := strings.TrimSpace(s)
	lower := strings.ToLower(str)
	unit := B

	for _, u := range sizeSuffixes {
		if strings.HasSuffix(lower, u.suffix) {
			str = strings.TrimSpace(str[:len(str)-len(u.suffix)])
			unit = u.unit

			break
		}
	}

	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	if v != 0 && v*unit/unit != v {
		return 0, fmt.Errorf("invalid size %q: overflow", s)
	}

	return v * unit, nil
}

// MustParseSize is ParseSize that panics on error.
func MustParseSize(s string) uint64 {
	v, err := ParseSize(s)
	if err != nil {
		panic(err)
	}

	return v
}

// FormatSize prints the size with the largest unit that divides it exactly.
func FormatSize(size uint64) string {
	switch {
	case size == 0:
		return "0B"
	case size%TB == 0:
		return strconv.FormatUint(size/TB, 10) + "TB"
	case size%GB == 0:
		return strconv.FormatUint(size/GB, 10) + "GB"
	case size%MB == 0:
		return strconv.FormatUint(size/MB, 10) + "MB"
	case size%KB == 0:
		return strconv.FormatUint(size/KB, 10) + "kB"
	default:
		return strconv.FormatUint(size, 10) + "B"
	}
}

// IsPowerOfTwo tells if v is a positive power of two.
func IsPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// Log2 returns the exponent of a power of two. The second return value is
// false if v is not a power of two.
func Log2(v uint64) (int, bool) {
	if !IsPowerOfTwo(v) {
		return 0, false
	}

	bits := 0
	for v > 1 {
		v >>= 1
		bits++
	}

	return bits, true
}
