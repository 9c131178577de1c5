package sim

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// VTimeInSec defines the time in the simulated space in the unit of second.
type VTimeInSec float64

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// String formats the frequency with the largest unit that keeps the value at
// or above 1.
func (f Freq) String() string {
	switch {
	case f >= GHz:
		return strconv.FormatFloat(float64(f/GHz), 'f', -1, 64) + "GHz"
	case f >= MHz:
		return strconv.FormatFloat(float64(f/MHz), 'f', -1, 64) + "MHz"
	case f >= KHz:
		return strconv.FormatFloat(float64(f/KHz), 'f', -1, 64) + "kHz"
	default:
		return strconv.FormatFloat(float64(f), 'f', -1, 64) + "Hz"
	}
}

// ParseFreq parses strings such as "2GHz", "800MHz" or "1e9".
func ParseFreq(s string) (Freq, error) {
	str := strings.TrimSpace(s)
	unit := Hz

	lower := strings.ToLower(str)
	for _, u := range []struct {
		suffix string
		unit   Freq
	}{
		{"ghz", GHz}, {"mhz", MHz}, {"khz", KHz}, {"hz", Hz},
	} {
		if strings.HasSuffix(lower, u.suffix) {
			str = str[:len(str)-len(u.suffix)]
			unit = u.unit

			break
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}

	if v <= 0 {
		return 0, fmt.Errorf("invalid frequency %q: must be positive", s)
	}

	return Freq(v) * unit, nil
}
