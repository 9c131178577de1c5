package sim

import "log"

// A ClockDomain is a group of components that share one clock. A derived
// domain runs at its parent's frequency divided by an integer divider.
type ClockDomain struct {
	name    string
	freq    Freq
	parent  *ClockDomain
	divider int
}

// NewClockDomain creates a source clock domain.
func NewClockDomain(name string, freq Freq) *ClockDomain {
	NameMustBeValid(name)

	if freq <= 0 {
		log.Panicf("clock domain %s must have a positive frequency", name)
	}

	return &ClockDomain{
		name:    name,
		freq:    freq,
		divider: 1,
	}
}

// NewDerivedClockDomain creates a clock domain that ticks once every divider
// ticks of the parent domain.
func NewDerivedClockDomain(
	name string,
	parent *ClockDomain,
	divider int,
) *ClockDomain {
	NameMustBeValid(name)

	if parent == nil {
		log.Panicf("derived clock domain %s must have a parent", name)
	}

	if divider < 1 {
		log.Panicf("clock divider of %s must be at least 1", name)
	}

	return &ClockDomain{
		name:    name,
		parent:  parent,
		divider: divider,
	}
}

// Name returns the name of the domain.
func (d *ClockDomain) Name() string {
	return d.name
}

// Freq returns the effective frequency of the domain.
func (d *ClockDomain) Freq() Freq {
	if d.parent == nil {
		return d.freq
	}

	return d.parent.Freq() / Freq(d.divider)
}

// Parent returns the domain this one is derived from, or nil.
func (d *ClockDomain) Parent() *ClockDomain {
	return d.parent
}

// Divider returns the divider against the parent domain.
func (d *ClockDomain) Divider() int {
	return d.divider
}
