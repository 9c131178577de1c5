package noc

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/sim"
)

// Builder can build networks.
type Builder struct {
	vnets map[MessageClass]int
}

// MakeBuilder creates a builder that places each message class on the
// virtual network matching its position in MessageClasses.
func MakeBuilder() Builder {
	b := Builder{vnets: make(map[MessageClass]int)}
	for i, c := range MessageClasses {
		b.vnets[c] = i
	}

	return b
}

// WithVirtualNetwork assigns a message class to a virtual network.
func (b Builder) WithVirtualNetwork(c MessageClass, vnet int) Builder {
	vnets := make(map[MessageClass]int, len(b.vnets))
	for k, v := range b.vnets {
		vnets[k] = v
	}

	vnets[c] = vnet
	b.vnets = vnets

	return b
}

// Build creates the network. It fails if two message classes share one
// virtual network.
func (b Builder) Build(name string) (*Network, error) {
	if err := sim.ValidateName(name); err != nil {
		return nil, coherence.NewConfigurationError("network.name",
			"%v", err)
	}

	if err := b.vnetsMustBeDistinct(); err != nil {
		return nil, err
	}

	n := &Network{
		name:  name,
		vnets: b.vnets,
		known: make(map[Node]bool),
	}
	n.master = &EndpointSet{network: n, role: Master}
	n.slave = &EndpointSet{network: n, role: Slave}

	return n, nil
}

func (b Builder) vnetsMustBeDistinct() error {
	owner := make(map[int]MessageClass)

	for _, c := range MessageClasses {
		vnet := b.vnets[c]
		if vnet < 0 {
			return coherence.NewConfigurationError("network.vnets",
				"%s is on negative virtual network %d", c, vnet)
		}

		if other, found := owner[vnet]; found {
			return coherence.NewConfigurationError("network.vnets",
				"%s and %s share virtual network %d", other, c, vnet)
		}

		owner[vnet] = c
	}

	return nil
}
