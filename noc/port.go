package noc

import "github.com/sarchlab/cohfabric/sim"

// A Node is anything that owns network ports, normally a coherence
// controller.
type Node interface {
	Name() string
	Version() int
	Ports() []*Port
}

// A Port is a controller-side network port of a single message class.
type Port struct {
	name     string
	owner    Node
	class    MessageClass
	dir      Direction
	endpoint *Endpoint
}

// NewPort creates a port owned by the node. The name is local to the owner,
// such as "RequestFromL1Cache".
func NewPort(
	owner Node,
	name string,
	class MessageClass,
	dir Direction,
) *Port {
	sim.NameMustBeValid(name)

	return &Port{
		name:  name,
		owner: owner,
		class: class,
		dir:   dir,
	}
}

// Name returns the local name of the port.
func (p *Port) Name() string {
	return p.name
}

// FullName returns the name of the port prefixed by its owner.
func (p *Port) FullName() string {
	if p.owner == nil {
		return p.name
	}

	return sim.BuildName(p.owner.Name(), p.name)
}

// Owner returns the node that owns the port.
func (p *Port) Owner() Node {
	return p.owner
}

// Class returns the message class carried by the port.
func (p *Port) Class() MessageClass {
	return p.class
}

// Direction returns whether the port sends into or receives from the network.
func (p *Port) Direction() Direction {
	return p.dir
}

// Endpoint returns the network endpoint the port is attached to, or nil.
func (p *Port) Endpoint() *Endpoint {
	return p.endpoint
}

// IsConnected tells if the port is attached to the network.
func (p *Port) IsConnected() bool {
	return p.endpoint != nil
}
