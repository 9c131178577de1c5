package noc

import (
	"github.com/sarchlab/cohfabric/coherence"
)

// An Endpoint is one slot of the network's master or slave collection.
type Endpoint struct {
	ID    int
	Role  Role
	VNet  int
	Class MessageClass
	Port  *Port
}

// Node returns the node that owns the attached port.
func (e *Endpoint) Node() Node {
	return e.Port.Owner()
}

// EndpointSet is the ordered collection of either the master or the slave
// endpoints of a network. Attaching a port appends an endpoint.
type EndpointSet struct {
	network   *Network
	role      Role
	endpoints []*Endpoint
}

// Role returns whether this is the master or the slave collection.
func (s *EndpointSet) Role() Role {
	return s.role
}

// Len returns the number of endpoints.
func (s *EndpointSet) Len() int {
	return len(s.endpoints)
}

// List returns the endpoints in attach order.
func (s *EndpointSet) List() []*Endpoint {
	return append([]*Endpoint(nil), s.endpoints...)
}

// Attach plugs the port into a new endpoint of this collection.
func (s *EndpointSet) Attach(port *Port) (*Endpoint, error) {
	if port.endpoint != nil {
		return nil, coherence.NewStructuralWiringError(port.FullName(),
			"port is already connected to %s endpoint %d",
			port.endpoint.Role, port.endpoint.ID)
	}

	if RoleFor(port.dir) != s.role {
		return nil, coherence.NewStructuralWiringError(port.FullName(),
			"%s port cannot attach to a %s endpoint", port.dir, s.role)
	}

	if err := s.network.nodeMustBeRegistered(port.owner); err != nil {
		return nil, err
	}

	ep := &Endpoint{
		ID:    len(s.endpoints),
		Role:  s.role,
		VNet:  s.network.VirtualNetwork(port.class),
		Class: port.class,
		Port:  port,
	}
	s.endpoints = append(s.endpoints, ep)
	port.endpoint = ep

	s.network.InvokeHook(hookCtx(s.network, HookPosPortConnected, port, ep))

	return ep, nil
}
