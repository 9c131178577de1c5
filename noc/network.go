package noc

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/sim"
)

// HookPosNodeAdded marks when a node is registered with the network.
var HookPosNodeAdded = &sim.HookPos{Name: "Network Node Added"}

// HookPosPortConnected marks when a port is attached to an endpoint.
var HookPosPortConnected = &sim.HookPos{Name: "Network Port Connected"}

func hookCtx(n *Network, pos *sim.HookPos, item, detail any) sim.HookCtx {
	return sim.HookCtx{
		Domain: n,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	}
}

// Network is the shared interconnect of one coherence domain.
type Network struct {
	sim.HookableBase

	name   string
	vnets  map[MessageClass]int
	master *EndpointSet
	slave  *EndpointSet
	nodes  []Node
	known  map[Node]bool
}

// Name returns the name of the network.
func (n *Network) Name() string {
	return n.name
}

// Master returns the endpoints that deliver traffic to controllers.
func (n *Network) Master() *EndpointSet {
	return n.master
}

// Slave returns the endpoints that accept traffic from controllers.
func (n *Network) Slave() *EndpointSet {
	return n.slave
}

// VirtualNetwork returns the virtual network that carries the class.
func (n *Network) VirtualNetwork(c MessageClass) int {
	return n.vnets[c]
}

// Nodes returns the registered nodes in registration order.
func (n *Network) Nodes() []Node {
	return append([]Node(nil), n.nodes...)
}

// AddNode registers a node. Nodes must be registered in version order,
// starting from version 0 and without gaps, because destination lists index
// nodes by their position.
func (n *Network) AddNode(node Node) error {
	if n.known[node] {
		return coherence.NewStructuralWiringError(node.Name(),
			"node is already registered with %s", n.name)
	}

	if node.Version() != len(n.nodes) {
		return coherence.NewStructuralWiringError(node.Name(),
			"node version %d registered at position %d",
			node.Version(), len(n.nodes))
	}

	n.nodes = append(n.nodes, node)
	n.known[node] = true

	n.InvokeHook(hookCtx(n, HookPosNodeAdded, node, node.Version()))

	return nil
}

func (n *Network) nodeMustBeRegistered(node Node) error {
	if node == nil || !n.known[node] {
		name := "<nil>"
		if node != nil {
			name = node.Name()
		}

		return coherence.NewStructuralWiringError(name,
			"node is not registered with %s", n.name)
	}

	return nil
}

// Endpoints returns all the endpoints, slaves first.
func (n *Network) Endpoints() []*Endpoint {
	eps := n.slave.List()
	return append(eps, n.master.List()...)
}

// DestinationList returns the versions of the nodes that receive the class,
// in node order.
func (n *Network) DestinationList(c MessageClass) []int {
	dests := []int{}

	for _, node := range n.nodes {
		for _, p := range node.Ports() {
			if p.class == c && p.dir == Inbound {
				dests = append(dests, node.Version())
				break
			}
		}
	}

	return dests
}

// Validate checks that every port of every registered node is connected to
// an endpoint of the right role on the virtual network of its class.
func (n *Network) Validate() error {
	for _, node := range n.nodes {
		for _, p := range node.Ports() {
			if err := n.portMustBeWired(p); err != nil {
				return err
			}
		}
	}

	return nil
}

func (n *Network) portMustBeWired(p *Port) error {
	ep := p.endpoint

	switch {
	case ep == nil:
		return coherence.NewStructuralWiringError(p.FullName(),
			"port is not connected")
	case ep.Role != RoleFor(p.dir):
		return coherence.NewStructuralWiringError(p.FullName(),
			"%s port attached to a %s endpoint", p.dir, ep.Role)
	case ep.VNet != n.vnets[p.class]:
		return coherence.NewStructuralWiringError(p.FullName(),
			"%s traffic on virtual network %d", p.class, ep.VNet)
	}

	return nil
}
