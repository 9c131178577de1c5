// Package noc models the coherence interconnect as seen by the controllers:
// typed message-class ports, the master and slave endpoint collections of the
// network, and the wiring that binds one to the other.
package noc

// MessageClass is a logical class of coherence traffic. Each class travels on
// its own virtual network so that a stalled request can never block the
// response that would unblock it.
type MessageClass int

// The message classes used by directory protocols.
const (
	Request MessageClass = iota
	Forward
	Response
)

// MessageClasses lists every class in virtual-network order.
var MessageClasses = []MessageClass{Request, Forward, Response}

func (c MessageClass) String() string {
	switch c {
	case Request:
		return "Request"
	case Forward:
		return "Forward"
	case Response:
		return "Response"
	default:
		return "Unknown"
	}
}

// Direction tells which way traffic flows through a controller port.
type Direction int

const (
	// Outbound ports are named "...From<Ctrl>". The controller is a traffic
	// source and the port attaches to a slave endpoint of the network.
	Outbound Direction = iota

	// Inbound ports are named "...To<Ctrl>". The network delivers traffic to
	// the controller and the port attaches to a master endpoint.
	Inbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "Outbound"
	}

	return "Inbound"
}

// Role is the side of the network an endpoint belongs to.
type Role int

// Endpoint roles.
const (
	Slave Role = iota
	Master
)

func (r Role) String() string {
	if r == Master {
		return "Master"
	}

	return "Slave"
}

// RoleFor returns the endpoint role a port direction attaches to.
func RoleFor(d Direction) Role {
	if d == Outbound {
		return Slave
	}

	return Master
}
