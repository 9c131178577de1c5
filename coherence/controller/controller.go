package controller

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/partition"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

// An Agent issues requests through a controller. Sequencers are agents.
type Agent interface {
	Name() string
}

// A Controller is a coherence controller attached to the network.
type Controller interface {
	noc.Node

	Kind() Kind
	KindIndex() int
	ClockDomain() *sim.ClockDomain
	CacheLineSize() uint64
	TBEs() *TBETable
	TransitionsPerCycle() int
	Port(name string) *noc.Port

	// Sequencer returns the agent bound to the controller, or nil.
	Sequencer() Agent

	// AttachSequencer records the agent as the controller's only sequencer.
	AttachSequencer(a Agent) error
}

type controllerBase struct {
	name                string
	kind                Kind
	version             int
	kindIndex           int
	clock               *sim.ClockDomain
	lineSize            uint64
	tbes                *TBETable
	transitionsPerCycle int
	ports               []*noc.Port
	agent               Agent
}

func (c *controllerBase) Name() string {
	return c.name
}

func (c *controllerBase) Version() int {
	return c.version
}

func (c *controllerBase) Kind() Kind {
	return c.kind
}

func (c *controllerBase) KindIndex() int {
	return c.kindIndex
}

func (c *controllerBase) ClockDomain() *sim.ClockDomain {
	return c.clock
}

func (c *controllerBase) CacheLineSize() uint64 {
	return c.lineSize
}

func (c *controllerBase) TBEs() *TBETable {
	return c.tbes
}

func (c *controllerBase) TransitionsPerCycle() int {
	return c.transitionsPerCycle
}

func (c *controllerBase) Ports() []*noc.Port {
	return append([]*noc.Port(nil), c.ports...)
}

func (c *controllerBase) Port(name string) *noc.Port {
	for _, p := range c.ports {
		if p.Name() == name {
			return p
		}
	}

	return nil
}

func (c *controllerBase) Sequencer() Agent {
	return c.agent
}

func (c *controllerBase) AttachSequencer(a Agent) error {
	if !c.kind.AcceptsSequencer() {
		return coherence.NewStructuralWiringError(c.name,
			"%s controllers do not accept sequencers", c.kind)
	}

	if c.agent != nil {
		return coherence.NewStructuralWiringError(c.name,
			"already bound to %s, now binding %s", c.agent.Name(), a.Name())
	}

	c.agent = a

	return nil
}

type portDecl struct {
	name  string
	class noc.MessageClass
	dir   noc.Direction
}

func (c *controllerBase) addPorts(owner noc.Node, decls []portDecl) {
	for _, d := range decls {
		c.ports = append(c.ports, noc.NewPort(owner, d.name, d.class, d.dir))
	}
}

// L1Controller is a private L1 with split instruction and data caches.
type L1Controller struct {
	controllerBase

	ICache          CacheSpec
	DCache          CacheSpec
	SendEvictions   bool
	EnableCounter   bool
	L2SelectNumBits int
	Cluster         int
	Accelerator     bool
}

var l1Ports = []portDecl{
	{"RequestFromL1Cache", noc.Request, noc.Outbound},
	{"ResponseFromL1Cache", noc.Response, noc.Outbound},
	{"RequestToL1Cache", noc.Forward, noc.Inbound},
	{"ResponseToL1Cache", noc.Response, noc.Inbound},
}

// L2Controller is one slice of the shared L2.
type L2Controller struct {
	controllerBase

	Cache CacheSpec
}

var l2Ports = []portDecl{
	{"GlobalRequestFromL2Cache", noc.Request, noc.Outbound},
	{"L1RequestFromL2Cache", noc.Forward, noc.Outbound},
	{"ResponseFromL2Cache", noc.Response, noc.Outbound},
	{"GlobalRequestToL2Cache", noc.Forward, noc.Inbound},
	{"L1RequestToL2Cache", noc.Request, noc.Inbound},
	{"ResponseToL2Cache", noc.Response, noc.Inbound},
}

// DirectoryController is the home of one memory partition.
type DirectoryController struct {
	controllerBase

	MemorySize       uint64
	ProbeFilter      partition.ProbeFilter
	ProbeFilterCache CacheSpec
}

var directoryPorts = []portDecl{
	{"RequestToDir", noc.Request, noc.Inbound},
	{"ResponseToDir", noc.Response, noc.Inbound},
	{"ResponseFromDir", noc.Response, noc.Outbound},
	{"ForwardFromDir", noc.Forward, noc.Outbound},
}

// DMAController moves data between devices and the coherent memory.
type DMAController struct {
	controllerBase

	MaxOutstanding int
}

var dmaPorts = []portDecl{
	{"RequestFromDMA", noc.Request, noc.Outbound},
	{"ResponseFromDMA", noc.Response, noc.Outbound},
	{"ResponseToDMA", noc.Response, noc.Inbound},
}

// IOController is the DMA bridge of the IO subsystem in full-system mode.
type IOController struct {
	controllerBase

	MaxOutstanding int
}

var ioPorts = []portDecl{
	{"RequestFromIO", noc.Request, noc.Outbound},
	{"ResponseFromIO", noc.Response, noc.Outbound},
	{"ResponseToIO", noc.Response, noc.Inbound},
}
