// Package sequencer provides the agent-side front ends of the coherence
// controllers. A Sequencer serves one core or accelerator through its L1
// controller and a DMASequencer serves one DMA channel.
package sequencer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/sim"
)

// ErrTooManyOutstanding is returned when a DMA sequencer already has as many
// requests in flight as it is allowed to.
var ErrTooManyOutstanding = errors.New("too many outstanding requests")

// RequestType is the kind of access an agent issues.
type RequestType int

// Request types.
const (
	Load RequestType = iota
	Store
	InstructionFetch
)

func (t RequestType) String() string {
	switch t {
	case Load:
		return "Load"
	case Store:
		return "Store"
	case InstructionFetch:
		return "InstructionFetch"
	default:
		return "Unknown"
	}
}

// A Request is an access issued by an agent.
type Request struct {
	Type    RequestType
	Address uint64
}

// TransactionID identifies an in-flight request.
type TransactionID string

// issuer tracks the requests an agent has in flight on its controller.
type issuer struct {
	name           string
	version        int
	maxOutstanding int
	idGenerator    sim.IDGenerator

	lock     sync.Mutex
	ctrl     controller.Controller
	inflight map[TransactionID]uint64
}

func (s *issuer) init(name string, version, maxOutstanding int) {
	s.name = name
	s.version = version
	s.maxOutstanding = maxOutstanding
	s.idGenerator = sim.NewSequentialIDGenerator()
	s.inflight = make(map[TransactionID]uint64)
}

// Name returns the name of the sequencer.
func (s *issuer) Name() string {
	return s.name
}

// Version returns the version of the sequencer. CPU sequencers count cores
// first and accelerators after them. DMA sequencers count DMA channels.
func (s *issuer) Version() int {
	return s.version
}

// Controller returns the bound controller, or nil.
func (s *issuer) Controller() controller.Controller {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.ctrl
}

// Outstanding returns the number of requests in flight.
func (s *issuer) Outstanding() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.inflight)
}

func (s *issuer) setController(ctrl controller.Controller) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.ctrl != nil {
		return coherence.NewStructuralWiringError(s.name,
			"already backed by %s", s.ctrl.Name())
	}

	s.ctrl = ctrl

	return nil
}

func (s *issuer) isBound() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.ctrl != nil
}

// Issue starts a request on the bound controller and returns its
// transaction ID. The request occupies a TBE of the controller for the line
// it touches until Complete is called.
func (s *issuer) Issue(req Request) (TransactionID, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.ctrl == nil {
		return "", coherence.NewStructuralWiringError(s.name,
			"no controller bound, cannot issue %s", req.Type)
	}

	if s.maxOutstanding > 0 && len(s.inflight) >= s.maxOutstanding {
		return "", fmt.Errorf("%s: %w", s.name, ErrTooManyOutstanding)
	}

	lineAddr := req.Address / s.ctrl.CacheLineSize() * s.ctrl.CacheLineSize()
	id := TransactionID(s.idGenerator.Generate())

	_, err := s.ctrl.TBEs().Allocate(lineAddr, string(id))
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.name, err)
	}

	s.inflight[id] = lineAddr

	return id, nil
}

// Complete finishes an in-flight request and frees its TBE.
func (s *issuer) Complete(id TransactionID) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	lineAddr, found := s.inflight[id]
	if !found {
		return fmt.Errorf("%s: transaction %s is not in flight", s.name, id)
	}

	delete(s.inflight, id)

	return s.ctrl.TBEs().Deallocate(lineAddr)
}

// A Sequencer is the front end of a core or accelerator. It issues loads,
// stores and instruction fetches into its L1 controller.
type Sequencer struct {
	issuer

	icache controller.CacheSpec
	dcache controller.CacheSpec
	clock  *sim.ClockDomain
}

// NewSequencer creates a CPU sequencer. The caches are the ones of the L1
// controller it is going to be bound to.
func NewSequencer(
	parent string,
	version int,
	icache, dcache controller.CacheSpec,
	clock *sim.ClockDomain,
) *Sequencer {
	s := &Sequencer{
		icache: icache,
		dcache: dcache,
		clock:  clock,
	}
	s.init(sim.BuildNameWithIndex(parent, "Sequencer", version), version, 0)

	return s
}

// ICache returns the instruction cache the sequencer fetches from.
func (s *Sequencer) ICache() controller.CacheSpec {
	return s.icache
}

// DCache returns the data cache the sequencer loads from and stores to.
func (s *Sequencer) DCache() controller.CacheSpec {
	return s.dcache
}

// ClockDomain returns the clock domain of the sequencer.
func (s *Sequencer) ClockDomain() *sim.ClockDomain {
	return s.clock
}

func (s *Sequencer) accepts(k controller.Kind) bool {
	return k == controller.KindL1
}

// A DMASequencer is the front end of a DMA channel.
type DMASequencer struct {
	issuer

	slavePort string
}

// NewDMASequencer creates a DMA sequencer. The slave port is the device-side
// port that DMA devices connect to.
func NewDMASequencer(
	parent string,
	version int,
	maxOutstanding int,
	slavePort string,
) *DMASequencer {
	s := &DMASequencer{slavePort: slavePort}
	s.init(sim.BuildNameWithIndex(parent, "DMASequencer", version),
		version, maxOutstanding)

	return s
}

// MaxOutstanding returns the limit of requests in flight.
func (s *DMASequencer) MaxOutstanding() int {
	return s.maxOutstanding
}

// SlavePort returns the device-side port name.
func (s *DMASequencer) SlavePort() string {
	return s.slavePort
}

// Issue starts a DMA transfer of one line.
func (s *DMASequencer) Issue(req Request) (TransactionID, error) {
	if req.Type == InstructionFetch {
		return "", fmt.Errorf("%s: DMA cannot issue %s", s.name, req.Type)
	}

	return s.issuer.Issue(req)
}

func (s *DMASequencer) accepts(k controller.Kind) bool {
	return k == controller.KindDMA || k == controller.KindIO
}
