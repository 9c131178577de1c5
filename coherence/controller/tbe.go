package controller

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTBEsExhausted is returned when every transaction buffer entry is in use.
// The requester is expected to retry later.
var ErrTBEsExhausted = errors.New("no free transaction buffer entry")

// A TBE tracks one in-flight coherence transaction on a cache line.
type TBE struct {
	Address       uint64
	TransactionID string
}

// TBETable bounds the number of outstanding transactions of a controller.
type TBETable struct {
	lock     sync.Mutex
	capacity int
	entries  map[uint64]*TBE
}

// NewTBETable creates a table with the given number of entries.
func NewTBETable(capacity int) *TBETable {
	return &TBETable{
		capacity: capacity,
		entries:  make(map[uint64]*TBE),
	}
}

// Capacity returns the number of entries.
func (t *TBETable) Capacity() int {
	return t.capacity
}

// Outstanding returns the number of entries in use.
func (t *TBETable) Outstanding() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.entries)
}

// IsPresent tells if a transaction is in flight for the line.
func (t *TBETable) IsPresent(lineAddr uint64) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	_, found := t.entries[lineAddr]

	return found
}

// AreNSlotsAvailable tells if n more transactions can be started.
func (t *TBETable) AreNSlotsAvailable(n int) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.capacity-len(t.entries) >= n
}

// Allocate starts a transaction on the line.
func (t *TBETable) Allocate(lineAddr uint64, transactionID string) (*TBE, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, found := t.entries[lineAddr]; found {
		return nil, fmt.Errorf("line 0x%x already has a transaction in flight",
			lineAddr)
	}

	if len(t.entries) >= t.capacity {
		return nil, ErrTBEsExhausted
	}

	tbe := &TBE{Address: lineAddr, TransactionID: transactionID}
	t.entries[lineAddr] = tbe

	return tbe, nil
}

// Deallocate ends the transaction on the line.
func (t *TBETable) Deallocate(lineAddr uint64) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, found := t.entries[lineAddr]; !found {
		return fmt.Errorf("line 0x%x has no transaction in flight", lineAddr)
	}

	delete(t.entries, lineAddr)

	return nil
}

// Lookup returns the entry of the line, or nil.
func (t *TBETable) Lookup(lineAddr uint64) *TBE {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.entries[lineAddr]
}
