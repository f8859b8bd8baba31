package service

import (
	"sync"

	"github.com/billed/bill-review/internal/domain/entity"
)

// Snapshot is the point-in-time bill collection held by a review session.
// It is only ever replaced as a whole.
type Snapshot struct {
	mu    sync.RWMutex
	bills []entity.Bill
}

// NewSnapshot returns a snapshot holding a copy of bills
func NewSnapshot(bills []entity.Bill) *Snapshot {
	s := &Snapshot{}
	s.Replace(bills)
	return s
}

// Replace swaps in a new collection
func (s *Snapshot) Replace(bills []entity.Bill) {
	cp := entity.CloneBills(bills)
	s.mu.Lock()
	s.bills = cp
	s.mu.Unlock()
}

// Bills returns a copy of the current collection
func (s *Snapshot) Bills() []entity.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.CloneBills(s.bills)
}

// Find looks a bill up by id
func (s *Snapshot) Find(id string) (entity.Bill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b, true
		}
	}
	return entity.Bill{}, false
}

// Len returns the number of bills held
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bills)
}
