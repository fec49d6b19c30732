package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// Slot is a fixed-size array of variables: the static fields,
// locals or arguments of a context. Slot contents count as
// stack references.
type Slot struct {
	items []stackitem.Item
	rc    *stackitem.RefCounter
}

func newSlot(n int, rc *stackitem.RefCounter) *Slot {
	s := &Slot{items: make([]stackitem.Item, n), rc: rc}
	for i := range s.items {
		s.items[i] = stackitem.Null{}
		rc.AddStackRef(s.items[i])
	}
	return s
}

func newSlotFrom(items []stackitem.Item, rc *stackitem.RefCounter) *Slot {
	s := &Slot{items: append([]stackitem.Item(nil), items...), rc: rc}
	for _, it := range s.items {
		rc.AddStackRef(it)
	}
	return s
}

// Len returns the number of variables.
func (s *Slot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Get returns variable i.
func (s *Slot) Get(i int) (stackitem.Item, error) {
	if s == nil {
		return nil, errors.WithDetail(ErrInvalidOperand, "slot not initialized")
	}
	if i < 0 || i >= len(s.items) {
		return nil, errors.WithDetailf(ErrInvalidOperand, "slot index %d of %d", i, len(s.items))
	}
	return s.items[i], nil
}

// Set stores it into variable i.
func (s *Slot) Set(i int, it stackitem.Item) error {
	if s == nil {
		return errors.WithDetail(ErrInvalidOperand, "slot not initialized")
	}
	if i < 0 || i >= len(s.items) {
		return errors.WithDetailf(ErrInvalidOperand, "slot index %d of %d", i, len(s.items))
	}
	old := s.items[i]
	s.items[i] = it
	s.rc.AddStackRef(it)
	s.rc.RemoveStackRef(old)
	return nil
}

// Items returns a copy of the variables.
func (s *Slot) Items() []stackitem.Item {
	if s == nil {
		return nil
	}
	return append([]stackitem.Item(nil), s.items...)
}

// release drops every reference held by the slot.
func (s *Slot) release() {
	if s == nil {
		return
	}
	for _, it := range s.items {
		s.rc.RemoveStackRef(it)
	}
	s.items = nil
}
