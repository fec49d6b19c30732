package vm

import (
	"math/big"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// Stack is an evaluation stack. Every push and pop is reported
// to the reference counter of the engine that owns the stack.
// Index 0 is the top element.
type Stack struct {
	items []stackitem.Item
	rc    *stackitem.RefCounter
}

// NewStack returns an empty stack counted by rc.
func NewStack(rc *stackitem.RefCounter) *Stack {
	return &Stack{rc: rc}
}

// Len returns the number of items on the stack.
func (s *Stack) Len() int { return len(s.items) }

// Push puts it on top of the stack.
func (s *Stack) Push(it stackitem.Item) {
	s.items = append(s.items, it)
	s.rc.AddStackRef(it)
}

// Pop removes and returns the top item.
func (s *Stack) Pop() (stackitem.Item, error) {
	return s.Remove(0)
}

// Peek returns the n'th item from the top.
func (s *Stack) Peek(n int) (stackitem.Item, error) {
	if n < 0 {
		return nil, errors.WithDetailf(ErrInvalidOperand, "stack index %d", n)
	}
	if n >= len(s.items) {
		return nil, errors.WithDetailf(ErrStackUnderflow, "index %d of %d", n, len(s.items))
	}
	return s.items[len(s.items)-1-n], nil
}

// Remove removes and returns the n'th item from the top.
func (s *Stack) Remove(n int) (stackitem.Item, error) {
	it, err := s.Peek(n)
	if err != nil {
		return nil, err
	}
	i := len(s.items) - 1 - n
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	s.rc.RemoveStackRef(it)
	return it, nil
}

// Insert places it so that it becomes the n'th item from the top.
func (s *Stack) Insert(n int, it stackitem.Item) error {
	if n < 0 || n > len(s.items) {
		return errors.WithDetailf(ErrStackUnderflow, "insert at %d of %d", n, len(s.items))
	}
	i := len(s.items) - n
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = it
	s.rc.AddStackRef(it)
	return nil
}

// Reverse reverses the order of the top n items.
func (s *Stack) Reverse(n int) error {
	if n < 0 {
		return errors.WithDetailf(ErrInvalidOperand, "reverse %d", n)
	}
	if n > len(s.items) {
		return errors.WithDetailf(ErrStackUnderflow, "reverse %d of %d", n, len(s.items))
	}
	top := s.items[len(s.items)-n:]
	for i, j := 0, len(top)-1; i < j; i, j = i+1, j-1 {
		top[i], top[j] = top[j], top[i]
	}
	return nil
}

// Clear removes every item.
func (s *Stack) Clear() {
	for _, it := range s.items {
		s.rc.RemoveStackRef(it)
	}
	s.items = nil
}

// Items returns a copy of the stack contents, bottom first.
func (s *Stack) Items() []stackitem.Item {
	return append([]stackitem.Item(nil), s.items...)
}

// moveTo transfers every item to dst, keeping their order.
func (s *Stack) moveTo(dst *Stack) {
	for _, it := range s.items {
		dst.Push(it)
	}
	s.Clear()
}

// PopInteger pops the top item and converts it to an integer.
func (s *Stack) PopInteger() (*big.Int, error) {
	it, err := s.Pop()
	if err != nil {
		return nil, err
	}
	return it.Integer()
}

// PopInt pops an integer that must fit in an int32.
func (s *Stack) PopInt() (int, error) {
	v, err := s.PopInteger()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() < -1<<31 || v.Int64() > 1<<31-1 {
		return 0, errors.WithDetailf(ErrOutOfRange, "%s is not a 32-bit integer", v)
	}
	return int(v.Int64()), nil
}

// PopBool pops the top item and converts it to a boolean.
func (s *Stack) PopBool() (bool, error) {
	it, err := s.Pop()
	if err != nil {
		return false, err
	}
	return it.Bool(), nil
}

// PopBytes pops a primitive or Buffer item and returns its bytes.
func (s *Stack) PopBytes() ([]byte, error) {
	it, err := s.Pop()
	if err != nil {
		return nil, err
	}
	return it.Bytes()
}
