package stackitem

import (
	"math/big"
	"strings"

	"github.com/neo-project/neo-sub032/errors"
)

// list is the element storage shared by Array and Struct.
type list struct {
	items []Item
	rs    refState
}

// Array is an ordered, mutable sequence shared by reference.
type Array struct{ list }

// Struct is an ordered, mutable sequence with value semantics:
// it is deep-copied when stored into a container and compared
// element by element.
type Struct struct{ list }

// NewArray returns an empty Array counted by rc.
func NewArray(rc *RefCounter) *Array {
	a := &Array{list{rs: refState{rc: rc}}}
	rc.track(a)
	return a
}

// NewArrayFrom returns an Array holding items, counted by rc.
func NewArrayFrom(rc *RefCounter, items []Item) (*Array, error) {
	a := NewArray(rc)
	if err := a.appendAll(items); err != nil {
		return nil, err
	}
	return a, nil
}

// NewStruct returns an empty Struct counted by rc.
func NewStruct(rc *RefCounter) *Struct {
	s := &Struct{list{rs: refState{rc: rc}}}
	rc.track(s)
	return s
}

// NewStructFrom returns a Struct holding items, counted by rc.
func NewStructFrom(rc *RefCounter, items []Item) (*Struct, error) {
	s := NewStruct(rc)
	if err := s.appendAll(items); err != nil {
		return nil, err
	}
	return s, nil
}

func (*Array) Type() Type  { return ArrayT }
func (*Struct) Type() Type { return StructT }

func (a *Array) String() string  { return "Array" + a.format() }
func (s *Struct) String() string { return "Struct" + s.format() }

func (l *list) refState() *refState { return &l.rs }
func (l *list) subCount() int       { return len(l.items) }

func (l *list) subItems(visit func(Item)) {
	for _, it := range l.items {
		visit(it)
	}
}

func (l *list) Bool() bool { return true }

func (l *list) Integer() (*big.Int, error) {
	return nil, errors.WithDetail(ErrInvalidCast, "compound to Integer")
}

func (l *list) Bytes() ([]byte, error) {
	return nil, errors.WithDetail(ErrInvalidCast, "compound to ByteString")
}

// Len returns the number of elements.
func (l *list) Len() int { return len(l.items) }

// Items returns the elements. The slice must not be modified.
func (l *list) Items() []Item { return l.items }

// At returns the element at index i.
func (l *list) At(i int) (Item, error) {
	if i < 0 || i >= len(l.items) {
		return nil, errors.WithDetailf(ErrIndexOutOfRange, "%d of %d", i, len(l.items))
	}
	return l.items[i], nil
}

// Append adds it to the end. The reference limit is checked
// before anything changes.
func (l *list) Append(it Item) error {
	if err := l.rs.rc.Reserve(1); err != nil {
		return err
	}
	l.items = append(l.items, it)
	l.rs.rc.addRef(it)
	return nil
}

func (l *list) appendAll(items []Item) error {
	if err := l.rs.rc.Reserve(len(items)); err != nil {
		return err
	}
	for _, it := range items {
		l.items = append(l.items, it)
		l.rs.rc.addRef(it)
	}
	return nil
}

// Fill appends n copies of it.
func (l *list) Fill(n int, it Item) error {
	if err := l.rs.rc.Reserve(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		l.items = append(l.items, it)
		l.rs.rc.addRef(it)
	}
	return nil
}

// Set replaces the element at index i.
func (l *list) Set(i int, it Item) error {
	if i < 0 || i >= len(l.items) {
		return errors.WithDetailf(ErrIndexOutOfRange, "%d of %d", i, len(l.items))
	}
	old := l.items[i]
	l.items[i] = it
	l.rs.rc.removeRef(old)
	l.rs.rc.addRef(it)
	return nil
}

// Remove deletes the element at index i.
func (l *list) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return errors.WithDetailf(ErrIndexOutOfRange, "%d of %d", i, len(l.items))
	}
	old := l.items[i]
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = nil
	l.items = l.items[:len(l.items)-1]
	l.rs.rc.removeRef(old)
	return nil
}

// Clear removes every element.
func (l *list) Clear() {
	for _, it := range l.items {
		l.rs.rc.removeRef(it)
	}
	l.items = nil
}

// Reverse reverses the element order in place.
func (l *list) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
}

func (l *list) format() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		switch it.(type) {
		case container:
			b.WriteString(it.Type().String())
		default:
			b.WriteString(it.String())
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Clone deep-copies s. Nested Structs are copied, every other
// element is shared. At most limit elements are copied in total;
// the walk is breadth-first over an explicit queue.
func (s *Struct) Clone(limit int) (*Struct, error) {
	count := limit - 1
	rc := s.rs.rc
	result := NewStruct(rc)
	dst := []*Struct{result}
	src := []*Struct{s}
	for len(dst) > 0 {
		a, b := dst[0], src[0]
		dst, src = dst[1:], src[1:]
		for _, it := range b.items {
			count--
			if count < 0 {
				return nil, errors.WithDetail(ErrTooBig, "struct clone limit exceeded")
			}
			if sb, ok := it.(*Struct); ok {
				sa := NewStruct(rc)
				if err := a.Append(sa); err != nil {
					return nil, err
				}
				dst = append(dst, sa)
				src = append(src, sb)
				continue
			}
			if err := a.Append(it); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}
