package stackitem

import (
	"math/big"
	"strings"

	"github.com/neo-project/neo-sub032/errors"
)

// MapElement is one key/value pair of a Map.
type MapElement struct {
	Key   Item
	Value Item
}

// Map is an insertion-ordered mapping from primitive keys
// (Boolean, Integer, ByteString) to items. Keys of different
// types never collide, so Integer 1 and ByteString 0x01 are
// distinct keys.
type Map struct {
	elems []MapElement
	index map[string]int
	rs    refState
}

// NewMap returns an empty Map counted by rc.
func NewMap(rc *RefCounter) *Map {
	m := &Map{
		index: make(map[string]int),
		rs:    refState{rc: rc},
	}
	rc.track(m)
	return m
}

func (*Map) Type() Type { return MapT }
func (*Map) Bool() bool { return true }

func (m *Map) Integer() (*big.Int, error) {
	return nil, errors.WithDetail(ErrInvalidCast, "Map to Integer")
}

func (m *Map) Bytes() ([]byte, error) {
	return nil, errors.WithDetail(ErrInvalidCast, "Map to ByteString")
}

func (m *Map) String() string {
	var b strings.Builder
	b.WriteString("Map{")
	for i, e := range m.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Key.String())
		b.WriteString(": ")
		if _, ok := e.Value.(container); ok {
			b.WriteString(e.Value.Type().String())
		} else {
			b.WriteString(e.Value.String())
		}
	}
	b.WriteByte('}')
	return b.String()
}

func (m *Map) refState() *refState { return &m.rs }
func (m *Map) subCount() int       { return 2 * len(m.elems) }

func (m *Map) subItems(visit func(Item)) {
	for _, e := range m.elems {
		visit(e.Key)
		visit(e.Value)
	}
}

// mapKey returns the lookup string for k, which must be a
// primitive item no larger than MaxKeySize bytes.
func mapKey(k Item) (string, error) {
	t := k.Type()
	if !t.IsPrimitive() {
		return "", errors.WithDetailf(ErrInvalidKey, "%s key", t)
	}
	b, err := k.Bytes()
	if err != nil {
		return "", err
	}
	if len(b) > MaxKeySize {
		return "", errors.WithDetailf(ErrInvalidKey, "key of %d bytes", len(b))
	}
	return string(append([]byte{byte(t)}, b...)), nil
}

// CheckKey reports whether k can be used as a Map key.
func CheckKey(k Item) error {
	_, err := mapKey(k)
	return err
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.elems) }

// Elements returns the entries in insertion order.
// The slice must not be modified.
func (m *Map) Elements() []MapElement { return m.elems }

// Get returns the value stored under k.
func (m *Map) Get(k Item) (Item, bool, error) {
	key, err := mapKey(k)
	if err != nil {
		return nil, false, err
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false, nil
	}
	return m.elems[i].Value, true, nil
}

// Has reports whether k is present.
func (m *Map) Has(k Item) (bool, error) {
	_, ok, err := m.Get(k)
	return ok, err
}

// Set stores v under k, keeping the position of an existing key.
// A new entry adds two references; the limit is checked first.
func (m *Map) Set(k, v Item) error {
	key, err := mapKey(k)
	if err != nil {
		return err
	}
	if i, ok := m.index[key]; ok {
		old := m.elems[i].Value
		m.elems[i].Value = v
		m.rs.rc.removeRef(old)
		m.rs.rc.addRef(v)
		return nil
	}
	if err := m.rs.rc.Reserve(2); err != nil {
		return err
	}
	m.index[key] = len(m.elems)
	m.elems = append(m.elems, MapElement{Key: k, Value: v})
	m.rs.rc.addRef(k)
	m.rs.rc.addRef(v)
	return nil
}

// Delete removes k if present.
func (m *Map) Delete(k Item) error {
	key, err := mapKey(k)
	if err != nil {
		return err
	}
	i, ok := m.index[key]
	if !ok {
		return nil
	}
	old := m.elems[i]
	copy(m.elems[i:], m.elems[i+1:])
	m.elems[len(m.elems)-1] = MapElement{}
	m.elems = m.elems[:len(m.elems)-1]
	delete(m.index, key)
	for j := i; j < len(m.elems); j++ {
		kj, _ := mapKey(m.elems[j].Key)
		m.index[kj] = j
	}
	m.rs.rc.removeRef(old.Key)
	m.rs.rc.removeRef(old.Value)
	return nil
}

// Clear removes every entry.
func (m *Map) Clear() {
	for _, e := range m.elems {
		m.rs.rc.removeRef(e.Key)
		m.rs.rc.removeRef(e.Value)
	}
	m.elems = nil
	m.index = make(map[string]int)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Item {
	keys := make([]Item, len(m.elems))
	for i, e := range m.elems {
		keys[i] = e.Key
	}
	return keys
}

// Values returns the values in insertion order.
func (m *Map) Values() []Item {
	vals := make([]Item, len(m.elems))
	for i, e := range m.elems {
		vals[i] = e.Value
	}
	return vals
}
