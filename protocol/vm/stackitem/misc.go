package stackitem

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
)

// Buffer is a mutable byte sequence shared by reference.
type Buffer struct {
	b []byte
}

// NewBuffer returns a zero-filled Buffer of n bytes.
func NewBuffer(n int) *Buffer {
	return &Buffer{b: make([]byte, n)}
}

// NewBufferBytes returns a Buffer holding a copy of b.
func NewBufferBytes(b []byte) *Buffer {
	return &Buffer{b: append([]byte{}, b...)}
}

func (*Buffer) Type() Type               { return BufferT }
func (*Buffer) Bool() bool               { return true }
func (b *Buffer) Bytes() ([]byte, error) { return b.b, nil }
func (b *Buffer) Len() int               { return len(b.b) }
func (b *Buffer) String() string         { return "Buffer(0x" + hex.EncodeToString(b.b) + ")" }

func (b *Buffer) Integer() (*big.Int, error) {
	if len(b.b) > MaxIntegerSize {
		return nil, castErr(b, "Integer")
	}
	return IntegerFromBytes(b.b), nil
}

// Script identifies a loaded script for Pointer items.
type Script interface {
	Len() int
}

// Pointer is an absolute instruction position in a script.
type Pointer struct {
	script Script
	pos    int
}

// NewPointer returns a Pointer to position pos of script.
func NewPointer(script Script, pos int) Pointer {
	return Pointer{script: script, pos: pos}
}

func (Pointer) Type() Type       { return PointerT }
func (Pointer) Bool() bool       { return true }
func (p Pointer) Script() Script { return p.script }
func (p Pointer) Position() int  { return p.pos }
func (p Pointer) String() string { return fmt.Sprintf("Pointer(%d)", p.pos) }

func (p Pointer) Integer() (*big.Int, error) { return nil, castErr(p, "Integer") }
func (p Pointer) Bytes() ([]byte, error)     { return nil, castErr(p, "ByteString") }

// Interop wraps an opaque host object.
type Interop struct {
	value interface{}
}

// NewInterop wraps v.
func NewInterop(v interface{}) *Interop {
	return &Interop{value: v}
}

func (*Interop) Type() Type           { return InteropT }
func (*Interop) Bool() bool           { return true }
func (i *Interop) Value() interface{} { return i.value }
func (i *Interop) String() string     { return fmt.Sprintf("Interop(%T)", i.value) }

func (i *Interop) Integer() (*big.Int, error) { return nil, castErr(i, "Integer") }
func (i *Interop) Bytes() ([]byte, error)     { return nil, castErr(i, "ByteString") }

func (i *Interop) same(other *Interop) bool {
	if i == other {
		return true
	}
	if i.value == nil || other.value == nil {
		return false
	}
	t := reflect.TypeOf(i.value)
	if t != reflect.TypeOf(other.value) || !t.Comparable() {
		return false
	}
	return i.value == other.value
}
