/*
Package stackitem implements the values manipulated by the VM.

Primitive items (Null, Boolean, Integer, ByteString) are immutable
values. Buffer, Array, Struct and Map are mutable and shared by
reference; Struct is copied by value when it is stored into another
container. Pointer is an absolute position in a script and Interop
wraps an opaque host object.

Every container created with a RefCounter reports its element count
to that counter as part of each mutation, so the counter always equals
the number of item references held by live stacks, slots and
reachable containers.
*/
package stackitem

import (
	"fmt"
	"math/big"

	"github.com/neo-project/neo-sub032/errors"
)

// Type is the tag of an item variant. The numeric values are
// the ones used by ISTYPE, CONVERT and NEWARRAY_T operands.
type Type byte

const (
	AnyT        Type = 0x00
	PointerT    Type = 0x10
	BooleanT    Type = 0x20
	IntegerT    Type = 0x21
	ByteStringT Type = 0x28
	BufferT     Type = 0x30
	ArrayT      Type = 0x40
	StructT     Type = 0x41
	MapT        Type = 0x48
	InteropT    Type = 0x60
)

const (
	// MaxIntegerSize is the largest two's-complement width of an Integer.
	MaxIntegerSize = 32

	// MaxKeySize bounds the byte size of a Map key.
	MaxKeySize = 64

	// MaxComparableSize bounds the bytes examined by one equality check.
	MaxComparableSize = 65536

	// MaxCompareItems bounds the items visited by one Struct comparison.
	MaxCompareItems = 2048

	// MaxCompareDepth bounds Struct nesting during comparison and rendering.
	MaxCompareDepth = 128
)

var (
	ErrInvalidCast       = errors.New("invalid cast")
	ErrInvalidType       = errors.New("invalid item type")
	ErrInvalidKey        = errors.New("invalid map key")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTooBig            = errors.New("item too big")
	ErrCircularReference = errors.New("circular reference")
	ErrReferenceLimit    = errors.New("reference count limit exceeded")
)

// Item is a value on the VM stacks.
type Item interface {
	Type() Type

	// Bool converts the item to a boolean. It is defined for
	// every variant.
	Bool() bool

	// Integer converts the item to an integer, failing with
	// ErrInvalidCast when the variant cannot be coerced.
	Integer() (*big.Int, error)

	// Bytes returns the byte representation of the item,
	// failing with ErrInvalidCast for non-primitive variants.
	// The returned slice must not be modified unless the
	// item is a Buffer.
	Bytes() ([]byte, error)

	String() string
}

func (t Type) String() string {
	switch t {
	case AnyT:
		return "Any"
	case PointerT:
		return "Pointer"
	case BooleanT:
		return "Boolean"
	case IntegerT:
		return "Integer"
	case ByteStringT:
		return "ByteString"
	case BufferT:
		return "Buffer"
	case ArrayT:
		return "Array"
	case StructT:
		return "Struct"
	case MapT:
		return "Map"
	case InteropT:
		return "InteropInterface"
	}
	return fmt.Sprintf("Type(0x%02x)", byte(t))
}

// IsValid reports whether t names a defined variant.
func (t Type) IsValid() bool {
	switch t {
	case AnyT, PointerT, BooleanT, IntegerT, ByteStringT, BufferT,
		ArrayT, StructT, MapT, InteropT:
		return true
	}
	return false
}

// IsPrimitive reports whether items of type t can be map keys.
func (t Type) IsPrimitive() bool {
	return t == BooleanT || t == IntegerT || t == ByteStringT
}

// IsNull reports whether it is the Null item.
func IsNull(it Item) bool {
	_, ok := it.(Null)
	return ok
}

func castErr(from Item, to string) error {
	return errors.WithDetailf(ErrInvalidCast, "%s to %s", from.Type(), to)
}
