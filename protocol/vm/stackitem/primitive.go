package stackitem

import (
	"encoding/hex"
	"math/big"
	"unicode/utf8"
)

// Null is the absent value. Its type tag is AnyT.
type Null struct{}

func (Null) Type() Type     { return AnyT }
func (Null) Bool() bool     { return false }
func (Null) String() string { return "Null" }

func (n Null) Integer() (*big.Int, error) { return nil, castErr(n, "Integer") }
func (n Null) Bytes() ([]byte, error)     { return nil, castErr(n, "ByteString") }

// Boolean is a truth value.
type Boolean bool

var (
	True  = Boolean(true)
	False = Boolean(false)
)

func (Boolean) Type() Type   { return BooleanT }
func (b Boolean) Bool() bool { return bool(b) }

func (b Boolean) Integer() (*big.Int, error) {
	if b {
		return big.NewInt(1), nil
	}
	return new(big.Int), nil
}

func (b Boolean) Bytes() ([]byte, error) {
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// ByteString is an immutable byte sequence.
type ByteString []byte

// NewByteString copies b into a new ByteString.
func NewByteString(b []byte) ByteString {
	return append(ByteString{}, b...)
}

func (ByteString) Type() Type { return ByteStringT }

func (s ByteString) Bool() bool {
	for _, c := range s {
		if c != 0 {
			return true
		}
	}
	return false
}

func (s ByteString) Integer() (*big.Int, error) {
	if len(s) > MaxIntegerSize {
		return nil, castErr(s, "Integer")
	}
	return IntegerFromBytes(s), nil
}

func (s ByteString) Bytes() ([]byte, error) { return s, nil }

func (s ByteString) String() string {
	if utf8.Valid(s) {
		return "\"" + string(s) + "\""
	}
	return "0x" + hex.EncodeToString(s)
}
