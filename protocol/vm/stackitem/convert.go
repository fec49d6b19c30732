package stackitem

import "github.com/neo-project/neo-sub032/errors"

// Convert returns it converted to type t under the CONVERT rules.
// Converting to the item's own type returns the item itself. Byte
// conversions copy, so the result never aliases a Buffer. Array and
// Struct convert into each other sharing elements; the new container
// is counted by rc.
func Convert(it Item, t Type, rc *RefCounter) (Item, error) {
	if !t.IsValid() || t == AnyT {
		return nil, errors.WithDetailf(ErrInvalidCast, "to %s", t)
	}
	if _, ok := it.(Null); ok {
		return it, nil
	}
	if it.Type() == t {
		return it, nil
	}
	if t == BooleanT {
		return Boolean(it.Bool()), nil
	}

	switch x := it.(type) {
	case Boolean, Integer, ByteString, *Buffer:
		switch t {
		case IntegerT:
			v, err := x.Integer()
			if err != nil {
				return nil, err
			}
			return NewInteger(v), nil
		case ByteStringT:
			b, err := x.Bytes()
			if err != nil {
				return nil, err
			}
			return NewByteString(b), nil
		case BufferT:
			b, err := x.Bytes()
			if err != nil {
				return nil, err
			}
			return NewBufferBytes(b), nil
		}
	case *Array:
		if t == StructT {
			s, err := NewStructFrom(rc, x.items)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	case *Struct:
		if t == ArrayT {
			a, err := NewArrayFrom(rc, x.items)
			if err != nil {
				return nil, err
			}
			return a, nil
		}
	}
	return nil, castErr(it, t.String())
}
