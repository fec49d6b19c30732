package stackitem

import "math/big"

// Integer is an arbitrary-precision signed integer bounded to
// MaxIntegerSize bytes of two's-complement encoding.
type Integer struct {
	value *big.Int
}

// NewInteger returns an Integer holding v. The VM checks
// IntegerFits before pushing computed values.
func NewInteger(v *big.Int) Integer {
	return Integer{value: v}
}

// Make returns an Integer holding n.
func Make(n int64) Integer {
	return Integer{value: big.NewInt(n)}
}

func (Integer) Type() Type       { return IntegerT }
func (i Integer) Bool() bool     { return i.value.Sign() != 0 }
func (i Integer) String() string { return i.value.String() }

// Integer returns the value. The result must not be modified.
func (i Integer) Integer() (*big.Int, error) { return i.value, nil }

func (i Integer) Bytes() ([]byte, error) { return IntegerToBytes(i.value), nil }

// Big returns the value. The result must not be modified.
func (i Integer) Big() *big.Int { return i.value }

// IntegerFits reports whether v has a two's-complement encoding
// of at most MaxIntegerSize bytes.
func IntegerFits(v *big.Int) bool {
	const maxBits = MaxIntegerSize*8 - 1
	if v.Sign() >= 0 {
		return v.BitLen() <= maxBits
	}
	t := new(big.Int).Neg(v)
	t.Sub(t, big.NewInt(1))
	return t.BitLen() <= maxBits
}

// IntegerFromBytes decodes a little-endian two's-complement
// integer. The empty slice is zero.
func IntegerFromBytes(b []byte) *big.Int {
	n := len(b)
	if n == 0 {
		return new(big.Int)
	}
	be := make([]byte, n)
	for i, c := range b {
		be[n-1-i] = c
	}
	v := new(big.Int).SetBytes(be)
	if b[n-1]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*n)))
	}
	return v
}

// IntegerToBytes returns the minimal little-endian two's-complement
// encoding of v. Zero encodes as the empty slice.
func IntegerToBytes(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return []byte{}
	case 1:
		be := v.Bytes()
		out := reverse(be)
		if out[len(out)-1]&0x80 != 0 {
			out = append(out, 0)
		}
		return out
	}
	t := new(big.Int).Neg(v)
	t.Sub(t, big.NewInt(1))
	out := reverse(t.Bytes())
	for i := range out {
		out[i] = ^out[i]
	}
	if len(out) == 0 || out[len(out)-1]&0x80 == 0 {
		out = append(out, 0xff)
	}
	return out
}

func reverse(be []byte) []byte {
	out := make([]byte, len(be), len(be)+1)
	for i, c := range be {
		out[len(be)-1-i] = c
	}
	return out
}
