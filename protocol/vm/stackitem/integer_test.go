package stackitem

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/neo-project/neo-sub032/testutil"
)

func TestIntegerBytes(t *testing.T) {
	cases := []struct {
		v    int64
		want string
	}{
		{0, ""},
		{1, "01"},
		{-1, "ff"},
		{127, "7f"},
		{128, "8000"},
		{-128, "80"},
		{-129, "7fff"},
		{255, "ff00"},
		{256, "0001"},
		{-256, "00ff"},
		{32767, "ff7f"},
		{-32768, "0080"},
	}
	for _, c := range cases {
		got := IntegerToBytes(big.NewInt(c.v))
		if hex.EncodeToString(got) != c.want {
			t.Errorf("IntegerToBytes(%d) = %x want %s", c.v, got, c.want)
		}
		testutil.ExpectEqual(t, IntegerFromBytes(got), big.NewInt(c.v), "IntegerFromBytes("+c.want+")")
	}
}

func TestIntegerSignExtension(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"ff", -1},
		{"ffff", -1},
		{"ffffffff", -1},
		{"7f", 127},
		{"7f00", 127},
		{"80", -128},
		{"8000", 128},
		{"00000080", -2147483648},
	}
	for _, c := range cases {
		b, _ := hex.DecodeString(c.in)
		if got := IntegerFromBytes(b); got.Int64() != c.want {
			t.Errorf("IntegerFromBytes(%s) = %s want %d", c.in, got, c.want)
		}
	}
}

func TestIntegerFits(t *testing.T) {
	one := big.NewInt(1)
	maxV := new(big.Int).Sub(new(big.Int).Lsh(one, 255), one)
	minV := new(big.Int).Neg(new(big.Int).Lsh(one, 255))
	cases := []struct {
		v    *big.Int
		want bool
	}{
		{big.NewInt(0), true},
		{maxV, true},
		{minV, true},
		{new(big.Int).Add(maxV, one), false},
		{new(big.Int).Sub(minV, one), false},
	}
	for _, c := range cases {
		if got := IntegerFits(c.v); got != c.want {
			t.Errorf("IntegerFits(%s) = %v want %v", c.v, got, c.want)
		}
		if c.want && len(IntegerToBytes(c.v)) > MaxIntegerSize {
			t.Errorf("IntegerToBytes(%s) longer than %d", c.v, MaxIntegerSize)
		}
	}
}

func TestPrimitiveConversions(t *testing.T) {
	cases := []struct {
		item     Item
		wantBool bool
		wantInt  int64
		intErr   bool
		bytes    []byte
		bytesErr bool
	}{
		{Null{}, false, 0, true, nil, true},
		{True, true, 1, false, []byte{1}, false},
		{False, false, 0, false, []byte{0}, false},
		{Make(0), false, 0, false, []byte{}, false},
		{Make(-2), true, -2, false, []byte{0xfe}, false},
		{ByteString{0, 0}, false, 0, false, []byte{0, 0}, false},
		{ByteString{0, 1}, true, 256, false, []byte{0, 1}, false},
		{ByteString(make([]byte, 33)), false, 0, true, make([]byte, 33), false},
		{NewBufferBytes([]byte{5}), true, 5, false, []byte{5}, false},
		{NewPointer(nil, 3), true, 0, true, nil, true},
	}
	for i, c := range cases {
		if got := c.item.Bool(); got != c.wantBool {
			t.Errorf("case %d (%s): Bool = %v want %v", i, c.item, got, c.wantBool)
		}
		v, err := c.item.Integer()
		if (err != nil) != c.intErr {
			t.Errorf("case %d (%s): Integer err = %v want err %v", i, c.item, err, c.intErr)
		} else if err == nil && v.Int64() != c.wantInt {
			t.Errorf("case %d (%s): Integer = %s want %d", i, c.item, v, c.wantInt)
		}
		b, err := c.item.Bytes()
		if (err != nil) != c.bytesErr {
			t.Errorf("case %d (%s): Bytes err = %v want err %v", i, c.item, err, c.bytesErr)
		} else if err == nil && !bytes.Equal(b, c.bytes) {
			t.Errorf("case %d (%s): Bytes = %x want %x", i, c.item, b, c.bytes)
		}
	}
}
