package vm

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

func TestPushdataBytes(t *testing.T) {
	type test struct {
		data []byte
		want []byte
	}
	cases := []test{{
		data: nil,
		want: []byte{0x0c, 0},
	}, {
		data: []byte{0xab},
		want: []byte{0x0c, 1, 0xab},
	}}

	data := make([]byte, 256)
	cases = append(cases, test{
		data: data,
		want: append([]byte{0x0d, 0x00, 0x01}, data...),
	})
	data = make([]byte, 65536)
	cases = append(cases, test{
		data: data,
		want: append([]byte{0x0e, 0x00, 0x00, 0x01, 0x00}, data...),
	})

	for _, c := range cases {
		got := PushdataBytes(c.data)
		if !bytes.Equal(got, c.want) {
			t.Errorf("PushdataBytes(%d bytes) = %x...[%d] want %x...[%d]", len(c.data), got[:3], len(got), c.want[:3], len(c.want))
		}
	}
}

func TestPushdataInt64(t *testing.T) {
	cases := []struct {
		num     int64
		wantHex string
	}{
		{-1, "0f"},
		{0, "10"},
		{1, "11"},
		{16, "20"},
		{17, "0011"},
		{-2, "00fe"},
		{127, "007f"},
		{128, "018000"},
		{-129, "017fff"},
		{65536, "0200000100"},
		{1 << 40, "030000000000010000"},
	}
	for _, c := range cases {
		got := hex.EncodeToString(PushdataInt64(c.num))
		if got != c.wantHex {
			t.Errorf("PushdataInt64(%d) = %s want %s", c.num, got, c.wantHex)
		}
	}
}

func TestPushdataIntTooLarge(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(1), 255)
	if _, ok := PushdataInt(v); ok {
		t.Error("2^255 should not fit a PUSHINT256")
	}
	v.Neg(v)
	b, ok := PushdataInt(v)
	if !ok || len(b) != 33 {
		t.Errorf("-2^255 = %x, %v want 33 bytes", b, ok)
	}
}
