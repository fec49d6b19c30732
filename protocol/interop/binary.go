package interop

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// MaxInputLength bounds the string accepted by System.Binary.Atoi.
const MaxInputLength = 1024

var binaryServices = []builtin{
	{"System.Binary.Itoa", 1 << 12, binaryItoa},
	{"System.Binary.Atoi", 1 << 12, binaryAtoi},
}

// Itoa formats v in base 10, or in base 16 as the shortest
// two's-complement digit string: 255 is "0ff" and -1 is "f".
func Itoa(v *big.Int, base int) (string, error) {
	switch base {
	case 10:
		return v.String(), nil
	case 16:
		b := stackitem.IntegerToBytes(v)
		if len(b) == 0 {
			return "0", nil
		}
		be := make([]byte, len(b))
		for i := range b {
			be[len(b)-1-i] = b[i]
		}
		s := hex.EncodeToString(be)
		// drop sign-extension nibbles the next digit implies
		for len(s) > 1 && (s[0] == '0' && s[1] < '8' || s[0] == 'f' && s[1] >= '8') {
			s = s[1:]
		}
		return s, nil
	}
	return "", errors.WithDetailf(ErrBadArgument, "base %d", base)
}

// Atoi parses s in base 10, or in base 16 as produced by Itoa.
func Atoi(s string, base int) (*big.Int, error) {
	if len(s) > MaxInputLength {
		return nil, errors.WithDetailf(ErrTooLong, "%d bytes, max %d", len(s), MaxInputLength)
	}
	switch base {
	case 10:
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, errors.WithDetailf(ErrBadArgument, "%q is not a decimal integer", s)
		}
		return v, nil
	case 16:
		if s == "" || strings.ContainsAny(s, "+-") {
			return nil, errors.WithDetailf(ErrBadArgument, "%q is not a hex integer", s)
		}
		lower := strings.ToLower(s)
		if len(lower)%2 == 1 {
			pad := "0"
			if lower[0] >= '8' {
				pad = "f"
			}
			lower = pad + lower
		}
		be, err := hex.DecodeString(lower)
		if err != nil {
			return nil, errors.WithDetailf(ErrBadArgument, "%q is not a hex integer", s)
		}
		le := make([]byte, len(be))
		for i := range be {
			le[len(be)-1-i] = be[i]
		}
		return stackitem.IntegerFromBytes(le), nil
	}
	return nil, errors.WithDetailf(ErrBadArgument, "base %d", base)
}

func binaryItoa(h *Host, e *vm.Engine) error {
	it, err := e.Pop()
	if err != nil {
		return err
	}
	v, err := it.Integer()
	if err != nil {
		return err
	}
	base, err := popInt64(e)
	if err != nil {
		return err
	}
	s, err := Itoa(v, int(base))
	if err != nil {
		return err
	}
	e.Push(stackitem.NewByteString([]byte(s)))
	return nil
}

func binaryAtoi(h *Host, e *vm.Engine) error {
	b, err := popBytes(e, MaxInputLength)
	if err != nil {
		return err
	}
	base, err := popInt64(e)
	if err != nil {
		return err
	}
	v, err := Atoi(string(b), int(base))
	if err != nil {
		return err
	}
	if !stackitem.IntegerFits(v) {
		return errors.WithDetailf(vm.ErrIntegerOverflow, "%d digits", len(b))
	}
	e.Push(stackitem.NewInteger(v))
	return nil
}
