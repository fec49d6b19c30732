package vmutil

import (
	"github.com/neo-project/neo-sub032/crypto/hash160"
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// VerifyService is the interop service called by verification
// scripts.
const VerifyService = "System.Crypto.VerifyWithECDsa"

var (
	ErrBadValue     = errors.New("bad value")
	ErrVerifyFormat = errors.New("bad verification script format")
)

// VerifyScript returns a script that checks a signature against
// pubkey on the named curve. The invocation script leaves the
// signature and the signed message on the stack, see
// InvocationScript. The result is a Boolean.
// The script is: <curve> REVERSE3 SWAP <pubkey> SWAP SYSCALL
func VerifyScript(pubkey []byte, curve int64) ([]byte, error) {
	if err := checkVerifyParams(pubkey, curve); err != nil {
		return nil, err
	}
	builder := NewBuilder()
	// stack is [... SIG MSG]
	builder.AddInt64(curve).AddOp(op.REVERSE3) // [... CURVE MSG SIG]
	builder.AddOp(op.SWAP).AddData(pubkey)     // [... CURVE SIG MSG PUB]
	builder.AddOp(op.SWAP)                     // [... CURVE SIG PUB MSG]
	builder.AddSyscall(VerifyService)
	return builder.Build()
}

// ScriptHash returns the Hash160 of prog, which names the
// account or contract a verification script controls.
func ScriptHash(prog []byte) hash160.Hash {
	return hash160.Sum(prog)
}

// InvocationScript returns the script supplying sig and msg to a
// verification script.
func InvocationScript(sig, msg []byte) []byte {
	return append(vm.PushdataBytes(sig), vm.PushdataBytes(msg)...)
}

// ParseVerifyScript returns the key and curve of a script built by
// VerifyScript.
func ParseVerifyScript(prog []byte) ([]byte, int64, error) {
	s, err := vm.ParseScript(prog)
	if err != nil {
		return nil, 0, err
	}
	instrs, _ := s.Instructions()
	if len(instrs) != 6 {
		return nil, 0, errors.WithDetailf(ErrVerifyFormat, "%d instructions", len(instrs))
	}
	curve, ok := pushedInt(instrs[0])
	if !ok {
		return nil, 0, errors.Wrap(ErrVerifyFormat, "parsing curve")
	}
	want := []op.Opcode{op.REVERSE3, op.SWAP, op.PUSHDATA1, op.SWAP, op.SYSCALL}
	for i, o := range want {
		if instrs[i+1].Opcode != o {
			return nil, 0, errors.WithDetailf(ErrVerifyFormat, "instruction %d is %s, want %s", i+1, instrs[i+1].Opcode, o)
		}
	}
	if instrs[5].SyscallID() != vm.SyscallID(VerifyService) {
		return nil, 0, errors.Wrap(ErrVerifyFormat, "not a verification syscall")
	}
	pubkey := instrs[3].Operand
	if err := checkVerifyParams(pubkey, curve); err != nil {
		return nil, 0, err
	}
	return pubkey, curve, nil
}

func pushedInt(in vm.Instruction) (int64, bool) {
	switch {
	case in.Opcode >= op.PUSH0 && in.Opcode <= op.PUSH16:
		return int64(in.Opcode - op.PUSH0), true
	case in.Opcode >= op.PUSHINT8 && in.Opcode <= op.PUSHINT64:
		return stackitem.IntegerFromBytes(in.Operand).Int64(), true
	}
	return 0, false
}

func checkVerifyParams(pubkey []byte, curve int64) error {
	switch len(pubkey) {
	case 33, 65:
	default:
		return errors.WithDetailf(ErrBadValue, "public key of %d bytes", len(pubkey))
	}
	if curve < 0 || curve > 255 {
		return errors.WithDetailf(ErrBadValue, "curve %d", curve)
	}
	return nil
}
