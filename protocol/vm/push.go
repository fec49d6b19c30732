package vm

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

func opPushInt(e *Engine, instr Instruction) error {
	e.Push(stackitem.NewInteger(stackitem.IntegerFromBytes(instr.Operand)))
	return nil
}

func opPushBool(e *Engine, instr Instruction) error {
	e.Push(stackitem.Boolean(instr.Opcode == op.PUSHT))
	return nil
}

func opPushA(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	pos, err := instr.target(instr.jumpOffset())
	if err != nil {
		return err
	}
	if pos > ctx.script.Len() {
		return errors.WithDetailf(ErrInvalidOperand, "PUSHA target %d beyond script of %d bytes", pos, ctx.script.Len())
	}
	e.Push(stackitem.NewPointer(ctx.script, pos))
	return nil
}

func opPushNull(e *Engine, instr Instruction) error {
	e.Push(stackitem.Null{})
	return nil
}

func opPushData(e *Engine, instr Instruction) error {
	if err := e.limits.checkItemSize(len(instr.Operand)); err != nil {
		return err
	}
	if err := e.chargeBytes(len(instr.Operand)); err != nil {
		return err
	}
	e.Push(stackitem.NewByteString(instr.Operand))
	return nil
}

func opPushSmall(e *Engine, instr Instruction) error {
	e.Push(stackitem.Make(int64(instr.Opcode) - int64(op.PUSH0)))
	return nil
}

// PushdataBytes returns the shortest PUSHDATA instruction for b.
func PushdataBytes(b []byte) []byte {
	var p []byte
	switch n := len(b); {
	case n <= math.MaxUint8:
		p = []byte{byte(op.PUSHDATA1), byte(n)}
	case n <= math.MaxUint16:
		p = binary.LittleEndian.AppendUint16([]byte{byte(op.PUSHDATA2)}, uint16(n))
	default:
		p = binary.LittleEndian.AppendUint32([]byte{byte(op.PUSHDATA4)}, uint32(n))
	}
	return append(p, b...)
}

// PushdataInt64 returns the shortest instruction pushing n.
func PushdataInt64(n int64) []byte {
	b, _ := PushdataInt(big.NewInt(n))
	return b
}

// PushdataInt returns the shortest instruction pushing v. It
// reports false when v needs more than 32 bytes.
func PushdataInt(v *big.Int) ([]byte, bool) {
	if v.IsInt64() && v.Int64() == -1 {
		return []byte{byte(op.PUSHM1)}, true
	}
	if v.IsInt64() && v.Int64() >= 0 && v.Int64() <= 16 {
		return []byte{byte(op.PUSH0) + byte(v.Int64())}, true
	}
	for i, width := range []int{1, 2, 4, 8, 16, 32} {
		if b, ok := IntOperand(v, width); ok {
			return append([]byte{byte(op.PUSHINT8) + byte(i)}, b...), true
		}
	}
	return nil, false
}

// IntOperand encodes v as a little-endian two's-complement integer
// of exactly width bytes, the operand of a PUSHINT instruction.
func IntOperand(v *big.Int, width int) ([]byte, bool) {
	b := stackitem.IntegerToBytes(v)
	if len(b) > width {
		return nil, false
	}
	var pad byte
	if v.Sign() < 0 {
		pad = 0xff
	}
	for len(b) < width {
		b = append(b, pad)
	}
	return b, true
}
