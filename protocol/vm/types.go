package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

func opIsNull(e *Engine, instr Instruction) error {
	it, err := e.Pop()
	if err != nil {
		return err
	}
	e.Push(stackitem.Boolean(stackitem.IsNull(it)))
	return nil
}

func opIsType(e *Engine, instr Instruction) error {
	t := stackitem.Type(instr.u8())
	if !t.IsValid() || t == stackitem.AnyT {
		return errors.WithDetailf(ErrInvalidOperand, "ISTYPE 0x%02x", byte(t))
	}
	it, err := e.Pop()
	if err != nil {
		return err
	}
	e.Push(stackitem.Boolean(it.Type() == t))
	return nil
}

func opConvert(e *Engine, instr Instruction) error {
	t := stackitem.Type(instr.u8())
	it, err := e.Pop()
	if err != nil {
		return err
	}
	r, err := stackitem.Convert(it, t, e.rc)
	if err != nil {
		return err
	}
	if r != it && (t == stackitem.ByteStringT || t == stackitem.BufferT) {
		b, _ := r.Bytes()
		if err := e.limits.checkItemSize(len(b)); err != nil {
			return err
		}
		if err := e.chargeBytes(len(b)); err != nil {
			return err
		}
	}
	e.Push(r)
	return nil
}
