package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

func opInitSSlot(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	if ctx.static != nil {
		return errors.WithDetail(ErrSlotInitialized, "static fields")
	}
	n := instr.u8()
	if n == 0 {
		return errors.WithDetail(ErrInvalidOperand, "INITSSLOT with no fields")
	}
	ctx.static = newSlot(n, e.rc)
	return nil
}

func opInitSlot(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	if ctx.locals != nil || ctx.args != nil {
		return errors.WithDetail(ErrSlotInitialized, "locals and arguments")
	}
	nloc, narg := int(instr.Operand[0]), int(instr.Operand[1])
	if nloc == 0 && narg == 0 {
		return errors.WithDetail(ErrInvalidOperand, "INITSLOT with no slots")
	}
	if ctx.estack.Len() < narg {
		return errors.WithDetailf(ErrStackUnderflow, "%d arguments, %d items", narg, ctx.estack.Len())
	}
	if nloc > 0 {
		ctx.locals = newSlot(nloc, e.rc)
	}
	if narg > 0 {
		args := make([]stackitem.Item, narg)
		for i := range args {
			args[i], _ = ctx.estack.Pop()
		}
		ctx.args = newSlotFrom(args, e.rc)
	}
	return nil
}

// opSlot loads and stores static fields, locals and arguments.
// Each family has seven opcodes with an implicit index followed
// by one taking the index as operand.
func opSlot(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	rel := int(instr.Opcode - op.LDSFLD0)
	family, idx := rel/8, rel%8
	if idx == 7 {
		idx = instr.u8()
	}

	var slot *Slot
	switch family / 2 {
	case 0:
		slot = ctx.static
	case 1:
		slot = ctx.locals
	case 2:
		slot = ctx.args
	}

	if family%2 == 0 {
		it, err := slot.Get(idx)
		if err != nil {
			return err
		}
		ctx.estack.Push(it)
		return nil
	}
	if _, err := slot.Get(idx); err != nil {
		return err
	}
	it, err := ctx.estack.Pop()
	if err != nil {
		return err
	}
	return slot.Set(idx, it)
}
