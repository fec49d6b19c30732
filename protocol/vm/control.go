package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

func opNop(e *Engine, instr Instruction) error {
	return nil
}

// jumpTo moves the current context to pos.
func (e *Engine) jumpTo(pos int) error {
	ctx := e.CurrentContext()
	if err := ctx.checkJump(pos); err != nil {
		return err
	}
	ctx.ip = pos
	e.jumping = true
	return nil
}

// callTarget validates the destination of a call within s.
func callTarget(s *Script, pos int) error {
	if pos < 0 || pos > s.Len() || !s.IsBoundary(pos) {
		return errors.WithDetailf(ErrInvalidJump, "call target %d in script of %d bytes", pos, s.Len())
	}
	return nil
}

func opJump(e *Engine, instr Instruction) error {
	var ok bool
	switch instr.Opcode {
	case op.JMP, op.JMPL:
		ok = true
	case op.JMPIF, op.JMPIFL, op.JMPIFNOT, op.JMPIFNOTL:
		b, err := e.estack().PopBool()
		if err != nil {
			return err
		}
		ok = b == (instr.Opcode == op.JMPIF || instr.Opcode == op.JMPIFL)
	default:
		x2, err := e.estack().PopInteger()
		if err != nil {
			return err
		}
		x1, err := e.estack().PopInteger()
		if err != nil {
			return err
		}
		c := x1.Cmp(x2)
		switch instr.Opcode {
		case op.JMPEQ, op.JMPEQL:
			ok = c == 0
		case op.JMPNE, op.JMPNEL:
			ok = c != 0
		case op.JMPGT, op.JMPGTL:
			ok = c > 0
		case op.JMPGE, op.JMPGEL:
			ok = c >= 0
		case op.JMPLT, op.JMPLTL:
			ok = c < 0
		case op.JMPLE, op.JMPLEL:
			ok = c <= 0
		}
	}
	if !ok {
		return nil
	}
	pos, err := instr.target(instr.jumpOffset())
	if err != nil {
		return err
	}
	return e.jumpTo(pos)
}

func opCall(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	pos, err := instr.target(instr.jumpOffset())
	if err != nil {
		return err
	}
	if err := callTarget(ctx.script, pos); err != nil {
		return err
	}
	return e.loadContext(ctx.clone(pos))
}

func opCallA(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	it, err := e.Pop()
	if err != nil {
		return err
	}
	p, ok := it.(stackitem.Pointer)
	if !ok {
		return errors.WithDetailf(stackitem.ErrInvalidCast, "CALLA on %s", it.Type())
	}
	if p.Script() != stackitem.Script(ctx.script) {
		return errors.WithDetail(ErrInvalidOperand, "pointer into another script")
	}
	if err := callTarget(ctx.script, p.Position()); err != nil {
		return err
	}
	return e.loadContext(ctx.clone(p.Position()))
}

func opCallT(e *Engine, instr Instruction) error {
	token := instr.u16()
	if e.tokens == nil {
		return errors.WithDetailf(ErrUnknownToken, "token %d", token)
	}
	s, opts, err := e.tokens(e, token)
	if err != nil {
		return err
	}
	_, err = e.Load(s, opts...)
	return err
}

func opAbort(e *Engine, instr Instruction) error {
	return ErrAbort
}

func opAbortMsg(e *Engine, instr Instruction) error {
	msg, err := e.estack().PopBytes()
	if err != nil {
		return err
	}
	return errors.WithDetail(ErrAbort, string(msg))
}

func opAssert(e *Engine, instr Instruction) error {
	ok, err := e.estack().PopBool()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssertFailed
	}
	return nil
}

func opAssertMsg(e *Engine, instr Instruction) error {
	msg, err := e.estack().PopBytes()
	if err != nil {
		return err
	}
	ok, err := e.estack().PopBool()
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithDetail(ErrAssertFailed, string(msg))
	}
	return nil
}

func opThrow(e *Engine, instr Instruction) error {
	it, err := e.Pop()
	if err != nil {
		return err
	}
	return e.throw(it)
}

func opTry(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	c, f := instr.tryOffsets()
	if c == 0 && f == 0 {
		return errors.WithDetail(ErrInvalidOperand, "TRY without catch or finally")
	}
	if len(ctx.regions) >= e.limits.MaxTryNestingDepth {
		return errors.WithDetailf(ErrTryNesting, "%d open regions", len(ctx.regions))
	}
	catch, finally := -1, -1
	if c != 0 {
		pos, err := instr.target(c)
		if err != nil {
			return err
		}
		if err := callTarget(ctx.script, pos); err != nil {
			return err
		}
		catch = pos
	}
	if f != 0 {
		pos, err := instr.target(f)
		if err != nil {
			return err
		}
		if err := callTarget(ctx.script, pos); err != nil {
			return err
		}
		finally = pos
	}
	ctx.regions = append(ctx.regions, newRegion(instr.Next(), catch, finally, ctx.script.Len()))
	return nil
}

func opEndTry(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	r := ctx.topRegion()
	if r == nil {
		return errors.WithDetail(ErrInvalidOperand, "ENDTRY without TRY")
	}
	if r.State == InFinally {
		return errors.WithDetail(ErrInvalidOperand, "ENDTRY in finally clause")
	}
	end, err := instr.target(instr.jumpOffset())
	if err != nil {
		return err
	}
	if r.hasFinally() {
		if err := callTarget(ctx.script, end); err != nil {
			return err
		}
		r.State = InFinally
		r.End = end
		ctx.ip = r.Finally
		e.jumping = true
		return nil
	}
	ctx.popRegion()
	if err := e.jumpTo(end); err != nil {
		ctx.regions = append(ctx.regions, r)
		return err
	}
	return nil
}

func opEndFinally(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	r := ctx.topRegion()
	if r == nil || r.State != InFinally {
		return errors.WithDetail(ErrInvalidOperand, "ENDFINALLY outside finally clause")
	}
	ctx.popRegion()
	if e.uncaught != nil {
		return e.handleException()
	}
	if err := e.jumpTo(r.End); err != nil {
		ctx.regions = append(ctx.regions, r)
		return err
	}
	return nil
}

func opRet(e *Engine, instr Instruction) error {
	ctx := e.CurrentContext()
	dst := e.results
	if n := len(e.istack); n > 1 {
		dst = e.istack[n-2].estack
	}
	if ctx.estack != dst {
		if ctx.rvcount >= 0 && ctx.estack.Len() != ctx.rvcount {
			return errors.WithDetailf(ErrReturnCount, "have %d items, want %d", ctx.estack.Len(), ctx.rvcount)
		}
		ctx.estack.moveTo(dst)
	}
	e.unloadContext()
	e.jumping = true
	return nil
}

func opSyscall(e *Engine, instr Instruction) error {
	return errors.WithDetailf(ErrUnknownSyscall, "0x%08x", instr.u32())
}
