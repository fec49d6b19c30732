package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

func opDepth(e *Engine, instr Instruction) error {
	s := e.estack()
	s.Push(stackitem.Make(int64(s.Len())))
	return nil
}

func opDrop(e *Engine, instr Instruction) error {
	_, err := e.Pop()
	return err
}

func opNip(e *Engine, instr Instruction) error {
	_, err := e.estack().Remove(1)
	return err
}

// popIndex pops a non-negative stack index.
func popIndex(s *Stack) (int, error) {
	n, err := s.PopInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.WithDetailf(ErrInvalidOperand, "negative index %d", n)
	}
	return n, nil
}

func opXDrop(e *Engine, instr Instruction) error {
	s := e.estack()
	n, err := popIndex(s)
	if err != nil {
		return err
	}
	_, err = s.Remove(n)
	return err
}

func opClear(e *Engine, instr Instruction) error {
	e.estack().Clear()
	return nil
}

func opDup(e *Engine, instr Instruction) error {
	return pushPeek(e.estack(), 0)
}

func opOver(e *Engine, instr Instruction) error {
	return pushPeek(e.estack(), 1)
}

func opPick(e *Engine, instr Instruction) error {
	s := e.estack()
	n, err := popIndex(s)
	if err != nil {
		return err
	}
	return pushPeek(s, n)
}

func pushPeek(s *Stack, n int) error {
	it, err := s.Peek(n)
	if err != nil {
		return err
	}
	s.Push(it)
	return nil
}

func opTuck(e *Engine, instr Instruction) error {
	s := e.estack()
	if s.Len() < 2 {
		return errors.WithDetailf(ErrStackUnderflow, "TUCK on %d items", s.Len())
	}
	top, _ := s.Peek(0)
	return s.Insert(2, top)
}

func opSwap(e *Engine, instr Instruction) error {
	return rollUp(e.estack(), 1)
}

func opRot(e *Engine, instr Instruction) error {
	return rollUp(e.estack(), 2)
}

func opRoll(e *Engine, instr Instruction) error {
	s := e.estack()
	n, err := popIndex(s)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return rollUp(s, n)
}

// rollUp moves the n'th item to the top.
func rollUp(s *Stack, n int) error {
	it, err := s.Remove(n)
	if err != nil {
		return err
	}
	s.Push(it)
	return nil
}

func opReverse3(e *Engine, instr Instruction) error {
	return e.estack().Reverse(3)
}

func opReverse4(e *Engine, instr Instruction) error {
	return e.estack().Reverse(4)
}

func opReverseN(e *Engine, instr Instruction) error {
	s := e.estack()
	n, err := s.PopInt()
	if err != nil {
		return err
	}
	return s.Reverse(n)
}
