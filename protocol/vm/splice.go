package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

func popLength(s *Stack, what string) (int, error) {
	n, err := s.PopInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.WithDetailf(ErrInvalidOperand, "negative %s %d", what, n)
	}
	return n, nil
}

// pushBuffer pushes a new Buffer holding b after checking its
// size and charging for it.
func (e *Engine) pushBuffer(b []byte) error {
	if err := e.limits.checkItemSize(len(b)); err != nil {
		return err
	}
	if err := e.chargeBytes(len(b)); err != nil {
		return err
	}
	e.Push(stackitem.NewBufferBytes(b))
	return nil
}

func opNewBuffer(e *Engine, instr Instruction) error {
	n, err := popLength(e.estack(), "length")
	if err != nil {
		return err
	}
	if err := e.limits.checkItemSize(n); err != nil {
		return err
	}
	if err := e.chargeBytes(n); err != nil {
		return err
	}
	e.Push(stackitem.NewBuffer(n))
	return nil
}

func opMemcpy(e *Engine, instr Instruction) error {
	s := e.estack()
	count, err := popLength(s, "count")
	if err != nil {
		return err
	}
	si, err := popLength(s, "source index")
	if err != nil {
		return err
	}
	src, err := s.PopBytes()
	if err != nil {
		return err
	}
	if si+count > len(src) {
		return errors.WithDetailf(ErrOutOfRange, "source %d+%d of %d bytes", si, count, len(src))
	}
	di, err := popLength(s, "destination index")
	if err != nil {
		return err
	}
	it, err := s.Pop()
	if err != nil {
		return err
	}
	dst, ok := it.(*stackitem.Buffer)
	if !ok {
		return errors.WithDetailf(stackitem.ErrInvalidCast, "MEMCPY into %s", it.Type())
	}
	db, _ := dst.Bytes()
	if di+count > len(db) {
		return errors.WithDetailf(ErrOutOfRange, "destination %d+%d of %d bytes", di, count, len(db))
	}
	if err := e.chargeBytes(count); err != nil {
		return err
	}
	copy(db[di:di+count], src[si:si+count])
	return nil
}

func opCat(e *Engine, instr Instruction) error {
	s := e.estack()
	x2, err := s.PopBytes()
	if err != nil {
		return err
	}
	x1, err := s.PopBytes()
	if err != nil {
		return err
	}
	if err := e.limits.checkItemSize(len(x1) + len(x2)); err != nil {
		return err
	}
	b := make([]byte, 0, len(x1)+len(x2))
	return e.pushBuffer(append(append(b, x1...), x2...))
}

func opSubstr(e *Engine, instr Instruction) error {
	s := e.estack()
	count, err := popLength(s, "count")
	if err != nil {
		return err
	}
	index, err := popLength(s, "index")
	if err != nil {
		return err
	}
	x, err := s.PopBytes()
	if err != nil {
		return err
	}
	if index+count > len(x) {
		return errors.WithDetailf(ErrOutOfRange, "substring %d+%d of %d bytes", index, count, len(x))
	}
	return e.pushBuffer(x[index : index+count])
}

func opLeft(e *Engine, instr Instruction) error {
	s := e.estack()
	count, err := popLength(s, "count")
	if err != nil {
		return err
	}
	x, err := s.PopBytes()
	if err != nil {
		return err
	}
	if count > len(x) {
		return errors.WithDetailf(ErrOutOfRange, "left %d of %d bytes", count, len(x))
	}
	return e.pushBuffer(x[:count])
}

func opRight(e *Engine, instr Instruction) error {
	s := e.estack()
	count, err := popLength(s, "count")
	if err != nil {
		return err
	}
	x, err := s.PopBytes()
	if err != nil {
		return err
	}
	if count > len(x) {
		return errors.WithDetailf(ErrOutOfRange, "right %d of %d bytes", count, len(x))
	}
	return e.pushBuffer(x[len(x)-count:])
}
