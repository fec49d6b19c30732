package vm

import (
	"math/big"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

var bigOne = big.NewInt(1)

// pushInt pushes v, which must fit in the integer size limit.
// v is owned by the stack afterwards.
func (e *Engine) pushInt(v *big.Int) error {
	if !stackitem.IntegerFits(v) {
		return errors.WithDetailf(ErrIntegerOverflow, "result has %d bits", v.BitLen())
	}
	e.Push(stackitem.NewInteger(v))
	return nil
}

func pop2Ints(s *Stack) (x1, x2 *big.Int, err error) {
	x2, err = s.PopInteger()
	if err != nil {
		return nil, nil, err
	}
	x1, err = s.PopInteger()
	if err != nil {
		return nil, nil, err
	}
	return x1, x2, nil
}

func opInvert(e *Engine, instr Instruction) error {
	x, err := e.estack().PopInteger()
	if err != nil {
		return err
	}
	return e.pushInt(new(big.Int).Not(x))
}

func opBitwise(e *Engine, instr Instruction) error {
	x1, x2, err := pop2Ints(e.estack())
	if err != nil {
		return err
	}
	z := new(big.Int)
	switch instr.Opcode {
	case op.AND:
		z.And(x1, x2)
	case op.OR:
		z.Or(x1, x2)
	case op.XOR:
		z.Xor(x1, x2)
	}
	return e.pushInt(z)
}

func opEqual(e *Engine, instr Instruction) error {
	s := e.estack()
	x2, err := s.Pop()
	if err != nil {
		return err
	}
	x1, err := s.Pop()
	if err != nil {
		return err
	}
	eq, err := stackitem.Equal(x1, x2)
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean(eq == (instr.Opcode == op.EQUAL)))
	return nil
}

func opUnary(e *Engine, instr Instruction) error {
	x, err := e.estack().PopInteger()
	if err != nil {
		return err
	}
	z := new(big.Int)
	switch instr.Opcode {
	case op.SIGN:
		z.SetInt64(int64(x.Sign()))
	case op.ABS:
		z.Abs(x)
	case op.NEGATE:
		z.Neg(x)
	case op.INC:
		z.Add(x, bigOne)
	case op.DEC:
		z.Sub(x, bigOne)
	case op.SQRT:
		if x.Sign() < 0 {
			return errors.WithDetailf(ErrOutOfRange, "square root of %s", x)
		}
		z.Sqrt(x)
	}
	return e.pushInt(z)
}

func opBinary(e *Engine, instr Instruction) error {
	x1, x2, err := pop2Ints(e.estack())
	if err != nil {
		return err
	}
	z := new(big.Int)
	switch instr.Opcode {
	case op.ADD:
		z.Add(x1, x2)
	case op.SUB:
		z.Sub(x1, x2)
	case op.MUL:
		z.Mul(x1, x2)
	case op.DIV, op.MOD:
		if x2.Sign() == 0 {
			return errors.WithDetailf(ErrDivZero, "%s by zero", instr.Opcode)
		}
		// truncated division: the remainder takes the sign of x1
		if instr.Opcode == op.DIV {
			z.Quo(x1, x2)
		} else {
			z.Rem(x1, x2)
		}
	case op.MIN:
		z.Set(x1)
		if x2.Cmp(x1) < 0 {
			z.Set(x2)
		}
	case op.MAX:
		z.Set(x1)
		if x2.Cmp(x1) > 0 {
			z.Set(x2)
		}
	}
	return e.pushInt(z)
}

func opPow(e *Engine, instr Instruction) error {
	s := e.estack()
	exp, err := s.PopInt()
	if err != nil {
		return err
	}
	if err := e.limits.checkShift(int64(exp)); err != nil {
		return err
	}
	x, err := s.PopInteger()
	if err != nil {
		return err
	}
	return e.pushInt(new(big.Int).Exp(x, big.NewInt(int64(exp)), nil))
}

func opModMul(e *Engine, instr Instruction) error {
	s := e.estack()
	m, err := s.PopInteger()
	if err != nil {
		return err
	}
	x1, x2, err := pop2Ints(s)
	if err != nil {
		return err
	}
	if m.Sign() == 0 {
		return errors.WithDetail(ErrDivZero, "MODMUL by zero")
	}
	z := new(big.Int).Mul(x1, x2)
	return e.pushInt(z.Rem(z, m))
}

func opModPow(e *Engine, instr Instruction) error {
	s := e.estack()
	m, err := s.PopInteger()
	if err != nil {
		return err
	}
	exp, err := s.PopInteger()
	if err != nil {
		return err
	}
	x, err := s.PopInteger()
	if err != nil {
		return err
	}
	if exp.Cmp(big.NewInt(-1)) == 0 {
		if x.Sign() <= 0 || m.Cmp(big.NewInt(2)) < 0 {
			return errors.WithDetailf(ErrOutOfRange, "modular inverse of %s mod %s", x, m)
		}
		z := new(big.Int).ModInverse(x, m)
		if z == nil {
			return errors.WithDetailf(ErrOutOfRange, "%s has no inverse mod %s", x, m)
		}
		return e.pushInt(z)
	}
	if exp.Sign() < 0 {
		return errors.WithDetailf(ErrOutOfRange, "negative exponent %s", exp)
	}
	if m.Sign() == 0 {
		return errors.WithDetail(ErrDivZero, "MODPOW by zero")
	}
	// the result takes the sign of x, as a remainder does
	z := new(big.Int).Exp(new(big.Int).Abs(x), exp, new(big.Int).Abs(m))
	if x.Sign() < 0 && exp.Bit(0) == 1 {
		z.Neg(z)
	}
	return e.pushInt(z)
}

func opShift(e *Engine, instr Instruction) error {
	s := e.estack()
	n, err := s.PopInt()
	if err != nil {
		return err
	}
	if err := e.limits.checkShift(int64(n)); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	x, err := s.PopInteger()
	if err != nil {
		return err
	}
	if instr.Opcode == op.SHL {
		return e.pushInt(new(big.Int).Lsh(x, uint(n)))
	}
	return e.pushInt(new(big.Int).Rsh(x, uint(n)))
}

func opNot(e *Engine, instr Instruction) error {
	s := e.estack()
	b, err := s.PopBool()
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean(!b))
	return nil
}

func pop2Bools(s *Stack) (x1, x2 bool, err error) {
	x2, err = s.PopBool()
	if err != nil {
		return false, false, err
	}
	x1, err = s.PopBool()
	return x1, x2, err
}

func opBoolAnd(e *Engine, instr Instruction) error {
	s := e.estack()
	x1, x2, err := pop2Bools(s)
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean(x1 && x2))
	return nil
}

func opBoolOr(e *Engine, instr Instruction) error {
	s := e.estack()
	x1, x2, err := pop2Bools(s)
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean(x1 || x2))
	return nil
}

func opNz(e *Engine, instr Instruction) error {
	s := e.estack()
	x, err := s.PopInteger()
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean(x.Sign() != 0))
	return nil
}

func opNumEqual(e *Engine, instr Instruction) error {
	s := e.estack()
	x1, x2, err := pop2Ints(s)
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean((x1.Cmp(x2) == 0) == (instr.Opcode == op.NUMEQUAL)))
	return nil
}

// opCompare orders two integers. A Null operand compares false.
func opCompare(e *Engine, instr Instruction) error {
	s := e.estack()
	a2, err := s.Pop()
	if err != nil {
		return err
	}
	a1, err := s.Pop()
	if err != nil {
		return err
	}
	if stackitem.IsNull(a1) || stackitem.IsNull(a2) {
		s.Push(stackitem.False)
		return nil
	}
	x1, err := a1.Integer()
	if err != nil {
		return err
	}
	x2, err := a2.Integer()
	if err != nil {
		return err
	}
	c := x1.Cmp(x2)
	var r bool
	switch instr.Opcode {
	case op.LT:
		r = c < 0
	case op.LE:
		r = c <= 0
	case op.GT:
		r = c > 0
	case op.GE:
		r = c >= 0
	}
	s.Push(stackitem.Boolean(r))
	return nil
}

func opWithin(e *Engine, instr Instruction) error {
	s := e.estack()
	b, err := s.PopInteger()
	if err != nil {
		return err
	}
	a, err := s.PopInteger()
	if err != nil {
		return err
	}
	x, err := s.PopInteger()
	if err != nil {
		return err
	}
	s.Push(stackitem.Boolean(a.Cmp(x) <= 0 && x.Cmp(b) < 0))
	return nil
}
