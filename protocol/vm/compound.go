package vm

import (
	"math"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// popKey pops a primitive item used as a map key or an index.
func popKey(s *Stack) (stackitem.Item, error) {
	k, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if !k.Type().IsPrimitive() {
		return nil, errors.WithDetailf(stackitem.ErrInvalidKey, "%s key", k.Type())
	}
	return k, nil
}

// indexOf converts a key to an index below n.
func indexOf(k stackitem.Item, n int) (int, error) {
	v, err := k.Integer()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() < 0 || v.Int64() >= int64(n) {
		return 0, errors.WithDetailf(stackitem.ErrIndexOutOfRange, "%s of %d", v, n)
	}
	return int(v.Int64()), nil
}

// valueCopy returns the item to store into a container:
// Structs are stored as copies.
func (e *Engine) valueCopy(it stackitem.Item) (stackitem.Item, error) {
	if s, ok := it.(*stackitem.Struct); ok {
		return s.Clone(e.limits.MaxStackSize)
	}
	return it, nil
}

func popCount(e *Engine, per int) (int, error) {
	s := e.estack()
	n, err := s.PopInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || n*per > s.Len() {
		return 0, errors.WithDetailf(ErrInvalidOperand, "%d elements from %d items", n, s.Len())
	}
	return n, nil
}

func opPackMap(e *Engine, instr Instruction) error {
	n, err := popCount(e, 2)
	if err != nil {
		return err
	}
	s := e.estack()
	m := stackitem.NewMap(e.rc)
	for i := 0; i < n; i++ {
		k, err := popKey(s)
		if err != nil {
			return err
		}
		v, err := s.Pop()
		if err != nil {
			return err
		}
		if err := m.Set(k, v); err != nil {
			return err
		}
	}
	s.Push(m)
	return nil
}

func opPack(e *Engine, instr Instruction) error {
	n, err := popCount(e, 1)
	if err != nil {
		return err
	}
	s := e.estack()
	items := make([]stackitem.Item, n)
	for i := range items {
		items[i], _ = s.Pop()
	}
	var c stackitem.Item
	if instr.Opcode == op.PACKSTRUCT {
		c, err = stackitem.NewStructFrom(e.rc, items)
	} else {
		c, err = stackitem.NewArrayFrom(e.rc, items)
	}
	if err != nil {
		return err
	}
	s.Push(c)
	return nil
}

func opUnpack(e *Engine, instr Instruction) error {
	s := e.estack()
	it, err := s.Pop()
	if err != nil {
		return err
	}
	switch c := it.(type) {
	case *stackitem.Map:
		elems := c.Elements()
		for i := len(elems) - 1; i >= 0; i-- {
			s.Push(elems[i].Value)
			s.Push(elems[i].Key)
		}
		s.Push(stackitem.Make(int64(len(elems))))
	case *stackitem.Array:
		pushReversed(s, c.Items())
	case *stackitem.Struct:
		pushReversed(s, c.Items())
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "UNPACK on %s", it.Type())
	}
	return nil
}

func pushReversed(s *Stack, items []stackitem.Item) {
	for i := len(items) - 1; i >= 0; i-- {
		s.Push(items[i])
	}
	s.Push(stackitem.Make(int64(len(items))))
}

func opNewArray0(e *Engine, instr Instruction) error {
	if instr.Opcode == op.NEWSTRUCT0 {
		e.Push(stackitem.NewStruct(e.rc))
	} else {
		e.Push(stackitem.NewArray(e.rc))
	}
	return nil
}

func opNewArray(e *Engine, instr Instruction) error {
	n, err := e.estack().PopInt()
	if err != nil {
		return err
	}
	if n < 0 || n > e.limits.MaxStackSize {
		return errors.WithDetailf(ErrInvalidOperand, "%s of %d elements", instr.Opcode, n)
	}
	var fill stackitem.Item = stackitem.Null{}
	if instr.Opcode == op.NEWARRAYT {
		switch t := stackitem.Type(instr.u8()); t {
		case stackitem.BooleanT:
			fill = stackitem.False
		case stackitem.IntegerT:
			fill = stackitem.Make(0)
		case stackitem.ByteStringT:
			fill = stackitem.ByteString{}
		default:
			if !t.IsValid() {
				return errors.WithDetailf(ErrInvalidOperand, "element type 0x%02x", byte(t))
			}
		}
	}
	if instr.Opcode == op.NEWSTRUCT {
		st := stackitem.NewStruct(e.rc)
		if err := st.Fill(n, fill); err != nil {
			return err
		}
		e.Push(st)
		return nil
	}
	a := stackitem.NewArray(e.rc)
	if err := a.Fill(n, fill); err != nil {
		return err
	}
	e.Push(a)
	return nil
}

func opNewMap(e *Engine, instr Instruction) error {
	e.Push(stackitem.NewMap(e.rc))
	return nil
}

func opSize(e *Engine, instr Instruction) error {
	s := e.estack()
	it, err := s.Pop()
	if err != nil {
		return err
	}
	var n int
	switch x := it.(type) {
	case *stackitem.Array:
		n = x.Len()
	case *stackitem.Struct:
		n = x.Len()
	case *stackitem.Map:
		n = x.Len()
	case *stackitem.Buffer:
		n = x.Len()
	case stackitem.Boolean, stackitem.Integer, stackitem.ByteString:
		b, _ := x.Bytes()
		n = len(b)
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "SIZE of %s", it.Type())
	}
	s.Push(stackitem.Make(int64(n)))
	return nil
}

func opHasKey(e *Engine, instr Instruction) error {
	s := e.estack()
	k, err := popKey(s)
	if err != nil {
		return err
	}
	it, err := s.Pop()
	if err != nil {
		return err
	}
	var n int
	switch x := it.(type) {
	case *stackitem.Map:
		ok, err := x.Has(k)
		if err != nil {
			return err
		}
		s.Push(stackitem.Boolean(ok))
		return nil
	case *stackitem.Array:
		n = x.Len()
	case *stackitem.Struct:
		n = x.Len()
	case *stackitem.Buffer:
		n = x.Len()
	case stackitem.ByteString:
		n = len(x)
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "HASKEY on %s", it.Type())
	}
	v, err := k.Integer()
	if err != nil {
		return err
	}
	if v.Sign() < 0 {
		return errors.WithDetailf(stackitem.ErrIndexOutOfRange, "negative index %s", v)
	}
	s.Push(stackitem.Boolean(v.IsInt64() && v.Int64() < int64(n)))
	return nil
}

func opKeys(e *Engine, instr Instruction) error {
	s := e.estack()
	it, err := s.Pop()
	if err != nil {
		return err
	}
	m, ok := it.(*stackitem.Map)
	if !ok {
		return errors.WithDetailf(stackitem.ErrInvalidType, "KEYS of %s", it.Type())
	}
	a, err := stackitem.NewArrayFrom(e.rc, m.Keys())
	if err != nil {
		return err
	}
	s.Push(a)
	return nil
}

func opValues(e *Engine, instr Instruction) error {
	s := e.estack()
	it, err := s.Pop()
	if err != nil {
		return err
	}
	var vals []stackitem.Item
	switch x := it.(type) {
	case *stackitem.Map:
		vals = x.Values()
	case *stackitem.Array:
		vals = x.Items()
	case *stackitem.Struct:
		vals = x.Items()
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "VALUES of %s", it.Type())
	}
	a := stackitem.NewArray(e.rc)
	for _, v := range vals {
		v, err := e.valueCopy(v)
		if err != nil {
			return err
		}
		if err := a.Append(v); err != nil {
			return err
		}
	}
	s.Push(a)
	return nil
}

func opPickItem(e *Engine, instr Instruction) error {
	s := e.estack()
	k, err := popKey(s)
	if err != nil {
		return err
	}
	it, err := s.Pop()
	if err != nil {
		return err
	}
	switch x := it.(type) {
	case *stackitem.Map:
		v, ok, err := x.Get(k)
		if err != nil {
			return err
		}
		if !ok {
			return errors.WithDetailf(ErrKeyNotFound, "%s", k)
		}
		s.Push(v)
		return nil
	case *stackitem.Array:
		return pickList(s, x.Items(), k)
	case *stackitem.Struct:
		return pickList(s, x.Items(), k)
	case *stackitem.Buffer, stackitem.Boolean, stackitem.Integer, stackitem.ByteString:
		b, _ := x.Bytes()
		i, err := indexOf(k, len(b))
		if err != nil {
			return err
		}
		s.Push(stackitem.Make(int64(b[i])))
		return nil
	}
	return errors.WithDetailf(stackitem.ErrInvalidType, "PICKITEM on %s", it.Type())
}

func pickList(s *Stack, items []stackitem.Item, k stackitem.Item) error {
	i, err := indexOf(k, len(items))
	if err != nil {
		return err
	}
	s.Push(items[i])
	return nil
}

func opAppend(e *Engine, instr Instruction) error {
	s := e.estack()
	v, err := s.Pop()
	if err != nil {
		return err
	}
	it, err := s.Pop()
	if err != nil {
		return err
	}
	if v, err = e.valueCopy(v); err != nil {
		return err
	}
	switch x := it.(type) {
	case *stackitem.Array:
		return x.Append(v)
	case *stackitem.Struct:
		return x.Append(v)
	}
	return errors.WithDetailf(stackitem.ErrInvalidType, "APPEND to %s", it.Type())
}

func opSetItem(e *Engine, instr Instruction) error {
	s := e.estack()
	v, err := s.Pop()
	if err != nil {
		return err
	}
	if v, err = e.valueCopy(v); err != nil {
		return err
	}
	k, err := popKey(s)
	if err != nil {
		return err
	}
	it, err := s.Pop()
	if err != nil {
		return err
	}
	switch x := it.(type) {
	case *stackitem.Map:
		return x.Set(k, v)
	case *stackitem.Array:
		i, err := indexOf(k, x.Len())
		if err != nil {
			return err
		}
		return x.Set(i, v)
	case *stackitem.Struct:
		i, err := indexOf(k, x.Len())
		if err != nil {
			return err
		}
		return x.Set(i, v)
	case *stackitem.Buffer:
		i, err := indexOf(k, x.Len())
		if err != nil {
			return err
		}
		if !v.Type().IsPrimitive() {
			return errors.WithDetailf(stackitem.ErrInvalidType, "%s into Buffer", v.Type())
		}
		b, err := v.Integer()
		if err != nil {
			return err
		}
		if !b.IsInt64() || b.Int64() < math.MinInt8 || b.Int64() > math.MaxUint8 {
			return errors.WithDetailf(ErrOutOfRange, "byte value %s", b)
		}
		buf, _ := x.Bytes()
		buf[i] = byte(b.Int64())
		return nil
	}
	return errors.WithDetailf(stackitem.ErrInvalidType, "SETITEM on %s", it.Type())
}

func opReverseItems(e *Engine, instr Instruction) error {
	it, err := e.Pop()
	if err != nil {
		return err
	}
	switch x := it.(type) {
	case *stackitem.Array:
		x.Reverse()
	case *stackitem.Struct:
		x.Reverse()
	case *stackitem.Buffer:
		b, _ := x.Bytes()
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "REVERSEITEMS on %s", it.Type())
	}
	return nil
}

func opRemove(e *Engine, instr Instruction) error {
	s := e.estack()
	k, err := popKey(s)
	if err != nil {
		return err
	}
	it, err := s.Pop()
	if err != nil {
		return err
	}
	switch x := it.(type) {
	case *stackitem.Map:
		return x.Delete(k)
	case *stackitem.Array:
		i, err := indexOf(k, x.Len())
		if err != nil {
			return err
		}
		return x.Remove(i)
	case *stackitem.Struct:
		i, err := indexOf(k, x.Len())
		if err != nil {
			return err
		}
		return x.Remove(i)
	}
	return errors.WithDetailf(stackitem.ErrInvalidType, "REMOVE from %s", it.Type())
}

func opClearItems(e *Engine, instr Instruction) error {
	it, err := e.Pop()
	if err != nil {
		return err
	}
	switch x := it.(type) {
	case *stackitem.Map:
		x.Clear()
	case *stackitem.Array:
		x.Clear()
	case *stackitem.Struct:
		x.Clear()
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "CLEARITEMS on %s", it.Type())
	}
	return nil
}

func opPopItem(e *Engine, instr Instruction) error {
	s := e.estack()
	it, err := s.Pop()
	if err != nil {
		return err
	}
	type popper interface {
		Len() int
		At(int) (stackitem.Item, error)
		Remove(int) error
	}
	var l popper
	switch x := it.(type) {
	case *stackitem.Array:
		l = x
	case *stackitem.Struct:
		l = x
	default:
		return errors.WithDetailf(stackitem.ErrInvalidType, "POPITEM from %s", it.Type())
	}
	last, err := l.At(l.Len() - 1)
	if err != nil {
		return err
	}
	s.Push(last)
	return l.Remove(l.Len() - 1)
}
