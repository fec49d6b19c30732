package stackitem

import (
	"bytes"

	"github.com/neo-project/neo-sub032/errors"
)

// Equal reports whether a and b are equal under VM rules.
//
// Null, Boolean, Integer and ByteString compare by value and only
// match items of the same variant. Buffer, Array, Map and Interop
// compare by reference. Pointers match when they address the same
// position of the same script. Structs compare element-wise.
//
// A single call examines at most MaxComparableSize bytes and
// MaxCompareItems Struct elements; exceeding either fails with
// ErrTooBig. Struct nesting deeper than MaxCompareDepth fails with
// ErrCircularReference.
func Equal(a, b Item) (bool, error) {
	budget := MaxComparableSize
	if sa, ok := a.(*Struct); ok {
		return structEqual(sa, b, &budget)
	}
	return shallowEqual(a, b, &budget)
}

func shallowEqual(a, b Item, budget *int) (bool, error) {
	switch x := a.(type) {
	case ByteString:
		return byteStringEqual(x, b, budget)
	case Null:
		_, ok := b.(Null)
		return ok, nil
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y, nil
	case Integer:
		y, ok := b.(Integer)
		return ok && x.value.Cmp(y.value) == 0, nil
	case Pointer:
		y, ok := b.(Pointer)
		return ok && x.script == y.script && x.pos == y.pos, nil
	case *Interop:
		y, ok := b.(*Interop)
		return ok && x.same(y), nil
	}
	return a == b, nil
}

func byteStringEqual(a ByteString, b Item, budget *int) (bool, error) {
	y, ok := b.(ByteString)
	cost := 1
	if ok {
		cost = max(len(a), len(y), 1)
	}
	if cost > *budget {
		*budget = 0
		return false, errors.WithDetailf(ErrTooBig, "comparing %d bytes", cost)
	}
	*budget -= cost
	if !ok || len(a) != len(y) {
		return false, nil
	}
	return bytes.Equal(a, y), nil
}

type comparePair struct {
	a, b  Item
	depth int
}

func structEqual(a *Struct, b Item, budget *int) (bool, error) {
	items := MaxCompareItems
	work := []comparePair{{a: a, b: b, depth: 1}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		if items == 0 {
			return false, errors.WithDetail(ErrTooBig, "too many struct items to compare")
		}
		items--

		sa, ok := p.a.(*Struct)
		if !ok {
			eq, err := shallowEqual(p.a, p.b, budget)
			if err != nil || !eq {
				return false, err
			}
			continue
		}
		if *budget == 0 {
			return false, errors.WithDetail(ErrTooBig, "comparable size exhausted")
		}
		*budget--
		if p.a == p.b {
			continue
		}
		sb, ok := p.b.(*Struct)
		if !ok || len(sa.items) != len(sb.items) {
			return false, nil
		}
		if p.depth >= MaxCompareDepth {
			return false, errors.WithDetailf(ErrCircularReference, "struct nesting over %d", MaxCompareDepth)
		}
		for i := len(sa.items) - 1; i >= 0; i-- {
			work = append(work, comparePair{a: sa.items[i], b: sb.items[i], depth: p.depth + 1})
		}
	}
	return true, nil
}
