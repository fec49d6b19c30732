package stackitem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/errors"
)

func TestRefCounterPrimitives(t *testing.T) {
	rc := NewRefCounter(0)
	items := []Item{Make(1), ByteString("x"), Null{}, True}
	for _, it := range items {
		rc.AddStackRef(it)
	}
	require.Equal(t, 4, rc.CheckZeroReferred())
	for _, it := range items {
		rc.RemoveStackRef(it)
	}
	require.Equal(t, 0, rc.CheckZeroReferred())
}

func TestRefCounterArrayRoundTrip(t *testing.T) {
	rc := NewRefCounter(0)
	a := NewArray(rc)
	rc.AddStackRef(a)
	before := rc.CheckZeroReferred()

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, a.Append(Make(int64(i))))
	}
	require.Equal(t, before+n, rc.CheckZeroReferred())

	for a.Len() > 0 {
		require.NoError(t, a.Remove(a.Len()-1))
	}
	require.Equal(t, before, rc.CheckZeroReferred())

	rc.RemoveStackRef(a)
	require.Equal(t, 0, rc.CheckZeroReferred())
}

func TestRefCounterNested(t *testing.T) {
	rc := NewRefCounter(0)
	outer := NewArray(rc)
	inner := NewArray(rc)
	require.NoError(t, inner.Append(Make(1)))
	require.NoError(t, inner.Append(Make(2)))
	require.NoError(t, outer.Append(inner))
	rc.AddStackRef(outer)

	// outer on stack (1) + inner ref (1) + two integers (2)
	require.Equal(t, 4, rc.CheckZeroReferred())

	rc.RemoveStackRef(outer)
	require.Equal(t, 0, rc.CheckZeroReferred())
}

func TestRefCounterCycle(t *testing.T) {
	rc := NewRefCounter(0)
	a := NewArray(rc)
	b := NewArray(rc)
	require.NoError(t, a.Append(b))
	require.NoError(t, b.Append(a))
	require.NoError(t, a.Append(a))
	rc.AddStackRef(a)
	require.Equal(t, 4, rc.CheckZeroReferred())

	rc.RemoveStackRef(a)
	require.Equal(t, 0, rc.CheckZeroReferred())
}

func TestRefCounterSharedChildSurvives(t *testing.T) {
	rc := NewRefCounter(0)
	parent := NewArray(rc)
	child := NewMap(rc)
	require.NoError(t, child.Set(Make(1), ByteString("v")))
	require.NoError(t, parent.Append(child))
	rc.AddStackRef(parent)
	rc.AddStackRef(child)
	// parent (1) + child on stack (1) + parent->child (1) + key and value (2)
	require.Equal(t, 5, rc.CheckZeroReferred())

	rc.RemoveStackRef(parent)
	// child keeps its entries; parent and its single edge go away
	require.Equal(t, 3, rc.CheckZeroReferred())
}

func TestRefCounterDeepChain(t *testing.T) {
	rc := NewRefCounter(0)
	root := NewArray(rc)
	rc.AddStackRef(root)
	cur := root
	const depth = 100000
	for i := 0; i < depth; i++ {
		next := NewArray(rc)
		require.NoError(t, cur.Append(next))
		cur = next
	}
	require.Equal(t, depth+1, rc.CheckZeroReferred())
	rc.RemoveStackRef(root)
	require.Equal(t, 0, rc.CheckZeroReferred())
}

func TestRefCounterLimitNoPartialCommit(t *testing.T) {
	const limit = 8
	rc := NewRefCounter(limit)
	a := NewArray(rc)
	rc.AddStackRef(a)
	for rc.Count() < limit {
		require.NoError(t, a.Append(Make(0)))
	}
	n := a.Len()
	err := a.Append(Make(0))
	if errors.Root(err) != ErrReferenceLimit {
		t.Fatalf("Append at limit: got err = %v want %v", err, ErrReferenceLimit)
	}
	require.Equal(t, n, a.Len())
	require.Equal(t, limit, rc.Count())

	m := NewMap(rc)
	err = m.Set(Make(1), Make(2))
	require.Equal(t, ErrReferenceLimit, errors.Root(err))
	require.Equal(t, 0, m.Len())
}

func TestRefCounterReserveCollectsGarbage(t *testing.T) {
	rc := NewRefCounter(4)
	garbage := NewArray(rc)
	rc.AddStackRef(garbage)
	require.NoError(t, garbage.Append(Make(1)))
	require.NoError(t, garbage.Append(Make(2)))
	rc.RemoveStackRef(garbage)

	live := NewArray(rc)
	rc.AddStackRef(live)
	for i := 0; i < 3; i++ {
		require.NoError(t, live.Append(Make(int64(i))))
	}
	require.Equal(t, 4, rc.CheckZeroReferred())
}

func TestRefCounterAdoptsHostItems(t *testing.T) {
	inner, err := NewArrayFrom(nil, []Item{Make(1), Make(2)})
	require.NoError(t, err)
	outer, err := NewArrayFrom(nil, []Item{inner, ByteString("z")})
	require.NoError(t, err)

	rc := NewRefCounter(0)
	rc.AddStackRef(outer)
	require.Equal(t, 5, rc.CheckZeroReferred())

	require.NoError(t, inner.Append(Make(3)))
	require.Equal(t, 6, rc.CheckZeroReferred())

	rc.RemoveStackRef(outer)
	require.Equal(t, 0, rc.CheckZeroReferred())
}
