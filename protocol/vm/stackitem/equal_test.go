package stackitem

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/errors"
)

func TestEqual(t *testing.T) {
	buf := NewBufferBytes([]byte{1})
	arr := NewArray(nil)
	script := &fakeScript{n: 10}
	cases := []struct {
		a, b Item
		want bool
	}{
		{Null{}, Null{}, true},
		{Null{}, False, false},
		{True, True, true},
		{True, Make(1), false},
		{Make(5), Make(5), true},
		{Make(5), ByteString{5}, false},
		{ByteString("abc"), ByteString("abc"), true},
		{ByteString("abc"), ByteString("abd"), false},
		{buf, buf, true},
		{buf, NewBufferBytes([]byte{1}), false},
		{arr, arr, true},
		{arr, NewArray(nil), false},
		{NewPointer(script, 1), NewPointer(script, 1), true},
		{NewPointer(script, 1), NewPointer(script, 2), false},
		{NewPointer(script, 1), NewPointer(&fakeScript{n: 10}, 1), false},
		{NewInterop(7), NewInterop(7), true},
		{NewInterop([]int{1}), NewInterop([]int{1}), false},
	}
	for i, c := range cases {
		got, err := Equal(c.a, c.b)
		if err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if got != c.want {
			t.Errorf("case %d: Equal(%s, %s) = %v want %v", i, c.a, c.b, got, c.want)
		}
	}
}

func TestStructEqual(t *testing.T) {
	mk := func(items ...Item) *Struct {
		s, err := NewStructFrom(nil, items)
		require.NoError(t, err)
		return s
	}
	a := mk(Make(1), mk(ByteString("x"), Null{}))
	b := mk(Make(1), mk(ByteString("x"), Null{}))
	c := mk(Make(1), mk(ByteString("y"), Null{}))

	eq, err := Equal(a, b)
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = Equal(a, c)
	require.NoError(t, err)
	require.False(t, eq)

	eq, err = Equal(a, mk(Make(1)))
	require.NoError(t, err)
	require.False(t, eq)
}

func TestStructEqualDepthBound(t *testing.T) {
	build := func() *Struct {
		root := NewStruct(nil)
		cur := root
		for i := 0; i < MaxCompareDepth+1; i++ {
			next := NewStruct(nil)
			require.NoError(t, cur.Append(next))
			cur = next
		}
		return root
	}
	_, err := Equal(build(), build())
	if errors.Root(err) != ErrCircularReference {
		t.Fatalf("got err = %v want %v", err, ErrCircularReference)
	}
}

func TestStructEqualItemBound(t *testing.T) {
	items := make([]Item, MaxCompareItems)
	for i := range items {
		items[i] = Make(int64(i))
	}
	a, err := NewStructFrom(nil, items)
	require.NoError(t, err)
	b, err := NewStructFrom(nil, items)
	require.NoError(t, err)
	_, err = Equal(a, b)
	require.Equal(t, ErrTooBig, errors.Root(err))
}

func TestByteStringComparableSize(t *testing.T) {
	big1 := ByteString(bytes.Repeat([]byte{1}, MaxComparableSize+1))
	big2 := ByteString(bytes.Repeat([]byte{1}, MaxComparableSize+1))
	_, err := Equal(big1, big2)
	require.Equal(t, ErrTooBig, errors.Root(err))

	eq, err := Equal(big1[:MaxComparableSize], big2[:MaxComparableSize])
	require.NoError(t, err)
	require.True(t, eq)
}

func TestStructClone(t *testing.T) {
	rc := NewRefCounter(0)
	inner, err := NewStructFrom(rc, []Item{Make(1)})
	require.NoError(t, err)
	shared := NewArray(rc)
	orig, err := NewStructFrom(rc, []Item{inner, shared, ByteString("s")})
	require.NoError(t, err)

	clone, err := orig.Clone(2048)
	require.NoError(t, err)
	eq, err := Equal(orig, clone)
	require.NoError(t, err)
	if !eq {
		t.Fatalf("clone differs:\n%s", spew.Sdump(orig, clone))
	}
	if clone.Items()[0] == Item(inner) {
		t.Error("nested struct was not copied")
	}
	if clone.Items()[1] != Item(shared) {
		t.Error("nested array was copied, want shared")
	}

	require.NoError(t, inner.Set(0, Make(2)))
	eq, err = Equal(orig, clone)
	require.NoError(t, err)
	require.False(t, eq)

	_, err = orig.Clone(3)
	require.Equal(t, ErrTooBig, errors.Root(err))
}

type fakeScript struct{ n int }

func (s *fakeScript) Len() int { return s.n }
