package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/testutil"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if _, ok, err := m.Get(ctx, []byte("a")); ok || err != nil {
		t.Fatalf("Get(a) on empty store = %v, %v", ok, err)
	}
	if err := m.Put(ctx, []byte("b"), []byte{2}); err != nil {
		t.Fatal(err)
	}
	if err := m.Put(ctx, []byte("a"), []byte{1}); err != nil {
		t.Fatal(err)
	}
	v, ok, err := m.Get(ctx, []byte("a"))
	if err != nil || !ok || !bytes.Equal(v, []byte{1}) {
		t.Errorf("Get(a) = %x, %v, %v want 01", v, ok, err)
	}

	// returned values are copies
	v[0] = 9
	v, _, _ = m.Get(ctx, []byte("a"))
	if v[0] != 1 {
		t.Errorf("stored value changed through returned slice")
	}

	keys := m.Keys()
	if len(keys) != 2 || string(keys[0]) != "a" || string(keys[1]) != "b" {
		t.Errorf("Keys() = %q want [a b]", keys)
	}

	if err := m.Delete(ctx, []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get(ctx, []byte("a")); ok {
		t.Errorf("a still present after Delete")
	}
}

func TestMemStoreLimits(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	cases := []struct {
		key, value []byte
		wantErr    error
	}{
		{make([]byte, MaxKeySize), nil, nil},
		{make([]byte, MaxKeySize+1), nil, ErrKeyTooLarge},
		{[]byte("k"), make([]byte, MaxValueSize), nil},
		{[]byte("k"), make([]byte, MaxValueSize+1), ErrValueTooLarge},
	}
	for i, c := range cases {
		err := m.Put(ctx, c.key, c.value)
		if errors.Root(err) != c.wantErr {
			t.Errorf("case %d: got error %v want %v", i, err, c.wantErr)
		}
	}

	ro := m.ReadOnly()
	if _, ok, _ := ro.Get(ctx, []byte("k")); !ok {
		t.Errorf("read-only view does not see k")
	}
	testutil.ExpectError(t, ErrReadOnly, "Put on read-only view", func() error {
		return ro.Put(ctx, []byte("x"), nil)
	})
	testutil.ExpectError(t, ErrReadOnly, "Delete on read-only view", func() error {
		return ro.Delete(ctx, []byte("k"))
	})
}
