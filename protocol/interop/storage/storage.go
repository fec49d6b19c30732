// Package storage defines the key-value store reached by the
// System.Storage interop services.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/neo-project/neo-sub032/errors"
)

const (
	MaxKeySize   = 64
	MaxValueSize = 65535
)

var (
	ErrKeyTooLarge   = errors.New("storage key too large")
	ErrValueTooLarge = errors.New("storage value too large")
	ErrReadOnly      = errors.New("storage is read-only")
)

// Store is a key-value store. Get reports whether key is present.
type Store interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
}

// CheckPut validates the sizes of an entry about to be stored.
func CheckPut(key, value []byte) error {
	if len(key) > MaxKeySize {
		return errors.WithDetailf(ErrKeyTooLarge, "%d bytes, max %d", len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return errors.WithDetailf(ErrValueTooLarge, "%d bytes, max %d", len(value), MaxValueSize)
	}
	return nil
}

// MemStore satisfies the Store interface.
// It keeps all entries in memory.
type MemStore struct {
	mu       sync.Mutex
	entries  map[string][]byte
	readOnly bool
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

// ReadOnly returns a read-only view sharing the entries of m.
func (m *MemStore) ReadOnly() *MemStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &MemStore{entries: m.entries, readOnly: true}
}

// Get returns the value stored under key and whether it exists.
func (m *MemStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

// Put stores value under key, replacing any previous value.
func (m *MemStore) Put(ctx context.Context, key, value []byte) error {
	if err := CheckPut(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	m.entries[string(key)] = append([]byte{}, value...)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemStore) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	delete(m.entries, string(key))
	return nil
}

// Keys returns the stored keys in ascending order.
func (m *MemStore) Keys() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}
