package vm

import (
	"crypto/sha256"
	"sync"

	"github.com/golang/groupcache/lru"
)

// DefaultScriptCacheSize is the number of scripts kept by
// NewScriptCache(0).
const DefaultScriptCacheSize = 1000

// ScriptCache keeps recently loaded scripts so their decoded
// instruction tables are reused across engines. It is safe
// for concurrent use.
type ScriptCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewScriptCache returns a cache holding up to size scripts.
func NewScriptCache(size int) *ScriptCache {
	if size <= 0 {
		size = DefaultScriptCacheSize
	}
	return &ScriptCache{lru: lru.New(size)}
}

// Get returns the cached Script for prog, creating it on a miss.
func (c *ScriptCache) Get(prog []byte) *Script {
	key := sha256.Sum256(prog)
	c.mu.Lock()
	v, ok := c.lru.Get(key)
	c.mu.Unlock()
	if ok {
		if s := v.(*Script); string(s.prog) == string(prog) {
			return s
		}
	}
	s := NewScript(prog)
	c.mu.Lock()
	c.lru.Add(key, s)
	c.mu.Unlock()
	return s
}

// Len returns the number of cached scripts.
func (c *ScriptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
