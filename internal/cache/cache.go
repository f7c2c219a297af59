// Package cache provides the per-translation-unit AST node cache used by
// the constraint extractor to resolve a declaration to its mangled-name
// hash without re-walking the AST. Each extraction worker owns one cache;
// nothing here is shared across translation units.
package cache

import (
	"sync"
	"sync/atomic"
)

// NodeCache maps an AST node identity to the mangled-name hash computed
// for it, with insert/at/contain/clear semantics over a sync.Map plus
// atomic hit/miss counters.
type NodeCache struct {
	entries sync.Map // node id -> uint64 mangled name hash
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns an empty NodeCache, scoped to a single extraction worker.
func New() *NodeCache {
	return &NodeCache{}
}

// Insert records the mangled-name hash for a node id. It reports false if
// the id was already present; an existing entry is never overwritten.
func (c *NodeCache) Insert(nodeID uint64, hash uint64) bool {
	_, loaded := c.entries.LoadOrStore(nodeID, hash)
	return !loaded
}

// At returns the mangled-name hash stored for nodeID, or 0 if absent.
func (c *NodeCache) At(nodeID uint64) uint64 {
	v, ok := c.entries.Load(nodeID)
	if !ok {
		c.misses.Add(1)
		return 0
	}
	c.hits.Add(1)
	return v.(uint64)
}

// Contain reports whether nodeID has a cached hash.
func (c *NodeCache) Contain(nodeID uint64) bool {
	_, ok := c.entries.Load(nodeID)
	return ok
}

// Clear drops every cached entry.
func (c *NodeCache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Stats reports cumulative hit/miss counters for diagnostics.
func (c *NodeCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
