// Package cache provides a thread-safe LRU cache for compiled queries.
//
// A Session uses it when the WithCaching option is enabled, so that asking
// the same question twice skips parsing and compilation. Compiled code is
// immutable and can be shared by any number of machines.
//
// # Example
//
//	c := cache.New(128)
//	q, err := c.GetOrCompile("append(X, Y, [1,2]).", compile)
package cache

import (
	"container/list"
	"sync"

	"github.com/jldupont/goprolog/pkg/types"
)

// DefaultCapacity is used when New gets a non-positive capacity.
const DefaultCapacity = 256

type entry struct {
	key    string
	clause *types.Clause
}

// Cache is an LRU cache of compiled clauses keyed by source text.
// Once full, the least recently used entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	hits, misses int
}

// New creates a cache holding at most capacity clauses.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the clause cached under key and marks it most recently used.
func (c *Cache) Get(key string) (*types.Clause, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.ll.MoveToFront(el)
	return el.Value.(*entry).clause, true
}

// Set inserts or replaces the clause under key.
func (c *Cache) Set(key string, clause *types.Clause) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).clause = clause
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, clause: clause})
}

// GetOrCompile returns the cached clause for key, or compiles, caches and
// returns it. Errors are not cached.
func (c *Cache) GetOrCompile(key string, compile func() (*types.Clause, error)) (*types.Clause, error) {
	if clause, ok := c.Get(key); ok {
		return clause, nil
	}
	clause, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, clause)
	return clause, nil
}

// Len returns the number of cached clauses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit and miss counts of Get.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked drops the least recently used entry; c.mu must be held.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
