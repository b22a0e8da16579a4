package store

import "sync"

// Cache memoizes loaded entities by id so repeated loads return the same
// instance. Populated on first read, invalidated on every write-through,
// cleared only when the process exits. The design assumes a single logical
// session; the mutex only guards against accidental cross-goroutine use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[int64]*T
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[int64]*T)}
}

// Get returns the cached instance for id, if any.
func (c *Cache[T]) Get(id int64) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[id]
	return v, ok
}

// Put inserts or overwrites the entry for id.
func (c *Cache[T]) Put(id int64, v *T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = v
}

// Invalidate removes the entry for id so the next Get forces a fresh load.
func (c *Cache[T]) Invalidate(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
