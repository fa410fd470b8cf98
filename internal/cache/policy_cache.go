package cache

import "sync"

// PolicyCache is a small concurrency-safe map used on the availability read
// path to memoize per-date calendar policy lookups within a process.
type PolicyCache[V any] struct {
	mu    sync.RWMutex
	store map[string]V
}

func NewPolicyCache[V any]() *PolicyCache[V] {
	return &PolicyCache[V]{
		store: make(map[string]V),
	}
}

func (c *PolicyCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.store[key]
	return val, ok
}

func (c *PolicyCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

func (c *PolicyCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}
