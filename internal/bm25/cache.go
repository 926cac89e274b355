package bm25

import "sync"

type cacheKey struct {
	basePath   string
	provider   string
	dimensions int
}

// Cache lazily builds and memoizes one Index per (base path, provider,
// dimensions) triple, per §4.11 and §9's process-wide caching contract.
// Writes are serialized under a single mutex; a returned *Index is safe for
// concurrent read-only Query calls without holding the Cache's lock.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Index
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Index)}
}

// Get returns the cached Index for the given key, building it with build if
// absent. Concurrent callers racing to build the same key converge on
// whichever build finishes and is stored first.
func (c *Cache) Get(basePath, provider string, dimensions int, build func() ([]Document, error)) (*Index, error) {
	key := cacheKey{basePath: basePath, provider: provider, dimensions: dimensions}

	c.mu.Lock()
	if idx, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	docs, err := build()
	if err != nil {
		return nil, err
	}
	idx := BuildFromDocuments(docs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	c.entries[key] = idx
	return idx, nil
}

// Invalidate drops every cached Index for basePath, across all
// provider/dimensions pairs — the Indexer Orchestrator calls this after any
// DB mutation.
func (c *Cache) Invalidate(basePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.basePath == basePath {
			delete(c.entries, key)
		}
	}
}

// InvalidateAll drops every cached Index, used when the working base path
// itself changes.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*Index)
}
