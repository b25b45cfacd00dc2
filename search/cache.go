package search

import (
	"fmt"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// Fingerprint computes a stable hash over the tuple that determines a
// search's cache identity.
func Fingerprint(query, kbFilter, typeFilter string, excludeTests bool, maxResults int) string {
	key := fmt.Sprintf("%s\x00%s\x00%s\x00%t\x00%d", query, kbFilter, typeFilter, excludeTests, maxResults)
	sum := xxh3.HashString(key)
	return fmt.Sprintf("%016x", sum)
}

type cacheEntry struct {
	Results   []Result
	Total     int
	createdAt time.Time
}

// Cache is the process-local, TTL-evicted result cache. Entries expire
// lazily on read; ClearCache drops everything, for callers that mutate the
// store out from under a live cache.
type Cache struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, items: make(map[string]cacheEntry)}
}

func (c *Cache) Get(fingerprint string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[fingerprint]
	if !ok {
		return cacheEntry{}, false
	}
	if time.Since(e.createdAt) > c.ttl {
		delete(c.items, fingerprint)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *Cache) Put(fingerprint string, e cacheEntry) {
	e.createdAt = time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[fingerprint] = e
}

// ClearCache drops every cached entry.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheEntry)
}
