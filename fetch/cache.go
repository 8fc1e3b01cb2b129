package fetch

import (
	"context"
	"sync"
	"time"
)

// Cache stores fetched content by key with a time-to-live.
type Cache interface {
	// Get returns false for missing or expired entries.
	Get(ctx context.Context, key string) (Content, bool, error)
	// Set stores content for ttl. A non-positive ttl never expires.
	Set(ctx context.Context, key string, content Content, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheEntry struct {
	content Content
	expires time.Time
}

// MemoryCache is an in-process Cache. Expired entries are dropped when they
// are next read or overwritten.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache. A nil now means time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: make(map[string]cacheEntry), now: now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Content, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Content{}, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return Content{}, false, nil
	}
	return e.content, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, content Content, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{content: content}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
