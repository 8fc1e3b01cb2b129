package redis

import (
	"context"
	"time"

	"github.com/kbukum/ingestkit/fetch"
)

// Cache is a fetch.Cache shared across processes. Expiry is left to Redis.
type Cache struct {
	store *TypedStore[fetch.Content]
}

var _ fetch.Cache = (*Cache)(nil)

// NewCache creates a content cache named name.
func NewCache(client *Client, name string) *Cache {
	return &Cache{store: NewTypedStore[fetch.Content](client, "cache:"+name)}
}

func (c *Cache) Get(ctx context.Context, key string) (fetch.Content, bool, error) {
	content, err := c.store.Load(ctx, key)
	if err != nil || content == nil {
		return fetch.Content{}, false, err
	}
	return *content, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, content fetch.Content, ttl time.Duration) error {
	return c.store.Save(ctx, key, &content, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear drops every cached entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
