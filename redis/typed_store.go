package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kbukum/ingestkit/errors"
)

// TypedStore provides typed JSON-serialized get/set operations on Redis.
type TypedStore[C any] struct {
	client    *Client
	keyPrefix string
}

// NewTypedStore creates a TypedStore whose keys live under
// <KeyPrefix>:<namespace>.
func NewTypedStore[C any](client *Client, namespace string) *TypedStore[C] {
	return &TypedStore[C]{
		client:    client,
		keyPrefix: client.key(namespace),
	}
}

func (s *TypedStore[C]) fullKey(key string) string {
	return s.keyPrefix + ":" + key
}

// Load deserializes JSON from Redis. Returns (nil, nil) if key doesn't exist.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, ok, err := s.client.get(ctx, s.fullKey(key))
	if err != nil {
		return nil, errors.StoreError(storeName, "load", err).WithDetail("key", key)
	}
	if !ok {
		return nil, nil
	}

	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, errors.StoreError(storeName, "decode", err).WithDetail("key", key)
	}
	return &val, nil
}

// Save serializes to JSON and stores with TTL. TTL of 0 means no expiration.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.StoreError(storeName, "encode", err).WithDetail("key", key)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.rdb.Set(ctx, s.fullKey(key), data, ttl).Err(); err != nil {
		return errors.StoreError(storeName, "save", err).WithDetail("key", key)
	}
	return nil
}

// Delete removes the key.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return errors.StoreError(storeName, "delete", err).WithDetail("key", key)
	}
	return nil
}

// Clear removes every key of this store.
func (s *TypedStore[C]) Clear(ctx context.Context) error {
	if _, err := s.client.deletePattern(ctx, globEscape(s.keyPrefix)+":*"); err != nil {
		return errors.StoreError(storeName, "clear", err)
	}
	return nil
}
