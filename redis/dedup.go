package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/errors"
)

// DedupStore is a dedup.Store shared by every process using the same Redis.
// Each seen key is its own Redis key so it can expire individually.
type DedupStore struct {
	client *Client
	prefix string
	ttl    time.Duration
}

var (
	_ dedup.Store      = (*DedupStore)(nil)
	_ dedup.Resettable = (*DedupStore)(nil)
)

// NewDedupStore creates the seen-set namespace. A ttl of zero keeps keys
// forever.
func NewDedupStore(client *Client, namespace string, ttl time.Duration) *DedupStore {
	ns := strconv.Itoa(len(namespace)) + ":" + namespace
	return &DedupStore{client: client, prefix: client.key("dedup", ns), ttl: ttl}
}

func (s *DedupStore) pattern() string { return globEscape(s.prefix) + ":*" }

func (s *DedupStore) key(k string) string { return s.prefix + ":" + k }

func (s *DedupStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.rdb.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, errors.StoreError(storeName, "exists", err)
	}
	return n > 0, nil
}

// Save marks key as seen. An existing key keeps its first-seen time and TTL.
func (s *DedupStore) Save(ctx context.Context, key string) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.client.rdb.SetNX(ctx, s.key(key), now, s.ttl).Err(); err != nil {
		return errors.StoreError(storeName, "save", err)
	}
	return nil
}

// Reset forgets every key of this namespace.
func (s *DedupStore) Reset(ctx context.Context) error {
	if _, err := s.client.deletePattern(ctx, s.pattern()); err != nil {
		return errors.StoreError(storeName, "reset", err)
	}
	return nil
}

// Len returns the number of seen keys.
func (s *DedupStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.countPattern(ctx, s.pattern())
	if err != nil {
		return 0, errors.StoreError(storeName, "count", err)
	}
	return n, nil
}
