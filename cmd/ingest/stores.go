package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/kbukum/ingestkit/badger"
	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/fetch"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/redis"
)

// stores hands out per-source dedup and cursor stores and the fetch cache.
type stores interface {
	Dedup(namespace string) dedup.Store
	Cursor(name string) cursor.Store
	Cache() fetch.Cache
	Close() error
}

func openStores(ctx context.Context, cfg *AppConfig, log *logger.Logger) (stores, error) {
	var s stores
	switch cfg.Storage.Backend {
	case "badger":
		db, err := badger.Open(cfg.Badger)
		if err != nil {
			return nil, err
		}
		s = &badgerStores{db: db}
	case "redis":
		client, err := redis.New(cfg.Redis, log.WithComponent("redis"))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		s = &redisStores{client: client, ttl: cfg.Storage.SeenTTL}
	default:
		s = newMemoryStores()
	}

	if cfg.Storage.CursorBucket == "" {
		return s, nil
	}
	bucket, err := blob.OpenBucket(ctx, cfg.Storage.CursorBucket)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open cursor bucket: %w", err)
	}
	return &blobCursors{stores: s, bucket: bucket}, nil
}

type badgerStores struct {
	db *badger.DB
}

func (s *badgerStores) Dedup(ns string) dedup.Store { return badger.NewDedupStore(s.db, ns) }
func (s *badgerStores) Cursor(name string) cursor.Store { return badger.NewCursorStore(s.db, name) }
func (s *badgerStores) Cache() fetch.Cache { return fetch.NewMemoryCache(nil) }
func (s *badgerStores) Close() error { return s.db.Close() }

type redisStores struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStores) Dedup(ns string) dedup.Store {
	return redis.NewDedupStore(s.client, ns, s.ttl)
}

func (s *redisStores) Cursor(name string) cursor.Store { return redis.NewCursorStore(s.client, name) }
func (s *redisStores) Cache() fetch.Cache { return redis.NewCache(s.client, "pages") }
func (s *redisStores) Close() error { return s.client.Close() }

type memoryStores struct {
	mu      sync.Mutex
	dedup   map[string]*dedup.MemoryStore
	cursors map[string]*cursor.MemoryStore
}

func newMemoryStores() *memoryStores {
	return &memoryStores{
		dedup:   make(map[string]*dedup.MemoryStore),
		cursors: make(map[string]*cursor.MemoryStore),
	}
}

func (s *memoryStores) Dedup(ns string) dedup.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dedup[ns]; !ok {
		s.dedup[ns] = dedup.NewMemoryStore()
	}
	return s.dedup[ns]
}

func (s *memoryStores) Cursor(name string) cursor.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cursors[name]; !ok {
		s.cursors[name] = cursor.NewMemoryStore()
	}
	return s.cursors[name]
}

func (s *memoryStores) Cache() fetch.Cache { return fetch.NewMemoryCache(nil) }
func (s *memoryStores) Close() error { return nil }

// blobCursors keeps cursors in a bucket and everything else in stores.
type blobCursors struct {
	stores
	bucket *blob.Bucket
}

func (s *blobCursors) Cursor(name string) cursor.Store {
	return cursor.NewBlobStore(s.bucket, "cursors/"+name)
}

func (s *blobCursors) Close() error {
	err := s.bucket.Close()
	if cerr := s.stores.Close(); err == nil {
		err = cerr
	}
	return err
}
