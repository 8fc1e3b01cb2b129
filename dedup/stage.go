package dedup

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
)

// KeyFunc derives the dedup key of an item.
type KeyFunc[T any] func(T) string

// Option configures a Stage.
type Option func(*options)

type options struct {
	name string
	log  *logger.Logger
}

// WithName sets the stage name used in logs and store errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the stage logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) options {
	o := options{name: "dedup"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("dedup")
	}
	return o
}

// Stage drops items whose key is already in the store.
type Stage[T any] struct {
	store      Store
	key        KeyFunc[T]
	name       string
	log        *logger.Logger
	duplicates atomic.Int64
}

// NewStage creates a dedup stage over store.
func NewStage[T any](store Store, key KeyFunc[T], opts ...Option) *Stage[T] {
	o := newOptions(opts)
	return &Stage[T]{
		store: store,
		key:   key,
		name:  o.name,
		log:   o.log.WithFields(logger.Fields(logger.FieldStage, o.name)),
	}
}

// Process yields item unless its key was seen before. New keys are saved
// before the item is yielded.
func (s *Stage[T]) Process(ctx context.Context, item T) (pipeline.Iterator[T], error) {
	key := s.key(item)
	if key == "" {
		return nil, errors.InvalidInput("key", "dedup key is empty")
	}

	seen, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, storeError(s.name, "exists", err)
	}
	if seen {
		s.duplicates.Add(1)
		s.log.Debug("duplicate skipped", logger.Fields(logger.FieldItemKey, key))
		return pipeline.Empty[T](), nil
	}

	if err := s.store.Save(ctx, key); err != nil {
		return nil, storeError(s.name, "save", err)
	}
	return pipeline.Single(item), nil
}

// DuplicateCount returns how many items were dropped since creation or the
// last Reset.
func (s *Stage[T]) DuplicateCount() int64 {
	return s.duplicates.Load()
}

// Reset zeroes the duplicate counter and clears the store when it supports it.
func (s *Stage[T]) Reset(ctx context.Context) error {
	s.duplicates.Store(0)
	if r, ok := s.store.(Resettable); ok {
		if err := r.Reset(ctx); err != nil {
			return storeError(s.name, "reset", err)
		}
	}
	return nil
}

func storeError(name, op string, err error) error {
	if errors.IsCode(err, errors.ErrCodeStore) {
		return err
	}
	return errors.StoreError(name, op, err)
}
