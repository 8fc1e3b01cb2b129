package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/resilience"
	"github.com/kbukum/ingestkit/workflow"
)

// KeyField is the document field items are upserted by.
const KeyField = "normalized_url"

// Sink is a workflow.Consumer that upserts each item into a collection.
// Items are BSON-encoded; the document keeps first_seen from its first
// insert and counts how often it was seen.
type Sink[T any] struct {
	coll  Collection
	key   func(T) string
	clock resilience.Clock
	log   *logger.Logger

	written int64
}

var _ workflow.Consumer[struct{}] = (*Sink[struct{}])(nil)

// SinkOption configures a Sink.
type SinkOption func(*sinkOptions)

type sinkOptions struct {
	clock resilience.Clock
	log   *logger.Logger
}

// WithClock sets the clock used for first_seen and last_seen.
func WithClock(c resilience.Clock) SinkOption {
	return func(o *sinkOptions) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) SinkOption {
	return func(o *sinkOptions) { o.log = l }
}

// NewSink creates a Sink writing to coll, keyed by key(item).
func NewSink[T any](coll Collection, key func(T) string, opts ...SinkOption) *Sink[T] {
	o := sinkOptions{clock: resilience.SystemClock(), log: logger.Get(storeName)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sink[T]{coll: coll, key: key, clock: o.clock, log: o.log}
}

// OnStart resets the write counter.
func (s *Sink[T]) OnStart(context.Context) error {
	s.written = 0
	return nil
}

// Consume upserts item.
func (s *Sink[T]) Consume(ctx context.Context, item T) error {
	key := s.key(item)
	if key == "" {
		return errors.InvalidInput(KeyField, "empty key")
	}

	data, err := bson.Marshal(item)
	if err != nil {
		return errors.ItemError(err)
	}
	var fields bson.M
	if err := bson.Unmarshal(data, &fields); err != nil {
		return errors.ItemError(err)
	}
	delete(fields, "_id")
	delete(fields, "seen_count")
	delete(fields, "first_seen")

	now := s.clock.Now()
	fields[KeyField] = key
	fields["last_seen"] = now
	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"first_seen": now},
		"$inc":         bson.M{"seen_count": 1},
	}

	if _, err := s.coll.UpdateOne(ctx, bson.M{KeyField: key}, update, options.Update().SetUpsert(true)); err != nil {
		return errors.StoreError(storeName, "upsert", err)
	}
	s.written++
	return nil
}

// OnComplete logs how many documents were written.
func (s *Sink[T]) OnComplete(context.Context) error {
	s.log.Info("documents written", logger.Fields("count", s.written))
	return nil
}

// Written returns the number of documents written since OnStart.
func (s *Sink[T]) Written() int64 { return s.written }
