package dedup

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
)

// Guard runs an inner stage only for inputs whose key is not yet in the
// store. Unlike Stage, the key is saved after the inner outputs have been
// pulled to the end without error, so an input whose processing fails, or
// whose outputs are abandoned, is processed again later.
type Guard[I, O any] struct {
	store      Store
	key        KeyFunc[I]
	inner      pipeline.Stage[I, O]
	name       string
	log        *logger.Logger
	duplicates atomic.Int64
}

// NewGuard wraps inner so that each key is processed to completion once.
func NewGuard[I, O any](store Store, key KeyFunc[I], inner pipeline.Stage[I, O], opts ...Option) *Guard[I, O] {
	o := newOptions(opts)
	return &Guard[I, O]{
		store: store,
		key:   key,
		inner: inner,
		name:  o.name,
		log:   o.log.WithFields(logger.Fields(logger.FieldStage, o.name)),
	}
}

// Process skips in when its key was seen and otherwise runs the inner stage.
func (g *Guard[I, O]) Process(ctx context.Context, in I) (pipeline.Iterator[O], error) {
	key := g.key(in)
	if key == "" {
		return nil, errors.InvalidInput("key", "dedup key is empty")
	}
	seen, err := g.store.Exists(ctx, key)
	if err != nil {
		return nil, storeError(g.name, "exists", err)
	}
	if seen {
		g.duplicates.Add(1)
		g.log.Debug("duplicate skipped", logger.Fields(logger.FieldItemKey, key))
		return pipeline.Empty[O](), nil
	}

	out, err := g.inner.Process(ctx, in)
	if err != nil {
		return nil, err
	}
	return &guardIter[O]{source: out, commit: func(ctx context.Context) error {
		if err := g.store.Save(ctx, key); err != nil {
			return storeError(g.name, "save", err)
		}
		return nil
	}}, nil
}

// DuplicateCount returns how many inputs were skipped.
func (g *Guard[I, O]) DuplicateCount() int64 {
	return g.duplicates.Load()
}

type guardIter[O any] struct {
	source pipeline.Iterator[O]
	commit func(context.Context) error
	done   bool
}

func (it *guardIter[O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	if it.done {
		return zero, false, nil
	}
	v, ok, err := it.source.Next(ctx)
	if err != nil {
		it.done = true
		return zero, false, err
	}
	if ok {
		return v, true, nil
	}
	it.done = true
	return zero, false, it.commit(ctx)
}

func (it *guardIter[O]) Close() error { return it.source.Close() }
