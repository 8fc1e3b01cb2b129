package workflow

import (
	"context"
	"iter"
	"time"

	"github.com/kbukum/ingestkit/pipeline"
)

// ProduceConfig bounds what a Producer reads.
type ProduceConfig struct {
	// Filter is a source-specific selector. Empty means everything.
	Filter string
	// Since, when set, limits the read to items newer than it.
	Since *time.Time
	// Limit caps the number of items. Zero means no limit.
	Limit int
}

// Producer is the read boundary of a source.
//
// Produce returns a lazy, finite sequence. An error from Produce means the
// source could not be reached at all; an error from the iterator's Next
// means the read broke off after the items already yielded.
type Producer[T any] interface {
	Produce(ctx context.Context, cfg ProduceConfig) (pipeline.Iterator[T], error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc[T any] func(ctx context.Context, cfg ProduceConfig) (pipeline.Iterator[T], error)

// Produce calls f(ctx, cfg).
func (f ProducerFunc[T]) Produce(ctx context.Context, cfg ProduceConfig) (pipeline.Iterator[T], error) {
	return f(ctx, cfg)
}

// SliceProducer yields a fixed list of items, honoring Limit.
type SliceProducer[T any] []T

// Produce returns an iterator over the slice.
func (p SliceProducer[T]) Produce(_ context.Context, cfg ProduceConfig) (pipeline.Iterator[T], error) {
	items := []T(p)
	if cfg.Limit > 0 && cfg.Limit < len(items) {
		items = items[:cfg.Limit]
	}
	return pipeline.Of(items...), nil
}

// SeqProducer adapts a generator of (item, error) pairs. The generator is
// started per Produce call; the first error ends the read.
func SeqProducer[T any](gen func(ctx context.Context, cfg ProduceConfig) iter.Seq2[T, error]) Producer[T] {
	return ProducerFunc[T](func(ctx context.Context, cfg ProduceConfig) (pipeline.Iterator[T], error) {
		seq := gen(ctx, cfg)
		if cfg.Limit > 0 {
			seq = limitSeq(seq, cfg.Limit)
		}
		return pipeline.Seq2Iter(seq), nil
	})
}

func limitSeq[T any](seq iter.Seq2[T, error], n int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		count := 0
		for v, err := range seq {
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}
