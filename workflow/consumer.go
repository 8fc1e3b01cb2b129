package workflow

import (
	"context"
	"sync"
)

// Consumer is the sink boundary. Calls are sequential: OnStart once,
// Consume per final item, then OnComplete.
type Consumer[T any] interface {
	OnStart(ctx context.Context) error
	Consume(ctx context.Context, item T) error
	OnComplete(ctx context.Context) error
}

// CollectingConsumer accumulates every item it receives.
type CollectingConsumer[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewCollectingConsumer creates an empty CollectingConsumer.
func NewCollectingConsumer[T any]() *CollectingConsumer[T] {
	return &CollectingConsumer[T]{}
}

// OnStart clears items from a previous run.
func (c *CollectingConsumer[T]) OnStart(context.Context) error {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
	return nil
}

// Consume appends item.
func (c *CollectingConsumer[T]) Consume(_ context.Context, item T) error {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
	return nil
}

// OnComplete does nothing.
func (c *CollectingConsumer[T]) OnComplete(context.Context) error { return nil }

// Items returns a copy of the collected items.
func (c *CollectingConsumer[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// FuncConsumer adapts a function to Consumer with no-op lifecycle calls.
type FuncConsumer[T any] func(ctx context.Context, item T) error

// OnStart does nothing.
func (f FuncConsumer[T]) OnStart(context.Context) error { return nil }

// Consume calls f(ctx, item).
func (f FuncConsumer[T]) Consume(ctx context.Context, item T) error { return f(ctx, item) }

// OnComplete does nothing.
func (f FuncConsumer[T]) OnComplete(context.Context) error { return nil }

// BatchConsumer buffers items and hands them to Flush in batches of Size.
// The remainder is flushed in OnComplete.
type BatchConsumer[T any] struct {
	Size  int
	Flush func(ctx context.Context, batch []T) error

	buf []T
}

// NewBatchConsumer creates a BatchConsumer. Size below 1 is treated as 1.
func NewBatchConsumer[T any](size int, flush func(ctx context.Context, batch []T) error) *BatchConsumer[T] {
	if size < 1 {
		size = 1
	}
	return &BatchConsumer[T]{Size: size, Flush: flush}
}

// OnStart drops anything left over from a previous run.
func (b *BatchConsumer[T]) OnStart(context.Context) error {
	b.buf = b.buf[:0]
	return nil
}

// Consume buffers item and flushes once the batch is full. A failed flush
// keeps the batch so OnComplete can try again.
func (b *BatchConsumer[T]) Consume(ctx context.Context, item T) error {
	b.buf = append(b.buf, item)
	if len(b.buf) < b.Size {
		return nil
	}
	return b.flush(ctx)
}

// OnComplete flushes the remaining items.
func (b *BatchConsumer[T]) OnComplete(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.flush(ctx)
}

// Pending returns the number of buffered items.
func (b *BatchConsumer[T]) Pending() int { return len(b.buf) }

func (b *BatchConsumer[T]) flush(ctx context.Context) error {
	batch := append([]T(nil), b.buf...)
	if err := b.Flush(ctx, batch); err != nil {
		return err
	}
	b.buf = b.buf[:0]
	return nil
}
