package pipeline

import (
	"context"
	"iter"
)

// Iterator provides pull-based sequential access to a finite stream of values.
// Iterators are single-use and not restartable.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Empty returns an exhausted iterator.
func Empty[T any]() Iterator[T] {
	return &sliceIter[T]{}
}

// Single returns an iterator yielding v once.
func Single[T any](v T) Iterator[T] {
	return &sliceIter[T]{items: []T{v}}
}

// Of returns an iterator over the given values.
func Of[T any](items ...T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// SeqIter adapts a range-over-func sequence to an Iterator.
func SeqIter[T any](seq iter.Seq[T]) Iterator[T] {
	next, stop := iter.Pull(seq)
	return &seqIter[T]{next: next, stop: stop}
}

// Seq2Iter adapts a sequence of (value, error) pairs. The first non-nil
// error ends iteration and is returned from Next.
func Seq2Iter[T any](seq iter.Seq2[T, error]) Iterator[T] {
	next, stop := iter.Pull2(seq)
	return &seq2Iter[T]{next: next, stop: stop}
}

// FuncIter builds an iterator from a next function and an optional close.
func FuncIter[T any](next func(ctx context.Context) (T, bool, error), closeFn func() error) Iterator[T] {
	return &funcIter[T]{next: next, close: closeFn}
}

// Pull drains it into a slice and closes it. A partial slice is returned
// alongside any error.
func Pull[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	defer it.Close()
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type seqIter[T any] struct {
	next func() (T, bool)
	stop func()
}

func (it *seqIter[T]) Next(_ context.Context) (T, bool, error) {
	v, ok := it.next()
	return v, ok, nil
}

func (it *seqIter[T]) Close() error {
	it.stop()
	return nil
}

type seq2Iter[T any] struct {
	next func() (T, error, bool)
	stop func()
	done bool
}

func (it *seq2Iter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	v, err, ok := it.next()
	if !ok {
		it.done = true
		return zero, false, nil
	}
	if err != nil {
		it.done = true
		it.stop()
		return zero, false, err
	}
	return v, true, nil
}

func (it *seq2Iter[T]) Close() error {
	it.stop()
	return nil
}

type funcIter[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it *funcIter[T]) Close() error {
	if it.close != nil {
		return it.close()
	}
	return nil
}
