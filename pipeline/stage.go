package pipeline

import (
	"context"
	"errors"
)

// Stage transforms one input into a lazy sequence of zero, one or many
// outputs. Zero outputs means the input was filtered out.
//
// An error returned from Process, or from Next on the returned iterator,
// belongs to the input that produced it.
type Stage[I, O any] interface {
	Process(ctx context.Context, in I) (Iterator[O], error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc[I, O any] func(ctx context.Context, in I) (Iterator[O], error)

// Process calls f(ctx, in).
func (f StageFunc[I, O]) Process(ctx context.Context, in I) (Iterator[O], error) {
	return f(ctx, in)
}

// MapStage yields exactly one output per input.
func MapStage[I, O any](fn func(context.Context, I) (O, error)) Stage[I, O] {
	return StageFunc[I, O](func(ctx context.Context, in I) (Iterator[O], error) {
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return Single(out), nil
	})
}

// FilterStage yields the input when keep reports true and nothing otherwise.
func FilterStage[T any](keep func(context.Context, T) (bool, error)) Stage[T, T] {
	return StageFunc[T, T](func(ctx context.Context, in T) (Iterator[T], error) {
		ok, err := keep(ctx, in)
		if err != nil {
			return nil, err
		}
		if !ok {
			return Empty[T](), nil
		}
		return Single(in), nil
	})
}

// FlatMapStage yields every element of the slice fn returns.
func FlatMapStage[I, O any](fn func(context.Context, I) ([]O, error)) Stage[I, O] {
	return StageFunc[I, O](func(ctx context.Context, in I) (Iterator[O], error) {
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return Of(out...), nil
	})
}

// TapStage runs fn for its side effect and passes the input through.
func TapStage[T any](fn func(context.Context, T) error) Stage[T, T] {
	return StageFunc[T, T](func(ctx context.Context, in T) (Iterator[T], error) {
		if err := fn(ctx, in); err != nil {
			return nil, err
		}
		return Single(in), nil
	})
}

// Identity passes every input through unchanged.
func Identity[T any]() Stage[T, T] {
	return StageFunc[T, T](func(_ context.Context, in T) (Iterator[T], error) {
		return Single(in), nil
	})
}

// Compose runs first and feeds each of its outputs through second.
func Compose[I, M, O any](first Stage[I, M], second Stage[M, O]) Stage[I, O] {
	return StageFunc[I, O](func(ctx context.Context, in I) (Iterator[O], error) {
		mid, err := first.Process(ctx, in)
		if err != nil {
			return nil, err
		}
		return &composeIter[M, O]{mid: mid, second: second}, nil
	})
}

// composeIter drains second's outputs for one mid value before pulling the
// next one from mid.
type composeIter[M, O any] struct {
	mid    Iterator[M]
	second Stage[M, O]
	out    Iterator[O]
}

func (it *composeIter[M, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for {
		if it.out != nil {
			v, ok, err := it.out.Next(ctx)
			if err != nil || ok {
				return v, ok, err
			}
			_ = it.out.Close()
			it.out = nil
		}
		m, ok, err := it.mid.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		if it.out, err = it.second.Process(ctx, m); err != nil {
			return zero, false, err
		}
	}
}

func (it *composeIter[M, O]) Close() error {
	var err error
	if it.out != nil {
		err = it.out.Close()
		it.out = nil
	}
	return errors.Join(err, it.mid.Close())
}
