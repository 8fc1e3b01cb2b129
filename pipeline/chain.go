package pipeline

import (
	"context"
	"errors"
)

// Pipeline is an ordered chain of same-typed stages. It satisfies Stage,
// so pipelines nest. An empty Pipeline is the identity transform.
//
// Outputs are produced depth-first: each output of stage k travels through
// stages k+1..n before stage k is asked for its next output, so at most one
// iterator per stage is live at any time.
type Pipeline[T any] struct {
	stages []Stage[T, T]
}

// New creates a pipeline from stages applied left to right.
func New[T any](stages ...Stage[T, T]) *Pipeline[T] {
	return &Pipeline[T]{stages: append([]Stage[T, T](nil), stages...)}
}

// Then returns a new pipeline with stage appended. The receiver is unchanged.
func (p *Pipeline[T]) Then(stage Stage[T, T]) *Pipeline[T] {
	stages := make([]Stage[T, T], 0, len(p.stages)+1)
	stages = append(stages, p.stages...)
	return &Pipeline[T]{stages: append(stages, stage)}
}

// Len returns the number of stages.
func (p *Pipeline[T]) Len() int { return len(p.stages) }

// Process runs in through every stage.
func (p *Pipeline[T]) Process(ctx context.Context, in T) (Iterator[T], error) {
	if len(p.stages) == 0 {
		return Single(in), nil
	}
	first, err := p.stages[0].Process(ctx, in)
	if err != nil {
		return nil, err
	}
	return &chainIter[T]{stages: p.stages, levels: []Iterator[T]{first}}, nil
}

type chainIter[T any] struct {
	stages []Stage[T, T]
	// levels[k] is the live output iterator of stages[k].
	levels []Iterator[T]
}

func (it *chainIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for len(it.levels) > 0 {
		depth := len(it.levels) - 1
		val, ok, err := it.levels[depth].Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			_ = it.levels[depth].Close()
			it.levels = it.levels[:depth]
			continue
		}
		if depth == len(it.stages)-1 {
			return val, true, nil
		}
		next, err := it.stages[depth+1].Process(ctx, val)
		if err != nil {
			return zero, false, err
		}
		it.levels = append(it.levels, next)
	}
	return zero, false, nil
}

func (it *chainIter[T]) Close() error {
	var errs []error
	for i := len(it.levels) - 1; i >= 0; i-- {
		errs = append(errs, it.levels[i].Close())
	}
	it.levels = nil
	return errors.Join(errs...)
}
