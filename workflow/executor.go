package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/observability"
	"github.com/kbukum/ingestkit/pipeline"
	"github.com/kbukum/ingestkit/resilience"
)

// Option configures an Executor.
type Option func(*settings)

type settings struct {
	log     *logger.Logger
	metrics *observability.RunMetrics
	clock   resilience.Clock
	runID   func() string
}

// WithLogger sets the executor logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetrics records run metrics. Nil disables them.
func WithMetrics(m *observability.RunMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithClock sets the clock used for run timestamps.
func WithClock(c resilience.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(next func() string) Option {
	return func(s *settings) { s.runID = next }
}

// Executor runs a Producer through a Stage into a Consumer. Items are
// handled strictly in production order: item n+1 is not pulled until every
// output of item n has been consumed.
//
// An Executor runs at most one execution at a time.
type Executor[R, T any] struct {
	name     string
	producer Producer[R]
	stage    pipeline.Stage[R, T]
	consumer Consumer[T]
	settings

	mu    sync.Mutex
	state State
}

// New creates an Executor. Use pipeline.Compose or a pipeline.Pipeline to
// pass several stages.
func New[R, T any](name string, producer Producer[R], stage pipeline.Stage[R, T], consumer Consumer[T], opts ...Option) *Executor[R, T] {
	s := settings{clock: resilience.SystemClock(), runID: uuid.NewString}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Get("workflow")
	}
	s.log = s.log.WithFields(logger.Fields(logger.FieldWorkflow, name))
	return &Executor[R, T]{
		name:     name,
		producer: producer,
		stage:    stage,
		consumer: consumer,
		settings: s,
	}
}

// Name returns the workflow name.
func (e *Executor[R, T]) Name() string { return e.name }

// State returns the current lifecycle state.
func (e *Executor[R, T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Execute performs one run. Per-item failures are reported through
// hooks.OnError and counted; they do not fail the run. The run fails when
// a start hook, the producer, a store or a consumer lifecycle call fails,
// or when ctx is cancelled; cancellation is checked before each pull.
//
// The returned Stats are complete in either case.
func (e *Executor[R, T]) Execute(ctx context.Context, cfg ProduceConfig, hooks Hooks[R]) (Stats, error) {
	if !e.begin() {
		return Stats{}, errors.Conflict(fmt.Sprintf("workflow %s is already running", e.name))
	}

	stats := Stats{
		RunID:     e.runID(),
		Workflow:  e.name,
		StartedAt: e.clock.Now(),
		State:     StateRunning,
	}
	ctx = logger.ContextWithRunID(ctx, stats.RunID)
	ctx, span := observability.StartRun(ctx, e.name, stats.RunID)
	log := e.log.WithContext(ctx)
	log.Info("workflow started")

	err := e.run(ctx, cfg, hooks, &stats, span, log)

	stats.FinishedAt = e.clock.Now()
	stats.State = StateCompleted
	if err != nil {
		stats.State = StateFailed
	}
	span.End(observability.RunOutcome{
		State:    stats.State.String(),
		Produced: stats.Produced,
		Consumed: stats.Consumed,
		Errored:  stats.Errored,
		Err:      err,
	})
	e.metrics.RecordRun(ctx, e.name, stats.State.String(), stats.Duration())

	fields := logger.Fields(
		"produced", stats.Produced,
		"consumed", stats.Consumed,
		"errored", stats.Errored,
		logger.FieldDuration, stats.Duration().Milliseconds(),
	)
	if err != nil {
		fields[logger.FieldError] = err
		log.Error("workflow failed", fields)
	} else {
		log.Info("workflow completed", fields)
		if hooks.OnComplete != nil {
			hooks.OnComplete(ctx, stats)
		}
	}

	e.finish(stats.State)
	return stats, err
}

func (e *Executor[R, T]) run(ctx context.Context, cfg ProduceConfig, hooks Hooks[R], stats *Stats, span *observability.RunSpan, log *logger.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.SourceError(fmt.Errorf("panic: %v", r))
		}
	}()
	if hooks.OnStart != nil {
		if err := hooks.OnStart(ctx); err != nil {
			return fmt.Errorf("start hook: %w", err)
		}
	}
	if err := e.consumer.OnStart(ctx); err != nil {
		return fmt.Errorf("consumer start: %w", err)
	}
	// Buffered consumer output is flushed even when the source breaks off.
	defer func() {
		if cerr := e.consumer.OnComplete(ctx); cerr != nil {
			err = stderrors.Join(err, fmt.Errorf("consumer complete: %w", cerr))
		}
	}()

	it, err := e.producer.Produce(ctx, cfg)
	if err != nil {
		return errors.SourceError(err)
	}
	defer it.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, ok, err := it.Next(ctx)
		if err != nil {
			return errors.SourceError(err)
		}
		if !ok {
			return nil
		}
		stats.Produced++
		e.metrics.RecordProduced(ctx, e.name)

		if err := e.process(ctx, item, stats); err != nil {
			stats.Errored++
			e.metrics.RecordErrored(ctx, e.name)
			span.ItemFailed(err)
			if hooks.OnError != nil {
				hooks.OnError(ctx, err, item)
			}
			if errors.IsCode(err, errors.ErrCodeStore) {
				return err
			}
			log.Warn("item failed", logger.Fields(logger.FieldError, err))
		}
	}
}

// process pushes one source item through the stage into the consumer.
// Every failure, including a panic, comes back as an item error; store
// failures keep their STORE code in the chain.
func (e *Executor[R, T]) process(ctx context.Context, item R, stats *Stats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.ItemError(fmt.Errorf("panic: %v", r))
		}
	}()
	defer func() {
		if err != nil && !errors.IsCode(err, errors.ErrCodeItem) {
			err = errors.ItemError(err)
		}
	}()

	outputs, err := e.stage.Process(ctx, item)
	if err != nil {
		return err
	}
	defer outputs.Close()

	for {
		out, ok, err := outputs.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := e.consumer.Consume(ctx, out); err != nil {
			return err
		}
		stats.Consumed++
		e.metrics.RecordConsumed(ctx, e.name)
	}
}

func (e *Executor[R, T]) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		return false
	}
	e.state = StateRunning
	return true
}

func (e *Executor[R, T]) finish(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}
