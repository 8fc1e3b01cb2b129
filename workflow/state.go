package workflow

import (
	"context"
	"time"
)

// State is the lifecycle state of an Executor.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stats describes one run. It is owned by the executor while the run is
// in progress and not modified afterwards.
type Stats struct {
	RunID      string    `json:"run_id"`
	Workflow   string    `json:"workflow"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Produced counts items pulled from the producer.
	Produced int64 `json:"produced"`
	// Consumed counts items accepted by the consumer.
	Consumed int64 `json:"consumed"`
	// Errored counts source items whose processing failed.
	Errored int64 `json:"errored"`
	State   State `json:"state"`
}

// Duration returns how long the run took, or zero while it is running.
func (s Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Hooks are optional callbacks around a run. R is the raw item type.
type Hooks[R any] struct {
	// OnStart runs before the producer is opened. An error fails the run.
	OnStart func(ctx context.Context) error
	// OnError receives each isolated item failure with the source item.
	OnError func(ctx context.Context, err error, item R)
	// OnComplete receives the final stats of a successful run.
	OnComplete func(ctx context.Context, stats Stats)
}
