package workflow

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
)

func TestGroup_RunsJobsAndKeepsOrder(t *testing.T) {
	g, err := NewGroup(GroupConfig{PoolSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Release()

	a := newExec[string, string](SliceProducer[string]{"x", "y"}, pipeline.Identity[string](),
		Consumer[string](NewCollectingConsumer[string]()))
	b := New[string, string]("broken", ProducerFunc[string](func(context.Context, ProduceConfig) (pipeline.Iterator[string], error) {
		return nil, stderrors.New("offline")
	}), pipeline.Identity[string](), Consumer[string](NewCollectingConsumer[string]()),
		WithLogger(logger.NewNop()))

	results := g.Run(context.Background(), a.Job(ProduceConfig{}, Hooks[string]{}), b.Job(ProduceConfig{}, Hooks[string]{}))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Workflow != "test" || results[0].Err != nil || results[0].Stats.Consumed != 2 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Workflow != "broken" || results[1].Err == nil || results[1].Stats.State != StateFailed {
		t.Errorf("unexpected second result %+v", results[1])
	}
}

func TestGroup_BoundsConcurrency(t *testing.T) {
	g, err := NewGroup(GroupConfig{PoolSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Release()

	var running, peak atomic.Int32
	job := Job{Name: "sleepy", Run: func(context.Context) (Stats, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return Stats{State: StateCompleted}, nil
	}}

	results := g.Run(context.Background(), job, job, job, job, job)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected error: %v", r.Err)
		}
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent jobs, got %d", peak.Load())
	}
}

func TestGroupConfig_Defaults(t *testing.T) {
	cfg := GroupConfig{}
	cfg.ApplyDefaults()
	if cfg.PoolSize < 1 {
		t.Errorf("expected positive pool size, got %d", cfg.PoolSize)
	}
	if err := (&GroupConfig{PoolSize: -1}).Validate(); err == nil {
		t.Error("expected validation error for negative pool size")
	}
}
