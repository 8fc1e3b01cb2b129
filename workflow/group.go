package workflow

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/validation"
)

// GroupConfig configures a Group.
type GroupConfig struct {
	// PoolSize is the number of workflows that may run at once.
	// Zero means runtime.NumCPU() / 2, at least 1.
	PoolSize int `mapstructure:"pool_size" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *GroupConfig) ApplyDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = max(runtime.NumCPU()/2, 1)
	}
}

// Validate checks the configuration.
func (c *GroupConfig) Validate() error {
	return validation.Validate(c)
}

// Job is one unit of work for a Group, usually bound from an Executor.
type Job struct {
	Name string
	Run  func(ctx context.Context) (Stats, error)
}

// Job binds a run of e with cfg and hooks.
func (e *Executor[R, T]) Job(cfg ProduceConfig, hooks Hooks[R]) Job {
	return Job{
		Name: e.name,
		Run: func(ctx context.Context) (Stats, error) {
			return e.Execute(ctx, cfg, hooks)
		},
	}
}

// Result is the outcome of one Job.
type Result struct {
	Workflow string
	Stats    Stats
	Err      error
}

// Group runs independent workflows concurrently on a bounded pool. Each
// workflow stays sequential; only distinct workflows overlap, so they must
// not share dedup, cursor or rate-limit state unless that state is safe
// for concurrent use.
type Group struct {
	pool *ants.Pool
	log  *logger.Logger
}

// NewGroup creates a Group.
func NewGroup(cfg GroupConfig) (*Group, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	return &Group{pool: pool, log: logger.Get("workflow")}, nil
}

// Run executes jobs and waits for all of them. Results are returned in
// job order.
func (g *Group) Run(ctx context.Context, jobs ...Job) []Result {
	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		results[i].Workflow = job.Name
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i].Stats, results[i].Err = job.Run(ctx)
		}
		if err := g.pool.Submit(task); err != nil {
			wg.Done()
			results[i].Err = err
			g.log.Error("workflow not scheduled", logger.Fields(logger.FieldWorkflow, job.Name, logger.FieldError, err))
		}
	}
	wg.Wait()
	return results
}

// Running returns the number of workflows currently executing.
func (g *Group) Running() int { return g.pool.Running() }

// Release stops the pool. The Group cannot be used afterwards.
func (g *Group) Release() { g.pool.Release() }
