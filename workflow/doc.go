// Package workflow runs Producer → Stage → Consumer executions.
//
// An Executor pulls raw items from a Producer one at a time, pushes each
// through a pipeline.Stage and hands every output to a Consumer before the
// next item is pulled. Failures of a single item are isolated and reported
// through Hooks.OnError; a failing Producer, store or Consumer lifecycle
// call fails the whole run.
//
//	exec := workflow.New("articles", producer, stages, consumer)
//	stats, err := exec.Execute(ctx, workflow.ProduceConfig{Since: since}, workflow.Hooks[web.Page]{
//	    OnError: func(ctx context.Context, err error, page web.Page) { ... },
//	})
//
// Independent executors can run side by side on a Group.
package workflow
