// Package observability provides OpenTelemetry tracing and metrics for
// workflow runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("ingest"))
//	defer tp.Shutdown(ctx)
//
//	ctx, run := observability.StartRun(ctx, "web-articles", runID)
//	defer run.End(observability.RunOutcome{State: "completed"})
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("ingest"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewRunMetrics(observability.Meter("ingest"))
//	metrics.RecordProduced(ctx, "web-articles")
package observability
