package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/ingestkit/logger"
)

const defaultTracerName = "github.com/kbukum/ingestkit/observability"

// SpanWorkflowRun is the name of the span covering one workflow execution.
const SpanWorkflowRun = "workflow.run"

// Common attribute keys.
const (
	AttrServiceName = "service.name"
	AttrWorkflow    = "workflow.name"
	AttrRunID       = "workflow.run_id"
	AttrState       = "workflow.state"
	AttrProduced    = "workflow.items.produced"
	AttrConsumed    = "workflow.items.consumed"
	AttrErrored     = "workflow.items.errored"
)

// TracerConfig configures the OpenTelemetry tracer.
type TracerConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracerConfig returns sensible defaults for development.
func DefaultTracerConfig(serviceName string) TracerConfig {
	return TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// InitTracer initializes the global OpenTelemetry tracer provider.
// The returned provider should be shut down on exit.
func InitTracer(ctx context.Context, config TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracer initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"sample_rate", config.SampleRate,
	))
	return tp, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String(AttrServiceName, serviceName),
			attribute.String("service.version", serviceVersion),
			attribute.String("environment", environment),
		),
	)
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span using the default tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(defaultTracerName).Start(ctx, name, opts...)
}

// RunOutcome is how a workflow run ended.
type RunOutcome struct {
	State    string
	Produced int64
	Consumed int64
	Errored  int64
	Err      error
}

// RunSpan wraps the span of one workflow run.
type RunSpan struct {
	span trace.Span
}

// StartRun starts the span of a workflow run.
func StartRun(ctx context.Context, workflow, runID string) (context.Context, *RunSpan) {
	ctx, span := StartSpan(ctx, SpanWorkflowRun, trace.WithAttributes(
		attribute.String(AttrWorkflow, workflow),
		attribute.String(AttrRunID, runID),
	))
	return ctx, &RunSpan{span: span}
}

// ItemFailed records an isolated item failure as a span event.
func (r *RunSpan) ItemFailed(err error) {
	r.span.AddEvent("item.failed", trace.WithAttributes(
		attribute.String("error.message", err.Error()),
	))
}

// End finishes the span with the outcome of the run.
func (r *RunSpan) End(out RunOutcome) {
	r.span.SetAttributes(
		attribute.String(AttrState, out.State),
		attribute.Int64(AttrProduced, out.Produced),
		attribute.Int64(AttrConsumed, out.Consumed),
		attribute.Int64(AttrErrored, out.Errored),
	)
	if out.Err != nil {
		r.span.RecordError(out.Err)
		r.span.SetStatus(codes.Error, out.Err.Error())
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()
}
