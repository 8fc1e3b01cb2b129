package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/ingestkit/logger"
)

// Metric instrument names.
const (
	MetricItemsProduced = "ingest.items.produced"
	MetricItemsConsumed = "ingest.items.consumed"
	MetricItemsErrored  = "ingest.items.errored"
	MetricRuns          = "ingest.runs"
	MetricRunDuration   = "ingest.run.duration"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string        `mapstructure:"endpoint"`
	Insecure bool          `mapstructure:"insecure"`
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider.
// The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// RunMetrics holds the instruments recorded by workflow executors.
// A nil *RunMetrics records nothing.
type RunMetrics struct {
	produced    metric.Int64Counter
	consumed    metric.Int64Counter
	errored     metric.Int64Counter
	runs        metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewRunMetrics creates the run instruments on meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	produced, err := meter.Int64Counter(MetricItemsProduced,
		metric.WithDescription("Items pulled from producers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsProduced, err)
	}

	consumed, err := meter.Int64Counter(MetricItemsConsumed,
		metric.WithDescription("Items delivered to consumers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsConsumed, err)
	}

	errored, err := meter.Int64Counter(MetricItemsErrored,
		metric.WithDescription("Source items whose processing failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsErrored, err)
	}

	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Finished workflow runs by terminal state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRuns, err)
	}

	runDuration, err := meter.Float64Histogram(MetricRunDuration,
		metric.WithDescription("Duration of workflow runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRunDuration, err)
	}

	return &RunMetrics{
		produced:    produced,
		consumed:    consumed,
		errored:     errored,
		runs:        runs,
		runDuration: runDuration,
	}, nil
}

// RecordProduced counts one item pulled by workflow.
func (m *RunMetrics) RecordProduced(ctx context.Context, workflow string) {
	if m == nil {
		return
	}
	m.produced.Add(ctx, 1, workflowAttr(workflow))
}

// RecordConsumed counts one item delivered by workflow.
func (m *RunMetrics) RecordConsumed(ctx context.Context, workflow string) {
	if m == nil {
		return
	}
	m.consumed.Add(ctx, 1, workflowAttr(workflow))
}

// RecordErrored counts one failed source item of workflow.
func (m *RunMetrics) RecordErrored(ctx context.Context, workflow string) {
	if m == nil {
		return
	}
	m.errored.Add(ctx, 1, workflowAttr(workflow))
}

// RecordRun records a finished run and its duration.
func (m *RunMetrics) RecordRun(ctx context.Context, workflow, state string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrWorkflow, workflow),
		attribute.String(AttrState, state),
	))
	m.runDuration.Record(ctx, duration.Seconds(), workflowAttr(workflow))
}

func workflowAttr(workflow string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrWorkflow, workflow))
}
