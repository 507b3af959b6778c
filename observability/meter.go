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

	"github.com/kbukum/remoter/logger"
)

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config Config) (*sdkmetric.MeterProvider, error) {
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

	res, err := newResource(config)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.MetricInterval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the orchestrator.
type Metrics struct {
	machineTotal    metric.Int64Counter
	machineDuration metric.Float64Histogram
	sessionsActive  metric.Int64UpDownCounter
	outputLines     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	machineTotal, err := meter.Int64Counter("remoter.machine.total",
		metric.WithDescription("Machine pipelines completed, by status and failing step"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating remoter.machine.total counter: %w", err)
	}

	machineDuration, err := meter.Float64Histogram("remoter.machine.duration",
		metric.WithDescription("Duration of machine pipelines in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating remoter.machine.duration histogram: %w", err)
	}

	sessionsActive, err := meter.Int64UpDownCounter("remoter.sessions.active",
		metric.WithDescription("Number of currently open remote sessions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating remoter.sessions.active gauge: %w", err)
	}

	outputLines, err := meter.Int64Counter("remoter.output.lines",
		metric.WithDescription("Lines appended to scenario output files"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating remoter.output.lines counter: %w", err)
	}

	return &Metrics{
		machineTotal:    machineTotal,
		machineDuration: machineDuration,
		sessionsActive:  sessionsActive,
		outputLines:     outputLines,
	}, nil
}

// DefaultMetrics creates instruments on the global meter provider, which
// is a no-op until InitMeter runs.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(Meter(instrumentationName))
	if err != nil {
		logger.Warn("metrics disabled", logger.ErrorFields("metrics", err))
		return nil
	}
	return m
}

// SessionOpened increments the open session count.
func (m *Metrics) SessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsActive.Add(ctx, 1)
}

// SessionClosed decrements the open session count.
func (m *Metrics) SessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsActive.Add(ctx, -1)
}

// RecordMachine records one finished machine pipeline. step is the step
// that failed, or empty on success.
func (m *Metrics) RecordMachine(ctx context.Context, scenario, status, step string, duration time.Duration) {
	if m == nil {
		return
	}
	m.machineTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrScenario, scenario),
		attribute.String(AttrStatus, status),
		attribute.String(AttrStep, step),
	))
	m.machineDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrScenario, scenario),
		attribute.String(AttrStatus, status),
	))
}

// RecordOutputLines adds n aggregated output lines for a scenario.
func (m *Metrics) RecordOutputLines(ctx context.Context, scenario string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.outputLines.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrScenario, scenario)))
}
