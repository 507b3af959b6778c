package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/remoter/errors"
)

func useRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("remoter")

	if cfg.ServiceName != "remoter" {
		t.Errorf("expected ServiceName 'remoter', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.MetricInterval != 15*time.Second {
		t.Errorf("expected MetricInterval 15s, got %v", cfg.MetricInterval)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestNewMetricsNoop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.SessionOpened(ctx)
	metrics.SessionClosed(ctx)
	metrics.RecordMachine(ctx, "scenario-0", StatusOK, "", 100*time.Millisecond)
	metrics.RecordOutputLines(ctx, "scenario-0", 3)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.SessionOpened(ctx)
	m.SessionClosed(ctx)
	m.RecordMachine(ctx, "s", StatusFailed, "connect", time.Second)
	m.RecordOutputLines(ctx, "s", 1)
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	metrics.SessionOpened(ctx)
	metrics.SessionOpened(ctx)
	metrics.SessionClosed(ctx)
	metrics.RecordMachine(ctx, "scenario-0", StatusOK, "", time.Second)
	metrics.RecordMachine(ctx, "scenario-0", StatusFailed, "connect", time.Second)
	metrics.RecordOutputLines(ctx, "scenario-0", 5)
	metrics.RecordOutputLines(ctx, "scenario-0", 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	if sums["remoter.machine.total"] != 2 {
		t.Errorf("expected 2 machines, got %d", sums["remoter.machine.total"])
	}
	if sums["remoter.sessions.active"] != 1 {
		t.Errorf("expected 1 active session, got %d", sums["remoter.sessions.active"])
	}
	if sums["remoter.output.lines"] != 5 {
		t.Errorf("expected 5 output lines, got %d", sums["remoter.output.lines"])
	}
}

func TestDefaultMetrics(t *testing.T) {
	if DefaultMetrics() == nil {
		t.Fatal("expected metrics on the global provider")
	}
}

func TestTracerAndMeter(t *testing.T) {
	if Tracer("test-tracer") == nil {
		t.Fatal("expected non-nil tracer")
	}
	if Meter("test-meter") == nil {
		t.Fatal("expected non-nil meter")
	}
}

func TestStartSpan(t *testing.T) {
	exporter := useRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanScenario)
	if SpanFromContext(ctx) != span {
		t.Error("expected span in context")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != SpanScenario {
		t.Fatalf("expected one %s span, got %v", SpanScenario, spans)
	}
}

func TestSetSpanError(t *testing.T) {
	exporter := useRecorder(t)

	ctx, span := StartSpan(context.Background(), "test-error")
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	if got := exporter.GetSpans()[0].Status.Code; got != codes.Error {
		t.Errorf("expected error status, got %v", got)
	}
}

func TestSetSpanErrorNoSpan(t *testing.T) {
	// Should not panic with background context
	SetSpanError(context.Background(), fmt.Errorf("no span error"))
}

func TestOperationSuccess(t *testing.T) {
	exporter := useRecorder(t)

	_, op := StartOperation(context.Background(), SpanMachine, attribute.String(AttrHost, "web1"))
	op.Step("connect")
	op.Step("push")
	op.SetAttributes(attribute.Int(AttrLines, 4))
	if d := op.End(nil); d < 0 {
		t.Errorf("unexpected duration %v", d)
	}

	span := exporter.GetSpans()[0]
	if span.Name != SpanMachine {
		t.Errorf("expected %s, got %s", SpanMachine, span.Name)
	}
	if len(span.Events) != 2 || span.Events[0].Name != "connect" {
		t.Errorf("expected step events, got %v", span.Events)
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrStatus].AsString() != StatusOK {
		t.Errorf("expected ok status attribute, got %v", attrs[AttrStatus])
	}
	if attrs[AttrHost].AsString() != "web1" {
		t.Errorf("expected host attribute, got %v", attrs[AttrHost])
	}
}

func TestOperationFailure(t *testing.T) {
	exporter := useRecorder(t)

	_, op := StartOperation(context.Background(), SpanMachine)
	op.End(errors.AuthenticationFailed("admin", "web1", nil))

	span := exporter.GetSpans()[0]
	if span.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status.Code)
	}
	found := false
	for _, kv := range span.Attributes {
		if kv.Key == AttrErrorCode && kv.Value.AsString() == string(errors.ErrCodeAuthenticationFailed) {
			found = true
		}
	}
	if !found {
		t.Error("expected error code attribute")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := sampler(tc.rate).Description(); got != tc.want {
				t.Errorf("sampler(%v) = %s, want %s", tc.rate, got, tc.want)
			}
		})
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(DefaultConfig("remoter"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := res.Set().Value("service.name")
	if !ok || v.AsString() != "remoter" {
		t.Errorf("expected service.name attribute, got %v", v)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), false, DefaultConfig("remoter"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	cfg := DefaultConfig("remoter")
	shutdown, err := Setup(context.Background(), true, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// No collector is listening; only the shutdown path matters here.
	_ = shutdown(ctx)
}
