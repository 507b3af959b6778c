package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/remoter/errors"
)

// Status values recorded on operations and metrics.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Operation tracks one traced unit of work, such as a scenario or a
// single machine pipeline.
type Operation struct {
	Name      string
	StartTime time.Time
	span      trace.Span
}

// StartOperation starts a span named spanName carrying attrs.
func StartOperation(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName, trace.WithAttributes(attrs...))
	return ctx, &Operation{Name: spanName, StartTime: time.Now(), span: span}
}

// Step records entering a pipeline step as a span event.
func (o *Operation) Step(step string) {
	o.span.AddEvent(step, trace.WithAttributes(attribute.String(AttrStep, step)))
}

// SetAttributes adds attributes to the operation span.
func (o *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	o.span.SetAttributes(attrs...)
}

// End closes the span with a status derived from err and returns the elapsed time.
func (o *Operation) End(err error) time.Duration {
	duration := time.Since(o.StartTime)

	status := StatusOK
	if err != nil {
		status = StatusFailed
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
		o.span.SetAttributes(attribute.String(AttrErrorCode, string(errors.CodeOf(err))))
	}
	o.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	o.span.End()
	return duration
}

// Duration returns the elapsed time since the operation started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.StartTime)
}
