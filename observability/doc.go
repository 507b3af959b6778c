// Package observability provides OpenTelemetry tracing and metrics for
// remoter runs.
//
// Export is off unless Setup is called with enabled=true; the global
// no-op providers make every call below free otherwise.
//
//	shutdown, err := observability.Setup(ctx, settings.Telemetry.Enabled, cfg)
//	defer shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanMachine,
//	    attribute.String(observability.AttrHost, host))
//	op.Step("push")
//	elapsed := op.End(err)
//
//	metrics := observability.DefaultMetrics()
//	metrics.RecordMachine(ctx, "scenario-0", observability.StatusOK, "", elapsed)
package observability
