package observability

import (
	"context"
	"errors"
)

// ShutdownFunc flushes and stops telemetry providers.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes tracing and metrics export when enabled. When disabled
// the global no-op providers stay in place and the returned shutdown does nothing.
func Setup(ctx context.Context, enabled bool, config Config) (ShutdownFunc, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, config)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, config)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
