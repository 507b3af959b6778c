package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/remoter/config"
	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/observability"
	"github.com/kbukum/remoter/version"
)

const shutdownTimeout = 5 * time.Second

// NewRunCmd creates the `run` command.
func NewRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [task-id...]",
		Short: "Run every task of the project, or only the named ones",
		Long: `Run every task of the project, or only the named ones.

Examples:
  remoter run
  remoter run -c deploy/remoter.yaml runRemoteExecution`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			logger.Init(&settings.Logging)
			log := logger.GetGlobalLogger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := observability.Setup(ctx, settings.Telemetry.Enabled, telemetryConfig(settings))
			if err != nil {
				return fmt.Errorf("setup telemetry: %w", err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					logger.WithComponent("telemetry").Warn("Telemetry shutdown failed", logger.ErrorFields("shutdown", err))
				}
			}()

			host, err := opts.newHost(settings, log, observability.DefaultMetrics())
			if err != nil {
				return err
			}
			return host.Run(ctx, args...)
		},
	}
}

// NewCheckCmd creates the `check` command.
func NewCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the settings and the project file without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			host, err := opts.newHost(settings, logger.Nop(), nil)
			if err != nil {
				return err
			}
			if err := host.Configure(cmd.Context()); err != nil {
				return err
			}
			tasks := host.Tasks()
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d task(s)\n", opts.projectFile, len(tasks))
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", t.ID())
			}
			return nil
		},
	}
}

func telemetryConfig(s *config.Settings) observability.Config {
	return observability.Config{
		ServiceName:    s.Name,
		ServiceVersion: version.Get().Short(),
		Environment:    s.Telemetry.Environment,
		Endpoint:       s.Telemetry.Endpoint,
		Insecure:       s.Telemetry.Insecure,
		SampleRate:     s.Telemetry.SampleRate,
		MetricInterval: s.Telemetry.MetricInterval,
	}
}
