package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/learnedge/learnedge/internal/app"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/observability"
	"github.com/learnedge/learnedge/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: app.ServiceName,
		Version:     version,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	defer func() {
		if err := shutdownTracing(cmd.Context()); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	if err := store.EnsureDir(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	a, err := app.New(ctx, app.Options{Config: cfg, Log: log, Version: version})
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}
