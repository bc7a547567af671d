package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coderd/internal/audit"
	"coderd/internal/bus"
	"coderd/internal/config"
	"coderd/internal/mcp"
	"coderd/internal/metrics"
	"coderd/internal/tool"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool catalog over MCP (stdio or TCP)",
		Long:  "Starts the MCP server on the configured transport. On stdio the wire owns stdout and all logs go to stderr.",
		RunE:  runServe,
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.FromEnv()
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	}))

	// Graceful shutdown on signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := tool.BuildCatalog(tool.CatalogConfig{
		Exec: tool.ShellConfig{
			TimeoutSeconds: cfg.Tools.Exec.TimeoutSeconds,
			MaxOutputBytes: cfg.Tools.Exec.MaxOutputBytes,
		},
		Web: tool.WebConfig{
			APIKey:         cfg.Tools.Web.APIKey,
			EngineID:       cfg.Tools.Web.EngineID,
			TimeoutSeconds: cfg.Tools.Web.TimeoutSeconds,
		},
		PlanPath: cfg.Plan.Path,
	}, logger)

	eventBus := bus.New(256, logger)

	// Audit recorder drains the bus off the invocation path.
	auditDone := make(chan struct{})
	if cfg.Audit.Enabled {
		store, err := audit.NewStore(cfg.Audit.DBPath, logger)
		if err != nil {
			return fmt.Errorf("audit store: %w", err)
		}
		defer store.Close()
		reg.SetEventBus(eventBus)
		go func() {
			defer close(auditDone)
			store.Consume(eventBus.Subscribe())
		}()
		logger.Info("audit log enabled", "db", cfg.Audit.DBPath)
	} else {
		close(auditDone)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc(cfg.Metrics.Endpoint, metrics.Collector.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "err", err)
			}
		}()
		logger.Info("metrics exposed", "addr", cfg.Metrics.Addr, "endpoint", cfg.Metrics.Endpoint)
	}

	srv := mcp.NewServer(reg, version, logger)

	errCh := make(chan error, 1)
	switch cfg.Server.Transport {
	case "tcp":
		go func() { errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr) }()
		logger.Info("coderd started", "transport", "tcp", "addr", cfg.Server.Addr, "version", version)
	default:
		go func() { errCh <- srv.Serve(ctx, os.Stdin, os.Stdout) }()
		logger.Info("coderd started", "transport", "stdio", "version", version)
	}

	// Block until the client disconnects or a shutdown signal arrives.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case serveErr = <-errCh:
		logger.Info("client disconnected")
	}

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			metricsSrv.Shutdown(shutdownCtx)
		}
		eventBus.Close()
		<-auditDone
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}

	return serveErr
}
