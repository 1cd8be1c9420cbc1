package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/api"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/config"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugtool"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/eventloop"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/hub"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/metrics"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

const (
	loopQueue       = 256
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve debug sessions and URL scans over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().Int("port", 0, "Listen port (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg, os.Stdout)

	recorder, err := metrics.New()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// Every session ticks on this one goroutine.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := eventloop.New(loopQueue, logger)
	go loop.Run(loopCtx)

	sim := cfg.Simulation
	engine := debugsim.NewEngine(loop,
		debugsim.WithTunables(sim.Tunables),
		debugsim.WithCatalog(sim.Catalog),
		debugsim.WithRandom(debugsim.NewRandom(sim.Seed)),
		debugsim.WithObserver(debugsim.MultiObserver{
			debugtool.NewLogObserver(logger),
			recorder,
		}),
	)

	manager := hub.NewManager(loop, engine, hub.Options{
		MaxSessions: cfg.Server.MaxSessions,
		IdleTTL:     cfg.Server.SessionIdleTTL,
		Logger:      logger,
		Gauge:       recorder.Sessions(),
	})
	manager.StartCleanupLoop(ctx, cleanupInterval(cfg.Server.SessionIdleTTL))

	scanner := vulnscan.New(vulnscan.Options{
		Delay:              cfg.Scanner.Delay,
		MaxVulnerabilities: cfg.Scanner.MaxVulnerabilities,
	})

	router := api.NewRouter(manager, scanner, api.RouterOptions{
		Metrics:      recorder.Handler(),
		ScanObserver: recorder,
		CommandRate:  cfg.Server.CommandRate,
		CommandBurst: cfg.Server.CommandBurst,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// No WriteTimeout: the SSE stream is long-lived.
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bugsu server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Ending sessions first closes open event streams so Shutdown does not
	// wait on them.
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("session shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	stopLoop()
	<-loop.Done()

	logger.Info("server stopped")
	return nil
}

// cleanupInterval sweeps four times per TTL and at least once a minute.
func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return min(ttl/4, time.Minute)
}
