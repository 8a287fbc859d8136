/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the worksheet server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Apply command-line overrides and validate
  3. Configure logging
  4. Create the in-memory store, metrics, API handler and router
  5. Run the HTTP server and the idle sweeper until a signal arrives

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweeper
  2. Stop accepting new connections
  3. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  4. Exit

ENVIRONMENT:
  PORT, LOG_LEVEL, CORS_ALLOWED_ORIGINS, SHUTDOWN_TIMEOUT,
  DEFAULT_PARTICIPANTS, MAX_PARTICIPANTS, WORKSHEET_TTL, SWEEP_INTERVAL
  (see config/config.go)

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - api/sweeper.go: Idle worksheet sweeper
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/warp/splitsheet/api"
	"github.com/warp/splitsheet/config"
	"github.com/warp/splitsheet/logging"
	"github.com/warp/splitsheet/worksheet/store"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()
	cfg.Port = *port

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worksheets := store.NewMemory()
	metrics := api.NewMetrics()

	handler := api.NewHandler(worksheets, metrics, api.Limits{
		DefaultParticipants: cfg.DefaultParticipants,
		MaxParticipants:     cfg.MaxParticipants,
	})
	handler.Logger = slog.Default()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.CORSAllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweeper := api.NewIdleSweeper(worksheets, cfg.WorksheetTTL, cfg.SweepInterval, metrics, slog.Default())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", server.Addr, "api", "http://localhost"+server.Addr+"/api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
