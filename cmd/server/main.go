/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the budgeting engine API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, budget.toml, .env, environment)
  2. Apply command-line flag overrides
  3. Initialize logger
  4. Initialize SQLite store and the pay period calendar
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default from config: 8080)
  -db        SQLite database path (default from config: ./data/budget.db)
             Use ":memory:" for in-memory database
  -scenario  Load a demo scenario at startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/budget.db"

  # Demo data in memory
  ./server -db=":memory:" -scenario=household

ENVIRONMENT:
  PAY_PERIOD_START_DATE, PORT, DB_PATH, CORS_ORIGINS, APP_ENV, LOG_LEVEL,
  BUDGET_CONFIG (path of the TOML file)

SEE ALSO:
  - config/config.go: Configuration layering
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/logger"
	"github.com/warp/budget-engine/payperiod"
	"github.com/warp/budget-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags override config
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	scenario := flag.String("scenario", "", "Load a demo scenario at startup")
	flag.Parse()
	cfg.Port, cfg.DBPath = *port, *dbPath
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	cal := payperiod.NewCalendar(cfg.Epoch(), store, payperiod.WithLogger(log))
	log.Infow("pay period calendar ready",
		"epoch", cal.Epoch().String(),
		"current_start", cal.Current().Start().String(),
	)

	if *scenario != "" {
		if err := api.SeedScenario(context.Background(), store, cal, *scenario); err != nil {
			return err
		}
		log.Infow("scenario loaded", "scenario", *scenario)
	}

	handler := api.NewHandler(store, cal, log)
	router := api.NewRouter(handler, api.RouterOptions{CORSOrigins: cfg.CORSOrigins})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", "http://localhost:"+cfg.Port, "db", cfg.DBPath, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Infow("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
