// Package main is the entry point for the library API server.
// It wires together configuration, the storage backend, and the HTTP router.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/aoideee/libraryhub/internal/config"
	"github.com/aoideee/libraryhub/internal/data"
	"github.com/aoideee/libraryhub/internal/storage"
)

// appVersion is the current version of the API, shown in logs and the healthcheck.
const appVersion = "1.0.0"

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config *config.Config // Settings loaded from defaults, file, env and flags
	logger *slog.Logger   // Structured logger that writes to stdout
	store  *data.Store    // Document store shared by every model
	models data.Models    // Record stores for all collections
}

// main is the application entry point.
// It parses flags, loads config, opens storage, wires up dependencies, and starts the HTTP server.
func main() {
	var (
		configPath string
		port       int
		env        string
		dsn        string
	)

	// Flags override whatever the config file and environment provide.
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.IntVar(&port, "port", 4000, "Server port")
	flag.StringVar(&env, "env", "development", "Environment(development|staging|production)")
	flag.StringVar(&dsn, "db-dsn", "", "PostgreSQL DSN (selects the postgres storage backend)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = port
		case "env":
			cfg.Env = env
		case "db-dsn":
			cfg.Storage.Backend = "postgres"
			cfg.Storage.DSN = dsn
		}
	})

	logger := config.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	app, closeStorage, err := newApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer closeStorage()

	err = app.serve()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// newApplication opens the configured backend, runs the startup cleanup when
// enabled, and returns the wired dependencies with a func that releases storage.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*applicationDependencies, func(), error) {
	recovery, err := data.ParseRecoveryMode(cfg.Storage.Recovery)
	if err != nil {
		return nil, nil, err
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("storage backend ready", "backend", cfg.Storage.Backend)

	store := data.NewStore(backend, data.Options{Logger: logger, Recovery: recovery})

	if cfg.Storage.CleanupOnStart {
		result, err := store.AggressiveCleanup(ctx)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		if len(result.Collections) > 0 {
			logger.Warn("startup cleanup discarded corrupted data", "collections", result.Collections, "reset", result.Reset)
		}
	}

	app := &applicationDependencies{
		config: cfg,
		logger: logger,
		store:  store,
		models: data.NewModels(store),
	}
	return app, func() { backend.Close() }, nil
}
