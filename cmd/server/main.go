// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package main is the entry point for the CasaOps admin server.
//
// CasaOps is a self-hosted smart-home administration platform. This
// binary runs its logging and audit subsystem: a leveled, maskable
// logger with rotating per-level files, a durable security audit trail,
// log analysis endpoints and Prometheus metrics.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config file and
//     environment variables (Koanf v2)
//  2. Logger: console and rotating file sinks per the configured preset
//  3. Audit store: in-memory, SQLite or PostgreSQL via GORM
//  4. Audit trail: dated audit files plus the durable store
//  5. HTTP server: admin log API behind JWT authentication
//  6. Supervisor tree: Suture-supervised HTTP server and retention job
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (LOG_LEVEL, DATABASE_DRIVER, JWT_SECRET, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults for the APP_ENV preset
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests (10s timeout) and
// stops the retention job.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/casaops/casaops/internal/analyzer"
	"github.com/casaops/casaops/internal/api"
	"github.com/casaops/casaops/internal/audit"
	"github.com/casaops/casaops/internal/config"
	"github.com/casaops/casaops/internal/logging"
	"github.com/casaops/casaops/internal/middleware"
	"github.com/casaops/casaops/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "casaops:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	logger.Info("Starting CasaOps admin server", logging.Fields{
		"environment": cfg.Server.Environment,
		"logLevel":    logger.Level().String(),
	})

	store, err := openAuditStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}

	trail, err := audit.New(logger, cfg.Audit.Dir, store)
	if err != nil {
		return fmt.Errorf("initialize audit trail: %w", err)
	}

	perf := middleware.NewPerformanceMonitor(1000, logger)
	handlers := api.NewHandlers(logger, trail, analyzer.New(cfg.Logging.Dir), perf)
	router := handlers.NewRouter(cfg.Security)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(srv, logger, cfg.Server.Timeout))
	tree.AddMaintenanceService(supervisor.NewRetentionService(trail, cfg.Audit.CleanupInterval, cfg.Audit.RetentionDays))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

// openAuditStore selects the audit backend from configuration. The
// in-memory store is the development default; SQLite and PostgreSQL
// share the GORM-backed store.
func openAuditStore(cfg config.DatabaseConfig) (audit.Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "memory":
		return audit.NewMemoryStore(0), nil
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return audit.NewGormStore(db)
}
