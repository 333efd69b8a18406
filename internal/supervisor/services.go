// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/casaops/casaops/internal/audit"
	"github.com/casaops/casaops/internal/logging"
)

// HTTPService runs an http.Server under supervision. Serve blocks until
// the server fails or the context is canceled, at which point the
// server is shut down gracefully.
type HTTPService struct {
	server          *http.Server
	logger          *logging.Logger
	shutdownTimeout time.Duration
}

// NewHTTPService wraps srv for supervision.
func NewHTTPService(srv *http.Server, logger *logging.Logger, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          srv,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": s.server.Addr})
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed", logging.Fields{"error": err.Error()})
			return err
		}
		s.logger.Info("HTTP server stopped")
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// RetentionService periodically deletes audit events older than the
// retention window.
type RetentionService struct {
	trail         *audit.Trail
	interval      time.Duration
	retentionDays int
}

// NewRetentionService creates the audit retention job.
func NewRetentionService(trail *audit.Trail, interval time.Duration, retentionDays int) *RetentionService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &RetentionService{
		trail:         trail,
		interval:      interval,
		retentionDays: retentionDays,
	}
}

// Serve implements suture.Service.
func (s *RetentionService) Serve(ctx context.Context) error {
	s.trail.RunRetention(ctx, s.interval, s.retentionDays)
	return ctx.Err()
}

func (s *RetentionService) String() string { return "audit-retention" }
