// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package api exposes the admin HTTP surface: logger configuration and
// level control, log search and reporting, audit queries and health.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/casaops/casaops/internal/logging"
)

// respondJSON writes a payload with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError writes the error contract shared by all endpoints.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// requestLogger returns the per-request child logger installed by the
// middleware stack, falling back to the service logger.
func (h *Handlers) requestLogger(r *http.Request) *logging.Logger {
	return logging.FromContext(r.Context(), h.logger)
}
