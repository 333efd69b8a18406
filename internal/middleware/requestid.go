// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package middleware provides the HTTP middleware stack: request IDs,
// per-request logging, JWT admin authentication, Prometheus metrics and
// in-process performance tracking.
package middleware

import (
	"net/http"

	"github.com/casaops/casaops/internal/logging"
)

// RequestID tags each request with a unique ID. An ID arriving from an
// upstream proxy via X-Request-ID is kept; otherwise a UUID is
// generated. The ID is echoed in the response header and placed in the
// request context for the logging pipeline.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
