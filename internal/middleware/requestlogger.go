// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/casaops/casaops/internal/logging"
)

// RequestLogger logs one record when a request arrives and one when it
// completes. Each request gets a child logger carrying its request ID;
// handlers retrieve it with logging.FromContext so all records of one
// request correlate.
//
// The completion level follows the response status: 5xx at ERROR, 4xx
// at WARN, everything else at INFO.
func RequestLogger(logger *logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := logging.RequestIDFromContext(r.Context())

			reqLogger := logger.Child(logging.Fields{"requestId": requestID})
			ctx := logging.ContextWithLogger(r.Context(), reqLogger)

			info := logging.Fields{
				"method":    r.Method,
				"url":       r.URL.RequestURI(),
				"ip":        clientIP(r),
				"userAgent": r.UserAgent(),
			}
			if referer := r.Referer(); referer != "" {
				info["referer"] = referer
			}
			if actor := ActorFromContext(ctx); actor != nil {
				info["userId"] = actor.ID
				info["username"] = actor.Login
				info["role"] = actor.Role
			}
			reqLogger.Info(fmt.Sprintf("Request received: %s %s", r.Method, r.URL.RequestURI()), info)

			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r.WithContext(ctx))

			duration := time.Since(start).Milliseconds()
			msg := fmt.Sprintf("Request completed: %s %s %d (%dms)",
				r.Method, r.URL.RequestURI(), wrapper.statusCode, duration)
			completion := logging.Fields{
				"statusCode":    wrapper.statusCode,
				"duration":      fmt.Sprintf("%dms", duration),
				"contentLength": wrapper.bytes,
			}

			switch {
			case wrapper.statusCode >= 500:
				reqLogger.Error(msg, completion)
			case wrapper.statusCode >= 400:
				reqLogger.Warn(msg, completion)
			default:
				reqLogger.Info(msg, completion)
			}
		})
	}
}

// clientIP resolves the client address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}
