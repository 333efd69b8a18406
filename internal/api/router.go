// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casaops/casaops/internal/config"
	"github.com/casaops/casaops/internal/middleware"
)

// NewRouter assembles the HTTP surface. The admin log endpoints sit
// behind JWT authentication and the admin role; search is additionally
// rate limited per client IP because it scans files.
func (h *Handlers) NewRouter(sec config.SecurityConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   sec.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.perf.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/v1/health", h.Health)

	r.Route("/api/v1/logs", func(r chi.Router) {
		r.Use(middleware.Authenticate(sec.JWTSecret))
		r.Use(middleware.RequireAdmin(h.trail))
		if !sec.RateLimitDisabled {
			r.Use(httprate.LimitByIP(sec.RateLimitReqs, sec.RateLimitWindow))
		}

		r.Get("/config", h.GetConfig)
		r.Post("/config", h.UpdateConfig)
		r.Post("/level", h.SetLevel)
		r.Get("/search", h.Search)
		r.Get("/errors/stats", h.ErrorStats)
		r.Get("/summary", h.Summary)
		r.Post("/test", h.TestLogs)
		r.Get("/audit/events", h.AuditEvents)
		r.Get("/performance", h.Performance)
	})

	return r
}
