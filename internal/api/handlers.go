// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/casaops/casaops/internal/analyzer"
	"github.com/casaops/casaops/internal/audit"
	"github.com/casaops/casaops/internal/config"
	"github.com/casaops/casaops/internal/logging"
	"github.com/casaops/casaops/internal/middleware"
)

// Handlers holds the dependencies of the admin endpoints.
type Handlers struct {
	logger   *logging.Logger
	trail    *audit.Trail
	analyzer *analyzer.Analyzer
	perf     *middleware.PerformanceMonitor
	started  time.Time
}

// NewHandlers wires the admin endpoints to their collaborators.
func NewHandlers(logger *logging.Logger, trail *audit.Trail, an *analyzer.Analyzer, perf *middleware.PerformanceMonitor) *Handlers {
	return &Handlers{
		logger:   logger,
		trail:    trail,
		analyzer: an,
		perf:     perf,
		started:  time.Now(),
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	})
}

// GetConfig returns the live logger configuration and the available
// presets.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	presets := make(map[string]logging.Config, len(config.PresetNames))
	for _, name := range config.PresetNames {
		presets[name] = config.Preset(name)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"currentConfig":    h.logger.GetConfig(),
		"availableConfigs": presets,
	})
}

// updateConfigRequest selects either a named preset or a full custom
// configuration.
type updateConfigRequest struct {
	ConfigName   string          `json:"configName"`
	CustomConfig *logging.Config `json:"customConfig"`
}

// UpdateConfig swaps the logger configuration at runtime.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch {
	case req.ConfigName != "":
		if !validPreset(req.ConfigName) {
			respondError(w, http.StatusBadRequest, "Invalid configuration")
			return
		}
		if err := h.logger.Reconfigure(config.Preset(req.ConfigName)); err != nil {
			h.requestLogger(r).Error("Error updating logger config", logging.Fields{"error": err.Error()})
			respondError(w, http.StatusInternalServerError, "Server error")
			return
		}
		h.requestLogger(r).Info("Logger configuration changed to " + req.ConfigName)
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "Logger configuration changed to " + req.ConfigName,
			"config":  h.logger.GetConfig(),
		})

	case req.CustomConfig != nil:
		if err := config.ValidateLoggerConfig(req.CustomConfig); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.logger.Reconfigure(*req.CustomConfig); err != nil {
			h.requestLogger(r).Error("Error updating logger config", logging.Fields{"error": err.Error()})
			respondError(w, http.StatusInternalServerError, "Server error")
			return
		}
		h.requestLogger(r).Info("Logger configuration updated with custom settings")
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "Logger configuration updated with custom settings",
			"config":  h.logger.GetConfig(),
		})

	default:
		respondError(w, http.StatusBadRequest, "Invalid configuration")
	}
}

// SetLevel changes the minimum severity at runtime.
func (h *Handlers) SetLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level string `json:"level"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":       "Invalid log level",
			"validLevels": levelNames(),
		})
		return
	}

	h.logger.SetLevel(level.String())
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Log level changed to " + level.String(),
		"currentLevel": level.String(),
	})
}

// Search runs a regular-expression search over the log files.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pattern := q.Get("query")
	if pattern == "" {
		respondError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	opts := analyzer.SearchOptions{
		MaxResults:    intParam(q.Get("maxResults"), 100),
		Level:         q.Get("level"),
		CaseSensitive: q.Get("caseSensitive") == "true",
	}
	if d := dateParam(q.Get("startDate")); d != nil {
		opts.StartDate = d
	}
	if d := dateParam(q.Get("endDate")); d != nil {
		opts.EndDate = d
	}

	results, err := h.analyzer.Search(pattern, opts)
	if err != nil {
		h.requestLogger(r).Error("Error searching logs", logging.Fields{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"query":   pattern,
		"count":   len(results),
		"results": results,
	})
}

// ErrorStats aggregates recent ERROR records.
func (h *Handlers) ErrorStats(w http.ResponseWriter, r *http.Request) {
	days := intParam(r.URL.Query().Get("days"), 7)

	stats, err := h.analyzer.ErrorStats(days)
	if err != nil {
		h.requestLogger(r).Error("Error getting error statistics", logging.Fields{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"period": fmt.Sprintf("Last %d days", days),
		"stats":  stats,
	})
}

// Summary reports totals over the whole log directory.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analyzer.SummaryReport()
	if err != nil {
		h.requestLogger(r).Error("Error generating log summary", logging.Fields{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"generatedAt": time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		"summary":     summary,
	})
}

// TestLogs emits one record at every level, for verifying sink and
// level configuration end to end.
func (h *Handlers) TestLogs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	// Body is optional.
	_ = decodeBody(r, &req)
	if req.Message == "" {
		req.Message = "Test log message"
	}

	h.logger.Error(req.Message+" (ERROR)", logging.Fields{"test": true, "level": "error"})
	h.logger.Warn(req.Message+" (WARN)", logging.Fields{"test": true, "level": "warn"})
	h.logger.Info(req.Message+" (INFO)", logging.Fields{"test": true, "level": "info"})
	h.logger.Debug(req.Message+" (DEBUG)", logging.Fields{"test": true, "level": "debug"})
	h.logger.Trace(req.Message+" (TRACE)", logging.Fields{"test": true, "level": "trace"})

	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Test logs generated at all levels",
		"currentLevel": h.logger.Level().String(),
	})
}

// AuditEvents queries the durable audit store.
func (h *Handlers) AuditEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.DefaultQueryFilter()
	filter.Limit = intParam(q.Get("limit"), filter.Limit)
	filter.Offset = intParam(q.Get("offset"), 0)
	if kind := q.Get("kind"); kind != "" {
		filter.Kinds = []audit.Kind{audit.Kind(kind)}
	}
	if actor := q.Get("actorId"); actor != "" {
		if id, err := strconv.ParseInt(actor, 10, 64); err == nil {
			filter.ActorID = &id
		}
	}

	events, err := h.trail.Query(r.Context(), filter)
	if err != nil {
		h.requestLogger(r).Error("Error querying audit events", logging.Fields{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	total, err := h.trail.Count(r.Context(), filter)
	if err != nil {
		h.requestLogger(r).Error("Error counting audit events", logging.Fields{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"count":  len(events),
		"events": events,
	})
}

// Performance reports the endpoint timing window.
func (h *Handlers) Performance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"endpoints": h.perf.GetStats(),
		"recent":    h.perf.GetRecentMetrics(intParam(r.URL.Query().Get("recent"), 20)),
	})
}

// validPreset reports whether name is a known logger preset.
func validPreset(name string) bool {
	for _, p := range config.PresetNames {
		if p == name {
			return true
		}
	}
	return false
}

// levelNames lists the accepted level names for error payloads.
func levelNames() []string {
	levels := logging.Levels()
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, l.String())
	}
	return names
}

// intParam parses a positive integer query parameter with a default.
func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// dateParam parses a YYYY-MM-DD query parameter.
func dateParam(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &d
}
