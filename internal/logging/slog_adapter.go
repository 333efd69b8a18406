// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"context"
	"log/slog"
)

// SlogHandler implements slog.Handler on top of a Logger. It lets
// libraries that require an *slog.Logger (like sutureslog) write
// through the CasaOps pipeline, masking and sinks included.
//
//	slogger := slog.New(logging.NewSlogHandler(logger))
type SlogHandler struct {
	logger *Logger

	// fields holds attributes accumulated by WithAttrs, keys already
	// group-qualified. Resolving them at WithAttrs time means groups
	// opened later never qualify earlier attributes, per the
	// slog.Handler contract.
	fields Fields
	groups []string
}

// NewSlogHandler creates a slog.Handler backed by logger.
func NewSlogHandler(logger *Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// NewSlogLogger is a convenience wrapper returning an *slog.Logger
// backed by logger.
func NewSlogLogger(logger *Logger) *slog.Logger {
	return slog.New(NewSlogHandler(logger))
}

// Enabled reports whether records at the given slog level pass the
// logger's current minimum severity.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogToLevel(level) <= h.logger.Level()
}

// Handle converts one slog record into a pipeline emit.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make(Fields, record.NumAttrs()+len(h.fields))
	for k, v := range h.fields {
		fields[k] = v
	}
	record.Attrs(func(attr slog.Attr) bool {
		addAttr(fields, attr, h.groups)
		return true
	})

	h.logger.Log(slogToLevel(record.Level), record.Message, fields)
	return nil
}

// WithAttrs returns a handler that includes the given attributes,
// qualified by the groups open at this point.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fields := make(Fields, len(h.fields)+len(attrs))
	for k, v := range h.fields {
		fields[k] = v
	}
	for _, attr := range attrs {
		addAttr(fields, attr, h.groups)
	}
	return &SlogHandler{logger: h.logger, fields: fields, groups: h.groups}
}

// WithGroup returns a handler that prefixes the keys of subsequent
// attributes with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &SlogHandler{logger: h.logger, fields: h.fields, groups: groups}
}

// addAttr flattens a slog attribute into the field map, joining group
// names with dots.
func addAttr(fields Fields, attr slog.Attr, groups []string) {
	if attr.Value.Kind() == slog.KindGroup {
		for _, ga := range attr.Value.Group() {
			addAttr(fields, ga, append(groups, attr.Key))
		}
		return
	}

	key := attr.Key
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}
	fields[key] = attr.Value.Any()
}

// slogToLevel maps slog levels onto the fixed level set.
func slogToLevel(level slog.Level) Level {
	switch {
	case level < slog.LevelDebug:
		return LevelTrace
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}
