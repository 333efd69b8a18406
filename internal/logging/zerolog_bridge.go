// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ZerologBridge adapts the pipeline to components that still log via
// zerolog. It implements io.Writer: each zerolog JSON event written to
// it is decoded and re-emitted through the Logger, so legacy output
// picks up masking, level filtering and the configured sinks.
//
//	zl := logging.NewZerologLogger(logger)
//	zl.Info().Str("component", "legacy").Msg("hello")
type ZerologBridge struct {
	logger *Logger
}

// NewZerologBridge creates the bridge writer.
func NewZerologBridge(logger *Logger) *ZerologBridge {
	return &ZerologBridge{logger: logger}
}

// NewZerologLogger returns a zerolog.Logger whose output flows through
// the pipeline.
func NewZerologLogger(logger *Logger) zerolog.Logger {
	return zerolog.New(NewZerologBridge(logger))
}

// Write decodes one zerolog event and re-emits it. Undecodable input is
// emitted verbatim at INFO under a raw field; the bridge never fails
// the writer.
func (b *ZerologBridge) Write(p []byte) (int, error) {
	var event map[string]any
	if err := json.Unmarshal(p, &event); err != nil {
		b.logger.Info("", Fields{"raw": string(p)})
		return len(p), nil
	}

	level := LevelInfo
	if name, ok := event[zerolog.LevelFieldName].(string); ok {
		if parsed, err := ParseLevel(name); err == nil {
			level = parsed
		} else if name == "fatal" || name == "panic" {
			level = LevelError
		}
	}

	msg, _ := event[zerolog.MessageFieldName].(string)

	fields := make(Fields, len(event))
	for k, v := range event {
		switch k {
		case zerolog.LevelFieldName, zerolog.MessageFieldName, zerolog.TimestampFieldName:
			// Re-stamped by the pipeline.
		default:
			fields[k] = v
		}
	}

	b.logger.Log(level, msg, fields)
	return len(p), nil
}
