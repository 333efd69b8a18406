// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"strings"
	"testing"
)

func TestZerologBridgeEmits(t *testing.T) {
	t.Parallel()

	logger, buf := newBufLogger(t, func(cfg *Config) {
		cfg.Format = FormatJSON
	})
	zl := NewZerologLogger(logger)

	zl.Warn().Str("component", "legacy").Msg("deprecated path")

	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"message":"deprecated path"`) {
		t.Errorf("event not re-emitted through the pipeline: %q", out)
	}
	if !strings.Contains(out, `"component":"legacy"`) {
		t.Errorf("event field missing: %q", out)
	}
}

func TestZerologBridgeFatalMapsToError(t *testing.T) {
	t.Parallel()

	logger, buf := newBufLogger(t, func(cfg *Config) {
		cfg.Format = FormatJSON
	})
	bridge := NewZerologBridge(logger)

	if _, err := bridge.Write([]byte(`{"level":"fatal","message":"boom"}`)); err != nil {
		t.Fatalf("bridge write failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("fatal should map to ERROR: %q", buf.String())
	}
}

func TestZerologBridgeRespectsLevel(t *testing.T) {
	t.Parallel()

	logger, buf := newBufLogger(t, func(cfg *Config) {
		cfg.Level = "ERROR"
		cfg.Format = FormatMinimal
	})
	zl := NewZerologLogger(logger)

	zl.Info().Msg("dropped downstream")
	if buf.Len() != 0 {
		t.Errorf("filtering must apply to bridged events: %q", buf.String())
	}
}

func TestZerologBridgeUndecodableInput(t *testing.T) {
	t.Parallel()

	logger, buf := newBufLogger(t, func(cfg *Config) {
		cfg.Format = FormatJSON
	})
	bridge := NewZerologBridge(logger)

	n, err := bridge.Write([]byte("not json\n"))
	if err != nil {
		t.Fatalf("bridge must never fail the writer: %v", err)
	}
	if n != len("not json\n") {
		t.Errorf("short write reported: %d", n)
	}
	if !strings.Contains(buf.String(), "not json") {
		t.Errorf("raw input lost: %q", buf.String())
	}
}
