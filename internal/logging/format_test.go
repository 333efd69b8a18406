// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func testConfig(format string) Config {
	cfg := DefaultConfig()
	cfg.Format = format
	return cfg
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatJSON)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	line := render(&cfg, LevelError, "disk full", Fields{"path": "/var/log/x"}, now)

	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		t.Fatalf("rendered line is not valid JSON: %v", err)
	}
	if obj["level"] != "ERROR" {
		t.Errorf("expected level ERROR, got %v", obj["level"])
	}
	if obj["message"] != "disk full" {
		t.Errorf("expected message 'disk full', got %v", obj["message"])
	}
	if obj["path"] != "/var/log/x" {
		t.Errorf("expected path field, got %v", obj["path"])
	}
	if obj["timestamp"] != "2026-03-14T09:26:53.000Z" {
		t.Errorf("unexpected timestamp: %v", obj["timestamp"])
	}
}

func TestRenderMinimal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatMinimal)
	line := render(&cfg, LevelWarn, "low battery", Fields{"device": "sensor-7"}, time.Now())

	if line != "[WARN] low battery" {
		t.Errorf("minimal format must carry level and message only, got %q", line)
	}
}

func TestRenderStandard(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatStandard)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	line := render(&cfg, LevelInfo, "door opened", Fields{"room": "kitchen"}, now)

	if !strings.HasPrefix(line, "[2026-03-14T09:26:53.000Z] [INFO] door opened ") {
		t.Errorf("unexpected standard line: %q", line)
	}
	if !strings.Contains(line, `"room":"kitchen"`) {
		t.Errorf("fields segment missing: %q", line)
	}
}

func TestRenderStandardOmitsEmptySegments(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatStandard)
	cfg.Timestamp = false
	line := render(&cfg, LevelInfo, "plain", nil, time.Now())

	if line != "[INFO] plain" {
		t.Errorf("expected timestamp and fields omitted, got %q", line)
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatJSON)
	line := render(&cfg, LevelInfo, "login", Fields{
		"login":    "bob",
		"Password": "hunter2",
		"nested": map[string]any{
			"TOKEN": "abc123",
			"extra": []any{map[string]any{"secret": "deep"}},
			"safe":  "visible",
		},
	}, time.Now())

	if strings.Contains(line, "hunter2") || strings.Contains(line, "abc123") || strings.Contains(line, "deep") {
		t.Fatalf("sensitive values leaked: %q", line)
	}
	if !strings.Contains(line, MaskToken) {
		t.Errorf("mask token missing: %q", line)
	}
	if !strings.Contains(line, `"safe":"visible"`) || !strings.Contains(line, `"login":"bob"`) {
		t.Errorf("non-sensitive siblings must be untouched: %q", line)
	}
}

func TestMaskDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatJSON)
	cfg.MaskSensitive = false
	line := render(&cfg, LevelInfo, "login", Fields{"password": "hunter2"}, time.Now())

	if !strings.Contains(line, "hunter2") {
		t.Errorf("masking disabled but value hidden: %q", line)
	}
}

func TestRenderNeverFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig(FormatJSON)
	// Channels cannot be serialized; the value must be coerced, not dropped.
	line := render(&cfg, LevelInfo, "odd value", Fields{"ch": make(chan int)}, time.Now())

	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		t.Fatalf("coerced line is not valid JSON: %v", err)
	}
	if obj["message"] != "odd value" {
		t.Errorf("record lost during coercion: %q", line)
	}
	if _, ok := obj["ch"].(string); !ok {
		t.Errorf("unserializable value should be coerced to string, got %T", obj["ch"])
	}
}

func TestFieldsMergeCallSiteWins(t *testing.T) {
	t.Parallel()

	base := Fields{"requestId": "abc", "shared": "context"}
	merged := base.merge(Fields{"shared": "callsite", "extra": 1})

	if merged["requestId"] != "abc" {
		t.Error("context key lost")
	}
	if merged["shared"] != "callsite" {
		t.Errorf("call-site key must win, got %v", merged["shared"])
	}
	if merged["extra"] != 1 {
		t.Error("call-site key missing")
	}
	if base["shared"] != "context" {
		t.Error("merge must not mutate the receiver")
	}
}
