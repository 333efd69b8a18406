// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Fields carries the structured values attached to a log record.
type Fields map[string]any

// clone returns a shallow copy of the field map.
func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// merge overlays other on top of f, other winning on key collision.
func (f Fields) merge(other Fields) Fields {
	if len(other) == 0 {
		return f
	}
	out := f.clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// render produces the single-line representation of a record according
// to the config's format. It never fails: values that cannot be
// serialized are coerced to their string representation.
func render(cfg *Config, level Level, msg string, fields Fields, now time.Time) string {
	if cfg.MaskSensitive {
		fields = maskFields(fields, cfg.SensitiveFields)
	}

	timestamp := ""
	if cfg.Timestamp {
		timestamp = now.UTC().Format(timestampLayout)
	}

	switch cfg.Format {
	case FormatJSON:
		obj := make(map[string]any, len(fields)+3)
		for k, v := range fields {
			obj[k] = v
		}
		obj["timestamp"] = timestamp
		obj["level"] = level.String()
		obj["message"] = msg
		return marshalLossy(obj)

	case FormatMinimal:
		return fmt.Sprintf("[%s] %s", level, msg)

	default: // FormatStandard
		var b strings.Builder
		if timestamp != "" {
			b.WriteString("[" + timestamp + "] ")
		}
		b.WriteString("[" + level.String() + "] ")
		b.WriteString(msg)
		if len(fields) > 0 {
			b.WriteString(" " + marshalLossy(map[string]any(fields)))
		}
		return b.String()
	}
}

// marshalLossy serializes v to compact JSON. If any value resists
// serialization the map is retried with every value coerced to a string,
// so a bad field can never take down the whole record.
func marshalLossy(obj map[string]any) string {
	data, err := json.Marshal(obj)
	if err == nil {
		return string(data)
	}

	coerced := make(map[string]any, len(obj))
	for k, v := range obj {
		if _, verr := json.Marshal(v); verr != nil {
			coerced[k] = fmt.Sprint(v)
		} else {
			coerced[k] = v
		}
	}
	data, err = json.Marshal(coerced)
	if err != nil {
		// Unreachable in practice: every value is now a plain string.
		return fmt.Sprintf("%v", coerced)
	}
	return string(data)
}

// maskFields returns a copy of fields with the value of every key that
// case-insensitively matches a sensitive name replaced by MaskToken.
// Masking recurses into nested maps and slices so sensitive values are
// caught at any depth.
func maskFields(fields Fields, sensitive []string) Fields {
	if len(fields) == 0 || len(sensitive) == 0 {
		return fields
	}
	return Fields(maskMap(map[string]any(fields), sensitive))
}

func maskMap(m map[string]any, sensitive []string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSensitiveKey(k, sensitive) {
			out[k] = MaskToken
			continue
		}
		out[k] = maskValue(v, sensitive)
	}
	return out
}

func maskValue(v any, sensitive []string) any {
	switch t := v.(type) {
	case map[string]any:
		return maskMap(t, sensitive)
	case Fields:
		return maskMap(map[string]any(t), sensitive)
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, sv := range t {
			if isSensitiveKey(k, sensitive) {
				out[k] = MaskToken
			} else {
				out[k] = sv
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = maskValue(e, sensitive)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string, sensitive []string) bool {
	for _, s := range sensitive {
		if strings.EqualFold(key, s) {
			return true
		}
	}
	return false
}
