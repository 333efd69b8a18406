// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"io"
	"slices"
	"strings"
	"time"
)

// Output names accepted by Config.Outputs.
const (
	OutputConsole = "console"
	OutputFile    = "file"
)

// Format names accepted by Config.Format.
const (
	FormatStandard = "standard"
	FormatJSON     = "json"
	FormatMinimal  = "minimal"
)

// MaskToken replaces the value of any sensitive field in rendered output.
const MaskToken = "********"

// timestampLayout matches the wire format used across sinks and the
// analyzer: UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Config holds the full configuration of a Logger. A Logger owns an
// immutable snapshot of its Config; all mutation goes through the
// explicit reconfiguration operations on Logger.
type Config struct {
	// Level is the minimum level name: ERROR, WARN, INFO, DEBUG, TRACE.
	Level string `json:"level" koanf:"level" validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE error warn info debug trace"`

	// Outputs is the set of active destinations: "console" and/or "file".
	Outputs []string `json:"outputs" koanf:"outputs" validate:"dive,oneof=console file"`

	// Dir is the directory that holds log files for the file output.
	Dir string `json:"dir" koanf:"dir"`

	// MaxSize is the rotation threshold per log file, in bytes.
	MaxSize int64 `json:"maxSize" koanf:"max_size" validate:"omitempty,min=1024"`

	// MaxFiles is the total number of files retained per log stream,
	// the live file included.
	MaxFiles int `json:"maxFiles" koanf:"max_files" validate:"omitempty,min=2"`

	// NamePattern is the log filename pattern. The %DATE% token is
	// replaced with the current date and %LEVEL% with the lower-case
	// level name.
	NamePattern string `json:"namePattern" koanf:"name_pattern"`

	// Format selects the rendered line shape: standard, json or minimal.
	Format string `json:"format" koanf:"format" validate:"omitempty,oneof=standard json minimal"`

	// Colorize wraps console lines in an ANSI color per level.
	Colorize bool `json:"colorize" koanf:"colorize"`

	// Timestamp includes a timestamp segment in rendered lines.
	Timestamp bool `json:"includeTimestamp" koanf:"include_timestamp"`

	// MaskSensitive replaces values of sensitive fields with MaskToken.
	MaskSensitive bool `json:"maskSensitiveData" koanf:"mask_sensitive_data"`

	// SensitiveFields lists field names masked when MaskSensitive is on.
	// Matching is case-insensitive and applies at any nesting depth.
	SensitiveFields []string `json:"sensitiveFields" koanf:"sensitive_fields"`

	// ConsoleWriter overrides the console destination. Defaults to
	// os.Stdout. Not part of the serialized configuration.
	ConsoleWriter io.Writer `json:"-" koanf:"-" validate:"-"`
}

// DefaultConfig returns the configuration used when nothing else is
// specified: INFO to console, masking on, 10MiB rotation keeping 5 files.
func DefaultConfig() Config {
	return Config{
		Level:           "INFO",
		Outputs:         []string{OutputConsole},
		Dir:             "logs",
		MaxSize:         10 * 1024 * 1024,
		MaxFiles:        5,
		NamePattern:     "app-%DATE%.log",
		Format:          FormatStandard,
		Colorize:        true,
		Timestamp:       true,
		MaskSensitive:   true,
		SensitiveFields: []string{"password", "token", "secret", "authorization"},
	}
}

// normalize fills zero values from the defaults so a partially specified
// Config (for example a custom one submitted over the admin API) is usable.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Level == "" {
		c.Level = def.Level
	}
	if len(c.Outputs) == 0 {
		c.Outputs = def.Outputs
	}
	if c.Dir == "" {
		c.Dir = def.Dir
	}
	if c.MaxSize <= 0 {
		c.MaxSize = def.MaxSize
	}
	if c.MaxFiles <= 1 {
		c.MaxFiles = def.MaxFiles
	}
	if c.NamePattern == "" {
		c.NamePattern = def.NamePattern
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.SensitiveFields == nil {
		c.SensitiveFields = def.SensitiveFields
	}
	return c
}

// clone returns a deep copy so callers can never mutate a live snapshot.
func (c Config) clone() Config {
	c.Outputs = slices.Clone(c.Outputs)
	c.SensitiveFields = slices.Clone(c.SensitiveFields)
	return c
}

// hasOutput reports whether the named destination is active.
func (c Config) hasOutput(name string) bool {
	return slices.Contains(c.Outputs, name)
}

// fileName expands the name pattern for a level at the given time.
func (c *Config) fileName(level Level, now time.Time) string {
	name := strings.ReplaceAll(c.NamePattern, "%DATE%", now.UTC().Format("2006-01-02"))
	return strings.ReplaceAll(name, "%LEVEL%", strings.ToLower(level.String()))
}
