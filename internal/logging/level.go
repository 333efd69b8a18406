// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the severity of a log record. Lower values are more severe:
// a record is emitted when its level is at or above the logger's
// configured minimum severity (i.e. its rank is <= the configured rank).
type Level int8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ErrUnknownLevel is returned by ParseLevel for names outside the fixed
// level set. Callers are expected to fall back to a default rather than fail.
var ErrUnknownLevel = errors.New("unknown log level")

// levelNames maps each level to its canonical upper-case label.
var levelNames = [...]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

// String returns the canonical upper-case label for the level.
func (l Level) String() string {
	if l < LevelError || l > LevelTrace {
		return fmt.Sprintf("LEVEL(%d)", int8(l))
	}
	return levelNames[l]
}

// valid reports whether l is one of the fixed levels.
func (l Level) valid() bool {
	return l >= LevelError && l <= LevelTrace
}

// ParseLevel converts a level name to a Level. Matching is
// case-insensitive; "warning" is accepted as an alias for WARN.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return LevelError, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "INFO":
		return LevelInfo, nil
	case "DEBUG":
		return LevelDebug, nil
	case "TRACE":
		return LevelTrace, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}

// Levels returns all levels in severity order, most severe first.
func Levels() []Level {
	return []Level{LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace}
}

// ANSI escape sequences for console output.
const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
	ansiBlue   = "\x1b[34m"
	ansiGray   = "\x1b[90m"
)

// color returns the ANSI color used for the level on the console sink.
func (l Level) color() string {
	switch l {
	case LevelError:
		return ansiRed
	case LevelWarn:
		return ansiYellow
	case LevelInfo:
		return ansiGreen
	case LevelDebug:
		return ansiBlue
	case LevelTrace:
		return ansiGray
	default:
		return ansiReset
	}
}
