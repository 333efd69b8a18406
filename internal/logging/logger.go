// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"sync"
	"sync/atomic"
	"time"
)

// snapshot is one immutable configuration state of a logger. Emits read
// the current snapshot through an atomic pointer; reconfiguration
// builds a new snapshot and swaps it in, so handles never observe a
// half-applied config and no locks sit on the emit path.
type snapshot struct {
	cfg   Config
	level Level
	sinks *sinkSet
}

// cell is the shared configuration slot. Every handle derived from one
// logger (children included) points at the same cell, which makes
// reconfiguration visible to all outstanding handles.
type cell struct {
	mu  sync.Mutex // serializes reconfiguration
	cur atomic.Pointer[snapshot]
}

// Logger is the logging facade. The zero value is not usable; construct
// with New. Logger handles are cheap values safe for concurrent use.
type Logger struct {
	cell *cell
	ctx  Fields // context fields merged into every record; nil for the root
}

// New creates a Logger from cfg. Missing values are filled from the
// defaults. An unknown level name degrades to INFO with a WARN record
// rather than failing; only an unusable file destination returns an error.
func New(cfg Config) (*Logger, error) {
	cfg = cfg.normalize().clone()

	level, levelErr := ParseLevel(cfg.Level)
	if levelErr != nil {
		level = LevelInfo
		cfg.Level = level.String()
	}

	sinks, err := newSinkSet(&cfg)
	if err != nil {
		return nil, err
	}

	l := &Logger{cell: &cell{}}
	l.cell.cur.Store(&snapshot{cfg: cfg, level: level, sinks: sinks})

	if levelErr != nil {
		l.Warn("Invalid log level, falling back to INFO")
	}
	return l, nil
}

// Log emits one record. Records below the configured minimum severity
// are dropped. Log never fails the caller: every sink error is handled
// inside the pipeline.
func (l *Logger) Log(level Level, msg string, fields ...Fields) {
	if !level.valid() {
		level = LevelInfo
	}
	snap := l.cell.cur.Load()
	if level > snap.level {
		recordsDropped.WithLabelValues(level.String()).Inc()
		return
	}
	recordsEmitted.WithLabelValues(level.String()).Inc()

	merged := l.ctx
	for _, f := range fields {
		merged = merged.merge(f)
	}

	line := render(&snap.cfg, level, msg, merged, time.Now())
	if snap.cfg.hasOutput(OutputConsole) {
		snap.sinks.writeConsole(&snap.cfg, level, line)
	}
	if snap.cfg.hasOutput(OutputFile) {
		snap.sinks.writeFile(&snap.cfg, level, line)
	}
}

// Error emits a record at ERROR level.
func (l *Logger) Error(msg string, fields ...Fields) { l.Log(LevelError, msg, fields...) }

// Warn emits a record at WARN level.
func (l *Logger) Warn(msg string, fields ...Fields) { l.Log(LevelWarn, msg, fields...) }

// Info emits a record at INFO level.
func (l *Logger) Info(msg string, fields ...Fields) { l.Log(LevelInfo, msg, fields...) }

// Debug emits a record at DEBUG level.
func (l *Logger) Debug(msg string, fields ...Fields) { l.Log(LevelDebug, msg, fields...) }

// Trace emits a record at TRACE level.
func (l *Logger) Trace(msg string, fields ...Fields) { l.Log(LevelTrace, msg, fields...) }

// Child returns a handle that merges ctx into the fields of every
// record it emits, with call-site fields winning on collision. The
// child shares the parent's configuration cell: destinations, rotation
// state and later reconfigurations are common to both.
func (l *Logger) Child(ctx Fields) *Logger {
	return &Logger{cell: l.cell, ctx: l.ctx.merge(ctx)}
}

// SetLevel changes the minimum severity by name. A known name is
// applied and announced at INFO; an unknown name leaves the state
// untouched and emits a WARN instead of failing.
func (l *Logger) SetLevel(name string) {
	level, err := ParseLevel(name)
	if err != nil {
		l.Warn("Invalid log level: " + name)
		return
	}

	l.cell.mu.Lock()
	old := l.cell.cur.Load()
	cfg := old.cfg.clone()
	cfg.Level = level.String()
	l.cell.cur.Store(&snapshot{cfg: cfg, level: level, sinks: old.sinks})
	l.cell.mu.Unlock()

	l.Info("Log level changed to " + level.String())
}

// AddOutput activates a destination. Adding "file" lazily creates the
// log directory and the per-level file paths. Unknown names degrade to
// a WARN; adding an already active destination is a no-op.
func (l *Logger) AddOutput(name string) {
	if name != OutputConsole && name != OutputFile {
		l.Warn("Invalid log output: " + name)
		return
	}

	l.cell.mu.Lock()
	old := l.cell.cur.Load()
	if old.cfg.hasOutput(name) {
		l.cell.mu.Unlock()
		return
	}
	cfg := old.cfg.clone()
	cfg.Outputs = append(cfg.Outputs, name)
	sinks, err := newSinkSet(&cfg)
	if err != nil {
		l.cell.mu.Unlock()
		l.Error("Failed to add log output: " + err.Error())
		return
	}
	l.cell.cur.Store(&snapshot{cfg: cfg, level: old.level, sinks: sinks})
	l.cell.mu.Unlock()

	l.Info("Added log output: " + name)
}

// RemoveOutput deactivates a destination. Removing an inactive one is a
// no-op.
func (l *Logger) RemoveOutput(name string) {
	l.cell.mu.Lock()
	old := l.cell.cur.Load()
	if !old.cfg.hasOutput(name) {
		l.cell.mu.Unlock()
		return
	}
	cfg := old.cfg.clone()
	outputs := make([]string, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		if o != name {
			outputs = append(outputs, o)
		}
	}
	cfg.Outputs = outputs
	l.cell.cur.Store(&snapshot{cfg: cfg, level: old.level, sinks: old.sinks})
	l.cell.mu.Unlock()

	l.Info("Removed log output: " + name)
}

// Reconfigure swaps in a full new configuration. The swap is atomic:
// records emitted concurrently see either the old or the new snapshot,
// and every outstanding handle observes the new one afterwards. On
// error the current configuration stays in effect.
func (l *Logger) Reconfigure(cfg Config) error {
	cfg = cfg.normalize().clone()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = LevelInfo
		cfg.Level = level.String()
	}

	l.cell.mu.Lock()
	if cfg.ConsoleWriter == nil {
		cfg.ConsoleWriter = l.cell.cur.Load().cfg.ConsoleWriter
	}
	sinks, sinkErr := newSinkSet(&cfg)
	if sinkErr != nil {
		l.cell.mu.Unlock()
		return sinkErr
	}
	l.cell.cur.Store(&snapshot{cfg: cfg, level: level, sinks: sinks})
	l.cell.mu.Unlock()

	l.Info("Logger configuration updated")
	return nil
}

// GetConfig returns a defensive copy of the current configuration.
// Mutating it has no effect on the logger.
func (l *Logger) GetConfig() Config {
	return l.cell.cur.Load().cfg.clone()
}

// Level returns the current minimum severity.
func (l *Logger) Level() Level {
	return l.cell.cur.Load().level
}

// FilePath returns the current file path for a level, or empty when the
// file output is inactive. Exposed for the audit trail and tests.
func (l *Logger) FilePath(level Level) string {
	snap := l.cell.cur.Load()
	if snap.sinks.files == nil {
		return ""
	}
	return snap.sinks.files[level]
}
