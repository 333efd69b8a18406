// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sinkSet owns the output destinations of one configuration snapshot.
// The per-level file paths are fixed for the lifetime of the snapshot;
// rotation renames the file away and recreates it at the same path, so
// there is at most one live file per level at any time.
type sinkSet struct {
	console io.Writer

	// files maps each level to its current file path.
	files map[Level]string

	consoleMu sync.Mutex
}

// fileLocks serializes append+rotate per file path so two concurrent
// writers cannot both rotate the same file. Process-wide: configuration
// snapshots come and go, the paths they point at do not.
var fileLocks sync.Map // path -> *sync.Mutex

// newSinkSet builds the destinations for a config snapshot. When the
// file output is active the log directory is created and the per-level
// file paths initialized.
func newSinkSet(cfg *Config) (*sinkSet, error) {
	console := cfg.ConsoleWriter
	if console == nil {
		console = os.Stdout
	}
	s := &sinkSet{console: console}

	if cfg.hasOutput(OutputFile) {
		if err := s.initFiles(cfg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// initFiles creates the log directory and maps each level to its dated
// file path. Idempotent; called again when the file output is added at
// runtime.
func (s *sinkSet) initFiles(cfg *Config) error {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", cfg.Dir, err)
	}
	now := time.Now()
	files := make(map[Level]string, len(Levels()))
	for _, lvl := range Levels() {
		files[lvl] = filepath.Join(cfg.Dir, cfg.fileName(lvl, now))
	}
	s.files = files
	return nil
}

// writeConsole writes one rendered line to the console destination,
// wrapped in the level's ANSI color when colorize is on.
func (s *sinkSet) writeConsole(cfg *Config, level Level, line string) {
	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()

	if cfg.Colorize {
		fmt.Fprintln(s.console, level.color()+line+ansiReset)
		return
	}
	fmt.Fprintln(s.console, line)
}

// writeFile appends one rendered line to the level's current file and
// runs the rotation check. Failures are reported through the console
// sink and never propagated: logging must not cascade failures into the
// caller.
func (s *sinkSet) writeFile(cfg *Config, level Level, line string) {
	path, ok := s.files[level]
	if !ok {
		return
	}

	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	if err := appendLine(path, line); err != nil {
		sinkErrors.WithLabelValues(OutputFile).Inc()
		s.reportError(cfg, fmt.Sprintf("Failed to write to log file: %v", err))
		return
	}

	s.checkAndRotate(cfg, level, path)
}

// lockFor returns the mutex guarding a file path.
func lockFor(path string) *sync.Mutex {
	if mu, ok := fileLocks.Load(path); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// appendLine appends line plus newline, creating the file if needed.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// reportError renders an ERROR record and writes it to the console sink
// only. The console is assumed always available; routing the failure
// there avoids recursing into the failing destination.
func (s *sinkSet) reportError(cfg *Config, msg string) {
	line := render(cfg, LevelError, msg, nil, time.Now())
	s.writeConsole(cfg, LevelError, line)
}
