// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// checkAndRotate rotates the level's file when it has reached the
// configured size threshold. Must be called with the file's lock held.
func (s *sinkSet) checkAndRotate(cfg *Config, level Level, path string) {
	info, err := os.Stat(path)
	if err != nil {
		// The file may not exist yet; nothing to rotate.
		return
	}
	if info.Size() < cfg.MaxSize {
		return
	}
	s.rotate(cfg, level, path)
}

// rotate renames the live file to a timestamp-suffixed name, recreates
// an empty file at the original path and prunes old rotated files so at
// most MaxFiles-1 of them remain. The rotation announcement is written
// through the normal formatter but appended directly, bypassing the
// size check, so rotation can never re-trigger itself in the same pass.
func (s *sinkSet) rotate(cfg *Config, level Level, path string) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	// Prune oldest rotated siblings first. Timestamp suffixes sort
	// chronologically, so lexicographic order is age order.
	rotated := listRotated(dir, base, filepath.Base(path))
	for len(rotated) >= cfg.MaxFiles-1 && len(rotated) > 0 {
		if err := os.Remove(filepath.Join(dir, rotated[0])); err != nil {
			s.reportError(cfg, fmt.Sprintf("Failed to prune rotated log file: %v", err))
			break
		}
		rotated = rotated[1:]
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(timestampLayout))
	newPath := filepath.Join(dir, base+"."+stamp+ext)

	if err := os.Rename(path, newPath); err != nil {
		// A concurrent writer may have rotated already; treat as done.
		s.reportError(cfg, fmt.Sprintf("Failed to rotate log file: %v", err))
		return
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		s.reportError(cfg, fmt.Sprintf("Failed to recreate log file after rotation: %v", err))
	}
	rotationsTotal.Inc()

	// Announce the rotation through the same pipeline. The file write is
	// a plain append, exempt from another size check. The INFO path has
	// its own lock when the name pattern gives levels distinct files;
	// when it is the path being rotated its lock is already held.
	line := render(cfg, LevelInfo, "Log file rotated to "+newPath, nil, time.Now())
	if cfg.hasOutput(OutputConsole) {
		s.writeConsole(cfg, LevelInfo, line)
	}
	if infoPath, ok := s.files[LevelInfo]; ok {
		if infoPath != path {
			mu := lockFor(infoPath)
			mu.Lock()
			defer mu.Unlock()
		}
		if err := appendLine(infoPath, line); err != nil {
			s.reportError(cfg, fmt.Sprintf("Failed to write rotation notice: %v", err))
		}
	}
}

// listRotated returns the rotated siblings of a log file, sorted oldest
// first. A sibling starts with the live file's base name but is not the
// live file itself.
func listRotated(dir, base, liveName string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name != liveName && strings.HasPrefix(name, base) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
