// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package analyzer reads log files back for search and reporting. It is
// independent of the write path: it works on whatever files sit in the
// log directory, including rotated files and lines written by other
// tools, degrading gracefully on formats it does not understand.
package analyzer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Record source tags. Structured lines parsed as JSON, heuristic lines
// recovered from the bracketed text format, raw lines kept verbatim.
const (
	SourceStructured = "structured"
	SourceHeuristic  = "heuristic"
	SourceRaw        = "raw"
)

// filenameDate extracts the date embedded in rotated/dated file names.
var filenameDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// bracketSegment matches one [segment] of the text format.
var bracketSegment = regexp.MustCompile(`\[(.*?)\]`)

// levelSegment matches a bracketed upper-case level name.
var levelSegment = regexp.MustCompile(`\[([A-Z]+)\]`)

// Record is one parsed log line.
type Record struct {
	// Source tags how the line was recovered.
	Source string `json:"source"`

	// Data holds the parsed fields. Raw lines carry a single "raw" key.
	Data map[string]any `json:"data"`
}

// Level returns the record's level name, or empty when unknown.
func (r *Record) Level() string {
	s, _ := r.Data["level"].(string)
	return s
}

// Timestamp returns the record's timestamp string, or empty.
func (r *Record) Timestamp() string {
	s, _ := r.Data["timestamp"].(string)
	return s
}

// Message returns the record's message, or empty.
func (r *Record) Message() string {
	s, _ := r.Data["message"].(string)
	return s
}

// day buckets a timestamp string by its date part.
func (r *Record) day() string {
	ts := r.Timestamp()
	if ts == "" {
		return "unknown"
	}
	if i := strings.IndexByte(ts, 'T'); i > 0 {
		return ts[:i]
	}
	return ts
}

// Match is one search hit.
type Match struct {
	// File is the base name of the file the hit came from.
	File string `json:"file"`

	// Record is the parsed line.
	Record Record `json:"data"`
}

// SearchOptions narrows a search.
type SearchOptions struct {
	// MaxResults caps the total number of hits across all files.
	// Defaults to 100.
	MaxResults int `json:"maxResults"`

	// StartDate skips files whose filename date is older.
	StartDate *time.Time `json:"startDate,omitempty"`

	// EndDate skips files whose filename date is newer.
	EndDate *time.Time `json:"endDate,omitempty"`

	// Level keeps only records with this level name. Records without a
	// level (raw lines) always pass.
	Level string `json:"level,omitempty"`

	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool `json:"caseSensitive"`
}

// ErrorStats aggregates ERROR records over a trailing window.
type ErrorStats struct {
	TotalErrors int            `json:"totalErrors"`
	ErrorsByDay map[string]int `json:"errorsByDay"`
	TopErrors   []MessageCount `json:"topErrors"`
}

// MessageCount is one message with its occurrence count.
type MessageCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Summary is the full-directory report.
type Summary struct {
	TotalLogs    int            `json:"totalLogs"`
	ByLevel      map[string]int `json:"byLevel"`
	ByDate       map[string]int `json:"byDate"`
	RecentErrors []Record       `json:"recentErrors"`
}

// Analyzer reads and aggregates the files of one log directory.
type Analyzer struct {
	dir string
}

// New creates an Analyzer over dir.
func New(dir string) *Analyzer {
	return &Analyzer{dir: dir}
}

// ListFiles returns the .log files of the directory, sorted by name so
// repeated scans visit files in the same order.
func (a *Analyzer) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory %s: %w", a.dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		files = append(files, filepath.Join(a.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ParseLine recovers a structured record from one log line. JSON lines
// parse directly; bracketed text lines fall back to a heuristic; and
// anything else is kept verbatim under a "raw" key rather than dropped.
func (a *Analyzer) ParseLine(line string) Record {
	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err == nil && data != nil {
		normalizeForeign(data)
		return Record{Source: SourceStructured, Data: data}
	}

	tsMatch := bracketSegment.FindStringSubmatch(line)
	lvlMatch := levelSegment.FindStringSubmatch(line)
	if tsMatch != nil && lvlMatch != nil {
		// The message starts after the level's closing bracket.
		msg := ""
		if i := strings.Index(line, "["+lvlMatch[1]+"]"); i >= 0 {
			msg = strings.TrimSpace(line[i+len(lvlMatch[1])+2:])
		}
		return Record{Source: SourceHeuristic, Data: map[string]any{
			"timestamp": tsMatch[1],
			"level":     lvlMatch[1],
			"message":   msg,
		}}
	}

	return Record{Source: SourceRaw, Data: map[string]any{"raw": line}}
}

// normalizeForeign maps common foreign JSON log keys (zerolog-style
// time/msg, lower-case level names) onto the canonical keys.
func normalizeForeign(data map[string]any) {
	if _, ok := data["timestamp"]; !ok {
		if t, ok := data["time"].(string); ok {
			data["timestamp"] = t
			delete(data, "time")
		}
	}
	if _, ok := data["message"]; !ok {
		if m, ok := data["msg"].(string); ok {
			data["message"] = m
			delete(data, "msg")
		}
	}
	if lvl, ok := data["level"].(string); ok {
		if upper := strings.ToUpper(strings.TrimSpace(lvl)); upper != lvl {
			switch upper {
			case "ERROR", "WARN", "INFO", "DEBUG", "TRACE":
				data["level"] = upper
			case "WARNING":
				data["level"] = "WARN"
			case "FATAL", "PANIC":
				data["level"] = "ERROR"
			}
		}
	}
}

// Search scans the log files for lines matching a regular expression.
// The pattern is tested against the serialized form of each parsed
// record, so field names and values both match.
func (a *Analyzer) Search(pattern string, opts SearchOptions) ([]Match, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 100
	}
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}

	files, err := a.ListFiles()
	if err != nil {
		return nil, err
	}

	var results []Match
	for _, file := range files {
		if skipFileByDate(file, opts.StartDate, opts.EndDate) {
			continue
		}

		err := scanLines(file, func(line string) bool {
			record := a.ParseLine(line)
			if opts.Level != "" {
				if lvl := record.Level(); lvl != "" && lvl != opts.Level {
					return true
				}
			}

			serialized, err := json.Marshal(record.Data)
			if err != nil {
				return true
			}
			if regex.Match(serialized) {
				results = append(results, Match{File: filepath.Base(file), Record: record})
			}
			return len(results) < opts.MaxResults
		})
		if err != nil {
			return nil, err
		}
		if len(results) >= opts.MaxResults {
			break
		}
	}
	return results, nil
}

// ErrorStats aggregates ERROR records from files within the trailing
// window of the given number of days.
func (a *Analyzer) ErrorStats(days int) (*ErrorStats, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	files, err := a.ListFiles()
	if err != nil {
		return nil, err
	}

	stats := &ErrorStats{ErrorsByDay: make(map[string]int)}
	counts := make(map[string]int)

	for _, file := range files {
		if d := dateFromFilename(file); d != nil && d.Before(cutoff) {
			continue
		}

		err := scanLines(file, func(line string) bool {
			record := a.ParseLine(line)
			if record.Level() != "ERROR" {
				return true
			}
			stats.TotalErrors++
			stats.ErrorsByDay[record.day()]++

			msg := record.Message()
			if msg == "" {
				msg = "Unknown error"
			}
			counts[msg]++
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	stats.TopErrors = topMessages(counts, 10)
	return stats, nil
}

// SummaryReport aggregates every record in the directory.
func (a *Analyzer) SummaryReport() (*Summary, error) {
	files, err := a.ListFiles()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ByLevel: make(map[string]int),
		ByDate:  make(map[string]int),
	}

	for _, file := range files {
		err := scanLines(file, func(line string) bool {
			summary.TotalLogs++
			record := a.ParseLine(line)

			if lvl := record.Level(); lvl != "" {
				summary.ByLevel[lvl]++
			}
			if ts := record.Timestamp(); ts != "" {
				summary.ByDate[record.day()]++
			}
			if record.Level() == "ERROR" && len(summary.RecentErrors) < 10 {
				summary.RecentErrors = append(summary.RecentErrors, record)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// scanLines streams a file line by line, stopping when fn returns false.
func scanLines(path string, fn func(line string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !fn(scanner.Text()) {
			break
		}
	}
	return scanner.Err()
}

// dateFromFilename extracts the embedded date of a dated file name.
func dateFromFilename(path string) *time.Time {
	m := filenameDate.FindString(filepath.Base(path))
	if m == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", m)
	if err != nil {
		return nil
	}
	return &d
}

// skipFileByDate reports whether a file falls outside the date range.
// Files without a date in their name are always scanned.
func skipFileByDate(path string, start, end *time.Time) bool {
	if start == nil && end == nil {
		return false
	}
	d := dateFromFilename(path)
	if d == nil {
		return false
	}
	if start != nil && d.Before(*start) {
		return true
	}
	if end != nil && d.After(*end) {
		return true
	}
	return false
}

// topMessages sorts message counts descending, ties broken by message,
// and keeps the first n.
func topMessages(counts map[string]int, n int) []MessageCount {
	out := make([]MessageCount, 0, len(counts))
	for msg, count := range counts {
		out = append(out, MessageCount{Message: msg, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
