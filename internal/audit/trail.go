// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/casaops/casaops/internal/logging"
)

// saveTimeout bounds one store insert. The triggering request is never
// delayed beyond this by a slow database.
const saveTimeout = 5 * time.Second

// Trail is the security audit service. Each recorded event flows
// through the regular logging pipeline at INFO (so it reaches the
// console and file sinks, masking included) and is then persisted
// independently to the dated audit file and the store.
type Trail struct {
	logger *logging.Logger
	dir    string
	store  Store
}

// New creates a Trail writing audit files under dir. The given logger
// is wrapped in a child carrying the audit context fields.
func New(logger *logging.Logger, dir string, store Store) (*Trail, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory %s: %w", dir, err)
	}
	return &Trail{
		logger: logger.Child(logging.Fields{"module": "AUDIT", "logType": "security"}),
		dir:    dir,
		store:  store,
	}, nil
}

// Record captures one security event. A nil actor records the event as
// anonymous. The client address and user agent are taken from the
// "ip" and "userAgent" detail fields, defaulting to "unknown".
//
// The file append and the store insert fail independently; either
// failure is logged at ERROR and never returned to the caller.
func (t *Trail) Record(ctx context.Context, kind Kind, actor *Actor, details map[string]any) Event {
	event := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Kind:      kind,
		Actor:     actor,
		IP:        detailString(details, "ip"),
		UserAgent: detailString(details, "userAgent"),
		Details:   details,
	}

	data := event.toMap()
	t.logger.Info("Security event: "+string(kind), logging.Fields(data))

	if err := t.appendToFile(&event, data); err != nil {
		t.logger.Error("Failed to write to audit log: " + err.Error())
	}

	if t.store != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		defer cancel()
		if err := t.store.Save(saveCtx, &event); err != nil {
			t.logger.Error("Failed to store audit log in database: " + err.Error())
		}
	}

	return event
}

// appendToFile writes the event as one JSON line to the day's audit file.
func (t *Trail) appendToFile(event *Event, data map[string]any) error {
	line, err := json.Marshal(data)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(t.FilePath(event.Timestamp), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// FilePath returns the audit file path for a given day.
func (t *Trail) FilePath(day time.Time) string {
	return filepath.Join(t.dir, "audit-"+day.UTC().Format("2006-01-02")+".log")
}

// Query retrieves stored events matching the filter.
func (t *Trail) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return t.store.Query(ctx, filter)
}

// Count returns the number of stored events matching the filter.
func (t *Trail) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return t.store.Count(ctx, filter)
}

// RunRetention deletes stored events older than retentionDays on every
// interval tick until ctx is canceled. Blocks; run under a supervisor.
func (t *Trail) RunRetention(ctx context.Context, interval time.Duration, retentionDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			count, err := t.store.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				t.logger.Error("Audit retention cleanup error: " + err.Error())
			} else if count > 0 {
				t.logger.Info("Cleaned up old audit events", logging.Fields{"count": count})
			}
		}
	}
}

// detailString reads a string detail field, defaulting to "unknown".
func detailString(details map[string]any, key string) string {
	if s, ok := details[key].(string); ok && s != "" {
		return s
	}
	return "unknown"
}
