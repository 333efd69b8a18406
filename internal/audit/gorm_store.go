// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
)

// AuditLog is the relational row shape for one audit event.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	EventID   string    `gorm:"size:36;uniqueIndex"`
	CreatedAt time.Time `gorm:"index"`
	EventType string    `gorm:"size:64;index"`
	UserID    *int64    `gorm:"index"`
	IPAddress string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:256"`
	Details   string
}

// TableName fixes the table name independent of GORM's pluralization.
func (AuditLog) TableName() string { return "audit_logs" }

// GormStore implements Store on a relational database. Writes go
// through a circuit breaker: a down database fails fast instead of
// stalling request handling, and the trail degrades to file-only
// persistence until the breaker closes again.
type GormStore struct {
	db      *gorm.DB
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewGormStore creates the relational audit store and migrates its
// schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&AuditLog{}); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "audit-db",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &GormStore{
		db:      db,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}, nil
}

// Save inserts one event row through the circuit breaker.
func (s *GormStore) Save(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	row := AuditLog{
		EventID:   event.ID,
		CreatedAt: event.Timestamp,
		EventType: string(event.Kind),
		IPAddress: event.IP,
		UserAgent: event.UserAgent,
		Details:   marshalDetails(event.Details),
	}
	if event.Actor != nil {
		id := event.Actor.ID
		row.UserID = &id
	}

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.db.WithContext(ctx).Create(&row).Error
	})
	return err
}

// Query retrieves events matching the filter, newest first.
func (s *GormStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var rows []AuditLog
	q := s.applyFilter(s.db.WithContext(ctx), &filter).Order("created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toEvent())
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *GormStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	var count int64
	err := s.applyFilter(s.db.WithContext(ctx).Model(&AuditLog{}), &filter).Count(&count).Error
	return count, err
}

// DeleteOlderThan removes events older than the given time.
func (s *GormStore) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&AuditLog{})
	return res.RowsAffected, res.Error
}

// applyFilter translates a QueryFilter into WHERE clauses.
func (s *GormStore) applyFilter(q *gorm.DB, filter *QueryFilter) *gorm.DB {
	if len(filter.Kinds) > 0 {
		kinds := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			kinds = append(kinds, string(k))
		}
		q = q.Where("event_type IN ?", kinds)
	}
	if filter.ActorID != nil {
		q = q.Where("user_id = ?", *filter.ActorID)
	}
	if filter.IP != "" {
		q = q.Where("ip_address = ?", filter.IP)
	}
	if filter.StartTime != nil {
		q = q.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		q = q.Where("created_at <= ?", *filter.EndTime)
	}
	return q
}

// toEvent rebuilds an Event from its row. The actor's login and role
// live in the details blob only; the row carries the ID column.
func (r *AuditLog) toEvent() Event {
	event := Event{
		ID:        r.EventID,
		Timestamp: r.CreatedAt,
		Kind:      Kind(r.EventType),
		IP:        r.IPAddress,
		UserAgent: r.UserAgent,
	}
	if r.UserID != nil {
		event.Actor = &Actor{ID: *r.UserID}
	}
	if r.Details != "" {
		var details map[string]any
		if err := json.Unmarshal([]byte(r.Details), &details); err == nil {
			event.Details = details
		}
	}
	return event
}

// marshalDetails serializes the detail map, degrading to an empty
// object rather than failing the insert.
func marshalDetails(details map[string]any) string {
	if len(details) == 0 {
		return "{}"
	}
	data, err := json.Marshal(details)
	if err != nil {
		return "{}"
	}
	return string(data)
}
