// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("NewGormStore failed: %v", err)
	}
	return store
}

func TestGormStoreSaveAndQuery(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	event := Event{
		ID:        "11111111-2222-3333-4444-555555555555",
		Timestamp: time.Now(),
		Kind:      KindLoginSuccess,
		Actor:     &Actor{ID: 7, Login: "alice", Role: "admin"},
		IP:        "1.2.3.4",
		UserAgent: "curl/8.0",
		Details:   map[string]any{"method": "password"},
	}
	if err := store.Save(ctx, &event); err != nil {
		t.Fatalf("save: %v", err)
	}

	events, err := store.Query(ctx, DefaultQueryFilter())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	got := events[0]
	if got.Kind != KindLoginSuccess || got.IP != "1.2.3.4" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.Actor == nil || got.Actor.ID != 7 {
		t.Errorf("actor ID lost: %+v", got.Actor)
	}
	if got.Details["method"] != "password" {
		t.Errorf("details lost: %v", got.Details)
	}
}

func TestGormStoreFilters(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	for i, kind := range []Kind{KindLoginSuccess, KindLoginFailure, KindLoginFailure} {
		event := Event{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Kind:      kind,
			IP:        "1.2.3.4",
		}
		if err := store.Save(ctx, &event); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	count, err := store.Count(ctx, QueryFilter{Kinds: []Kind{KindLoginFailure}})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected two failures, got %d", count)
	}

	events, err := store.Query(ctx, QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("limit not applied: %d results", len(events))
	}
}

func TestGormStoreBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	sqlDB, err := store.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for i := 0; i < 5; i++ {
		event := Event{Timestamp: time.Now(), Kind: KindSuspiciousActivity}
		if err := store.Save(ctx, &event); err == nil {
			t.Fatal("save must fail on a closed database")
		}
	}

	event := Event{Timestamp: time.Now(), Kind: KindSuspiciousActivity}
	if err := store.Save(ctx, &event); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
}

func TestGormStoreRetention(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	old := Event{Timestamp: time.Now().AddDate(0, 0, -120), Kind: KindLogout}
	recent := Event{Timestamp: time.Now(), Kind: KindLoginSuccess}
	if err := store.Save(ctx, &old); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, &recent); err != nil {
		t.Fatalf("save: %v", err)
	}

	deleted, err := store.DeleteOlderThan(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected one deleted row, got %d", deleted)
	}

	remaining, err := store.Count(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 1 {
		t.Errorf("expected one remaining row, got %d", remaining)
	}
}
