// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package audit records security-relevant events for compliance and
// forensic analysis. Every event is persisted twice: one JSON line
// appended to a dated audit file and one row in the relational store.
// The two paths fail independently and never fail the caller.
package audit

import (
	"context"
	"time"
)

// Kind names a security event. The set below is the fixed vocabulary
// used across the platform; unknown strings pass through unchanged so
// new call sites do not need a code change here first.
type Kind string

const (
	KindLoginSuccess          Kind = "LOGIN_SUCCESS"
	KindLoginFailure          Kind = "LOGIN_FAILURE"
	KindLogout                Kind = "LOGOUT"
	KindPasswordChange        Kind = "PASSWORD_CHANGE"
	KindPasswordResetRequest  Kind = "PASSWORD_RESET_REQUEST"
	KindPasswordResetComplete Kind = "PASSWORD_RESET_COMPLETE"
	KindUserCreated           Kind = "USER_CREATED"
	KindUserUpdated           Kind = "USER_UPDATED"
	KindUserDeleted           Kind = "USER_DELETED"
	KindRoleChanged           Kind = "ROLE_CHANGED"
	KindPermissionChanged     Kind = "PERMISSION_CHANGED"
	KindUnauthorizedAccess    Kind = "UNAUTHORIZED_ACCESS"
	KindSuspiciousActivity    Kind = "SUSPICIOUS_ACTIVITY"
)

// timestampLayout matches the rendering used by the logging pipeline:
// UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Actor is the authenticated identity behind an event. A nil Actor on
// an Event means the action was anonymous (for example a failed login).
type Actor struct {
	// ID is the user's database identifier.
	ID int64 `json:"id"`

	// Login is the user's login name.
	Login string `json:"login"`

	// Role is the user's permission group.
	Role string `json:"role"`
}

// Event is one security audit record.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Kind categorizes the event.
	Kind Kind `json:"event"`

	// Actor who performed the action; nil for anonymous.
	Actor *Actor `json:"user,omitempty"`

	// IP is the client address; "unknown" when unavailable.
	IP string `json:"ip"`

	// UserAgent of the client; "unknown" when unavailable.
	UserAgent string `json:"userAgent"`

	// Details carries event-specific fields.
	Details map[string]any `json:"details,omitempty"`
}

// toMap serializes the event the way it is written to the audit file
// and logged: detail fields are spread at the top level and an
// anonymous actor is rendered as the literal string "anonymous".
func (e *Event) toMap() map[string]any {
	out := make(map[string]any, len(e.Details)+5)
	for k, v := range e.Details {
		out[k] = v
	}
	out["timestamp"] = e.Timestamp.UTC().Format(timestampLayout)
	out["event"] = string(e.Kind)
	if e.Actor != nil {
		out["user"] = map[string]any{
			"id":    e.Actor.ID,
			"login": e.Actor.Login,
			"role":  e.Actor.Role,
		}
	} else {
		out["user"] = "anonymous"
	}
	out["ip"] = e.IP
	out["userAgent"] = e.UserAgent
	return out
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Query retrieves events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// DeleteOlderThan removes events older than the given time and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Kinds filters by event kinds.
	Kinds []Kind `json:"kinds,omitempty"`

	// ActorID filters by actor ID.
	ActorID *int64 `json:"actor_id,omitempty"`

	// IP filters by client address.
	IP string `json:"ip,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// matches reports whether an event passes all filter criteria. Shared
// by the in-memory store; the relational store filters in SQL.
func (f *QueryFilter) matches(event *Event) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if event.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.ActorID != nil {
		if event.Actor == nil || event.Actor.ID != *f.ActorID {
			return false
		}
	}
	if f.IP != "" && event.IP != f.IP {
		return false
	}

	if f.StartTime != nil && event.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && event.Timestamp.After(*f.EndTime) {
		return false
	}

	return true
}
