// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/casaops/casaops/internal/audit"
)

type actorKey struct{}

// Authenticate resolves the bearer token of a request into an audit
// actor in the request context. Requests without a token, or with an
// invalid one, pass through anonymous; enforcement happens in
// RequireAdmin so public endpoints stay public.
func Authenticate(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := actorFromToken(r, secret); actor != nil {
				r = r.WithContext(context.WithValue(r.Context(), actorKey{}, actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose actor is missing or not an
// admin. Every rejection is recorded as an UNAUTHORIZED_ACCESS audit
// event before the 401/403 goes out.
func RequireAdmin(trail *audit.Trail) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())

			if actor == nil {
				recordDenied(r, trail, nil)
				respondForbidden(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if actor.Role != "admin" {
				recordDenied(r, trail, actor)
				respondForbidden(w, http.StatusForbidden, "admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromContext returns the authenticated actor, or nil.
func ActorFromContext(ctx context.Context) *audit.Actor {
	if actor, ok := ctx.Value(actorKey{}).(*audit.Actor); ok {
		return actor
	}
	return nil
}

// actorFromToken parses and verifies the Authorization header.
func actorFromToken(r *http.Request, secret string) *audit.Actor {
	header := r.Header.Get("Authorization")
	tokenStr, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenStr == "" {
		return nil
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	actor := &audit.Actor{}
	if id, ok := claims["sub"].(float64); ok {
		actor.ID = int64(id)
	}
	if login, ok := claims["login"].(string); ok {
		actor.Login = login
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = role
	}
	return actor
}

// recordDenied audits one rejected request.
func recordDenied(r *http.Request, trail *audit.Trail, actor *audit.Actor) {
	if trail == nil {
		return
	}
	trail.Record(r.Context(), audit.KindUnauthorizedAccess, actor, map[string]any{
		"ip":        clientIP(r),
		"userAgent": r.UserAgent(),
		"method":    r.Method,
		"path":      r.URL.Path,
	})
}

// respondForbidden writes the rejection as a small JSON body.
func respondForbidden(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`+"\n", msg)
}

// IssueToken creates a signed admin token. Used by tests and by
// deployments that provision tokens out of band.
func IssueToken(secret string, actor *audit.Actor) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   actor.ID,
		"login": actor.Login,
		"role":  actor.Role,
	})
	return token.SignedString([]byte(secret))
}
