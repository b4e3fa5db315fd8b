package auth

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound indicates no live session exists for a token.
var ErrSessionNotFound = errors.New("auth: session not found")

// Session binds one opaque token to one user. A token maps to at most one
// session; a user may hold any number of concurrent sessions.
type Session struct {
	Token        string
	UserID       int64
	ExpiresAt    time.Time
	CreatedAt    time.Time
	LastActivity time.Time
}

// SessionStore is the session lifecycle contract. Implementations confine
// their side effects to the session records and never perform authorization
// logic.
type SessionStore interface {
	// CreateOrRefresh is idempotent per (user, token): an existing session
	// for the token gets its expiry extended by the store TTL, otherwise a
	// new record is created.
	CreateOrRefresh(ctx context.Context, userID int64, token string) (Session, error)
	// Lookup returns the session for a token while expires_at is in the
	// future, ErrSessionNotFound otherwise.
	Lookup(ctx context.Context, token string) (Session, error)
	// Revoke deletes the session for a token; no-op when absent.
	Revoke(ctx context.Context, token string) error
	// RevokeAll deletes every session of a user.
	RevokeAll(ctx context.Context, userID int64) error
	// DeleteExpired removes sessions past their expiry and reports how many
	// were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
