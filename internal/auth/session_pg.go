package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSessionStore implements SessionStore on PostgreSQL.
type PGSessionStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPGSessionStore constructs a PostgreSQL session store.
func NewPGSessionStore(pool *pgxpool.Pool, ttl time.Duration) *PGSessionStore {
	return &PGSessionStore{pool: pool, ttl: ttl, now: time.Now}
}

// CreateOrRefresh upserts the session row keyed by token.
func (s *PGSessionStore) CreateOrRefresh(ctx context.Context, userID int64, token string) (Session, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	var sess Session
	err := s.pool.QueryRow(ctx, `INSERT INTO user_sessions
		(token, user_id, expires_at, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (token) DO UPDATE SET expires_at = $3, last_activity = $4
		RETURNING token, user_id, expires_at, created_at, last_activity`,
		token, userID, expiresAt, now).Scan(
		&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastActivity)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Lookup returns the non-expired session for a token.
func (s *PGSessionStore) Lookup(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx, `SELECT token, user_id, expires_at, created_at, last_activity
		FROM user_sessions WHERE token = $1 AND expires_at > $2`,
		token, s.now().UTC()).Scan(
		&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

// Revoke deletes the session row for a token.
func (s *PGSessionStore) Revoke(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE token = $1`, token)
	return err
}

// RevokeAll deletes every session row of a user.
func (s *PGSessionStore) RevokeAll(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpired removes expired session rows.
func (s *PGSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ SessionStore = (*PGSessionStore)(nil)
