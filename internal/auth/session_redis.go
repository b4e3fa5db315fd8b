package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements SessionStore on Redis. Sessions live under
// per-token keys with a TTL; a per-user set of tokens backs RevokeAll.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSessionStore constructs a Redis session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now}
}

type sessionPayload struct {
	UserID       int64     `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID int64) string {
	return "user_sessions:" + strconv.FormatInt(userID, 10)
}

// CreateOrRefresh writes the session payload and extends its TTL. The
// original creation time is preserved when the token already exists.
func (s *RedisSessionStore) CreateOrRefresh(ctx context.Context, userID int64, token string) (Session, error) {
	now := s.now().UTC()
	payload := sessionPayload{
		UserID:       userID,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
		LastActivity: now,
	}

	existing, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err == nil {
		var stored sessionPayload
		if err := json.Unmarshal(existing, &stored); err == nil && !stored.CreatedAt.IsZero() {
			payload.CreatedAt = stored.CreatedAt
		}
	} else if !errors.Is(err, redis.Nil) {
		return Session{}, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Session{}, err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(token), data, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), token)
	pipe.Expire(ctx, userSessionsKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, err
	}
	return s.toSession(token, payload), nil
}

// Lookup returns the session for a token while it has not expired.
func (s *RedisSessionStore) Lookup(ctx context.Context, token string) (Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Session{}, err
	}
	if !payload.ExpiresAt.After(s.now().UTC()) {
		return Session{}, ErrSessionNotFound
	}
	return s.toSession(token, payload), nil
}

// Revoke deletes the session key; no-op when absent.
func (s *RedisSessionStore) Revoke(ctx context.Context, token string) error {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err == nil && payload.UserID > 0 {
		if err := s.client.SRem(ctx, userSessionsKey(payload.UserID), token).Err(); err != nil {
			return err
		}
	}
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// RevokeAll deletes every session of a user via the per-user token set.
func (s *RedisSessionStore) RevokeAll(ctx context.Context, userID int64) error {
	tokens, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, userSessionsKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

// DeleteExpired is a no-op: Redis evicts session keys through their TTL.
func (s *RedisSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *RedisSessionStore) toSession(token string, payload sessionPayload) Session {
	return Session{
		Token:        token,
		UserID:       payload.UserID,
		ExpiresAt:    payload.ExpiresAt,
		CreatedAt:    payload.CreatedAt,
		LastActivity: payload.LastActivity,
	}
}

var _ SessionStore = (*RedisSessionStore)(nil)
