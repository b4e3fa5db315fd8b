package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, time.Hour), mr
}

func TestRedisSessionLifecycle(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)
	require.Equal(t, int64(42), created.UserID)
	require.False(t, created.ExpiresAt.IsZero())

	found, err := store.Lookup(ctx, "token-a")
	require.NoError(t, err)
	require.Equal(t, int64(42), found.UserID)

	require.NoError(t, store.Revoke(ctx, "token-a"))
	_, err = store.Lookup(ctx, "token-a")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisCreateOrRefreshPreservesCreation(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	first, err := store.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	refreshed, err := store.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, refreshed.CreatedAt)
	require.True(t, refreshed.ExpiresAt.After(first.ExpiresAt))
}

func TestRedisLookupExpired(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	_, err := store.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = store.Lookup(ctx, "token-a")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisRevokeAbsentToken(t *testing.T) {
	store, _ := newTestRedisStore(t)
	require.NoError(t, store.Revoke(context.Background(), "never-existed"))
}

func TestRedisRevokeAll(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)
	_, err = store.CreateOrRefresh(ctx, 42, "token-b")
	require.NoError(t, err)
	_, err = store.CreateOrRefresh(ctx, 99, "token-c")
	require.NoError(t, err)

	require.NoError(t, store.RevokeAll(ctx, 42))

	_, err = store.Lookup(ctx, "token-a")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Lookup(ctx, "token-b")
	require.ErrorIs(t, err, ErrSessionNotFound)

	survivor, err := store.Lookup(ctx, "token-c")
	require.NoError(t, err)
	require.Equal(t, int64(99), survivor.UserID)
}

func TestRedisDeleteExpiredIsNoop(t *testing.T) {
	store, _ := newTestRedisStore(t)
	purged, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged)
}
