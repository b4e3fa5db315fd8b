package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	require.Equal(t, "postgres", cfg.SessionStore)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownSessionStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_STORE", "memcached")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRedisSessionStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_TTL", "24h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.SessionStore)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv("SENTINEL_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("SENTINEL_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
