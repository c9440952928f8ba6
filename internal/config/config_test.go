package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/codecollab")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, 500*time.Millisecond, cfg.WriteInterval)
	assert.Equal(t, 24*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 50, cfg.MaxClientsPerSession)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WRITE_INTERVAL_MS", "250")
	t.Setenv("SESSION_EXPIRY_HOURS", "48")
	t.Setenv("MAX_CLIENTS_PER_SESSION", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.WriteInterval)
	assert.Equal(t, 48*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, 10, cfg.MaxClientsPerSession)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadMissingRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/codecollab")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadRejectsNonIntegers(t *testing.T) {
	setRequired(t)
	t.Setenv("WRITE_INTERVAL_MS", "fast")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRITE_INTERVAL_MS")
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("WRITE_INTERVAL_MS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRITE_INTERVAL_MS must be positive")
}
