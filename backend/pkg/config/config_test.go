package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cybernauts/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, EventsNone, cfg.EventsBackend)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, "random", cfg.Layout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_RedisEnablesRedisEvents(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EventsRedis, cfg.EventsBackend)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestLoad_MongoRequiresURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("DB_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestValidate_UnknownBackends(t *testing.T) {
	cfg := &Config{Port: "3000", StoreBackend: "cassandra", EventsBackend: EventsNone, Layout: "random", CacheTTL: time.Second}
	assert.Error(t, cfg.Validate())

	cfg.StoreBackend = StoreMemory
	cfg.EventsBackend = "kafka"
	assert.Error(t, cfg.Validate())

	cfg.EventsBackend = EventsRedis
	assert.Error(t, cfg.Validate(), "redis events without redis")

	cfg.RedisEnabled = true
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "5m")
	assert.Equal(t, 5*time.Minute, getEnvDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "garbage")
	assert.Equal(t, time.Second, getEnvDuration("X_DURATION", time.Second))
}
