package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cybernauts/backend/internal/metrics"
	"cybernauts/backend/pkg/config"
	"cybernauts/backend/pkg/logger"
)

// New builds the cache selected by cfg. With Redis enabled the cache is a
// breaker-guarded RedisCache, even if the first ping fails; otherwise it is
// an in-process LocalCache.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (Cache, error) {
	log = logger.OrDefault(log)

	if !cfg.RedisEnabled {
		log.Info("Redis disabled, using in-process cache", zap.Duration("ttl", cfg.CacheTTL))
		return NewLocalCache(cfg.CacheTTL, 2*cfg.CacheTTL), nil
	}

	client, err := NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis not reachable at startup, cache calls will degrade until it is", zap.Error(err))
	} else {
		log.Info("Connected to Redis cache", zap.Duration("ttl", cfg.CacheTTL))
	}

	return NewGuarded(NewRedisCache(client), DefaultBreakerConfig("redis-cache"), log, m), nil
}
