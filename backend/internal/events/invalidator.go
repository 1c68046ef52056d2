package events

import (
	"context"

	"go.uber.org/zap"

	"cybernauts/backend/internal/cache"
	"cybernauts/backend/internal/metrics"
	"cybernauts/backend/pkg/logger"
)

// Invalidator drops local cache entries named by events from other workers.
// A worker's own events are skipped; it already invalidated before publishing.
type Invalidator struct {
	cache   cache.Cache
	origin  string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewInvalidator creates an invalidator for the worker identified by origin
func NewInvalidator(c cache.Cache, origin string, log *zap.Logger, m *metrics.Metrics) *Invalidator {
	return &Invalidator{
		cache:   c,
		origin:  origin,
		logger:  logger.OrDefault(log),
		metrics: m,
	}
}

// Start subscribes the invalidator. Delivery stops when ctx is cancelled.
func (i *Invalidator) Start(ctx context.Context, sub Subscriber) error {
	return sub.Subscribe(ctx, i.Handle)
}

// Handle applies one event
func (i *Invalidator) Handle(ctx context.Context, channel string, evt Event) {
	i.metrics.EventReceived(channel)

	if evt.Origin == i.origin {
		return
	}

	for _, pattern := range evt.Keys {
		if err := i.cache.DeletePattern(ctx, pattern); err != nil {
			i.logger.Warn("Failed to invalidate cache pattern",
				zap.String("pattern", pattern),
				zap.Error(err),
			)
		}
	}

	i.logger.Debug("Applied remote invalidation",
		zap.String("channel", channel),
		zap.String("origin", evt.Origin),
		zap.Strings("user_ids", evt.UserIDs),
		zap.Strings("keys", evt.Keys),
	)
}
