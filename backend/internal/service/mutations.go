package service

import (
	"context"

	"go.uber.org/zap"

	"cybernauts/backend/internal/cache"
	"cybernauts/backend/internal/events"
	apperrors "cybernauts/backend/pkg/errors"
)

// afterMutation drops every derived view from the local cache and tells the
// other workers to do the same. Neither step can fail the request.
func (s *UserService) afterMutation(ctx context.Context, channel string, userIDs ...string) {
	if err := cache.InvalidateAll(ctx, s.cache, cache.MutationPatterns...); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.String("channel", channel), zap.Error(err))
	}

	evt := events.Event{
		Type:      channel,
		UserIDs:   userIDs,
		Keys:      cache.MutationPatterns,
		Origin:    s.origin,
		Timestamp: s.clock(),
	}
	err := s.publisher.Publish(ctx, channel, evt)
	s.metrics.EventPublished(channel, err)
	if err != nil {
		s.logger.Warn("Failed to broadcast mutation",
			zap.String("channel", channel),
			zap.Strings("user_ids", userIDs),
			zap.Error(apperrors.NewUnavailable("broadcast", err)),
		)
	}
}

// remember stores a computed view. Failures only cost a future cache miss.
func (s *UserService) remember(ctx context.Context, key string, v interface{}) {
	if err := cache.SetJSON(ctx, s.cache, key, v, s.cacheTTL); err != nil {
		s.logger.Debug("Failed to cache view", zap.String("key", key), zap.Error(err))
	}
}
