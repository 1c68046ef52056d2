package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cybernauts/backend/pkg/logger"
)

// RedisBus uses Redis pub/sub. Subscriptions run on a dedicated client since
// a subscribed connection cannot issue other commands.
type RedisBus struct {
	pub    *redis.Client
	sub    *redis.Client
	logger *zap.Logger
}

// NewRedisBus creates a bus with its own publisher and subscriber clients
func NewRedisBus(url string, log *zap.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	subOpts := *opts
	return &RedisBus{
		pub:    redis.NewClient(opts),
		sub:    redis.NewClient(&subOpts),
		logger: logger.OrDefault(log),
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, channel string, evt Event) error {
	data, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return b.pub.Publish(ctx, channel, data).Err()
}

// Subscribe confirms the subscription, then delivers messages on a goroutine
// until ctx is cancelled
func (b *RedisBus) Subscribe(ctx context.Context, handler Handler) error {
	ps := b.sub.Subscribe(ctx, Channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	b.logger.Info("Subscribed to Redis channels", zap.Strings("channels", Channels))

	go func() {
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				evt, err := Decode([]byte(msg.Payload))
				if err != nil {
					b.logger.Warn("Dropping malformed event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				handler(ctx, msg.Channel, evt)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	subErr := b.sub.Close()
	if err := b.pub.Close(); err != nil {
		return err
	}
	return subErr
}
