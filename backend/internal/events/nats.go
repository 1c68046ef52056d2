package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"cybernauts/backend/pkg/logger"
)

// SubjectPrefix namespaces channels on a shared NATS server
const SubjectPrefix = "cybernauts."

// NATSBus maps each channel onto the subject SubjectPrefix+channel
type NATSBus struct {
	conn   *nats.Conn
	logger *zap.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// ConnectNATS dials the server with unlimited reconnects. An unreachable
// server does not fail the call: the connection keeps retrying in the
// background and publishes are buffered until it is up.
func ConnectNATS(url, name string, log *zap.Logger) (*NATSBus, error) {
	log = logger.OrDefault(log)

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.ConnectHandler(func(c *nats.Conn) {
			log.Info("NATS connected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if !conn.IsConnected() {
		log.Warn("NATS not reachable at startup, broadcasts are buffered until it is")
	}
	return NewNATSBus(conn, log), nil
}

// NewNATSBus wraps an existing connection
func NewNATSBus(conn *nats.Conn, log *zap.Logger) *NATSBus {
	return &NATSBus{conn: conn, logger: logger.OrDefault(log)}
}

func (b *NATSBus) Publish(_ context.Context, channel string, evt Event) error {
	data, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return b.conn.Publish(SubjectPrefix+channel, data)
}

// Subscribe listens on every channel. Each message handler gets a context
// derived from ctx with a 30-second timeout.
func (b *NATSBus) Subscribe(ctx context.Context, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, channel := range Channels {
		sub, err := b.conn.Subscribe(SubjectPrefix+channel, func(msg *nats.Msg) {
			msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			ch := strings.TrimPrefix(msg.Subject, SubjectPrefix)
			evt, err := Decode(msg.Data)
			if err != nil {
				b.logger.Warn("Dropping malformed event",
					zap.String("channel", ch),
					zap.Error(err),
				)
				return
			}
			handler(msgCtx, ch, evt)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		b.subs = append(b.subs, sub)
	}

	// Make sure the server has registered the interest before returning.
	// While reconnecting the subscriptions are replayed on connect instead.
	if b.conn.IsConnected() {
		if err := b.conn.Flush(); err != nil {
			return fmt.Errorf("failed to flush subscriptions: %w", err)
		}
	}

	go func() {
		<-ctx.Done()
		b.unsubscribe()
	}()

	b.logger.Info("Subscribed to NATS subjects", zap.String("prefix", SubjectPrefix))
	return nil
}

func (b *NATSBus) unsubscribe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
}

func (b *NATSBus) Close() error {
	b.unsubscribe()
	b.conn.Close()
	return nil
}
