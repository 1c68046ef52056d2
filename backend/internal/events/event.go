// Package events broadcasts store mutations between API workers so each
// worker can drop the cache entries the mutation made stale.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Channels
const (
	ChannelUserCreated     = "user:created"
	ChannelUserUpdated     = "user:updated"
	ChannelUserDeleted     = "user:deleted"
	ChannelUsersLinked     = "users:linked"
	ChannelUsersUnlinked   = "users:unlinked"
	ChannelCacheInvalidate = "cache:invalidate"
)

// Channels lists every channel a worker listens on
var Channels = []string{
	ChannelUserCreated,
	ChannelUserUpdated,
	ChannelUserDeleted,
	ChannelUsersLinked,
	ChannelUsersUnlinked,
	ChannelCacheInvalidate,
}

// Event is the payload published after a mutation
type Event struct {
	Type      string    `json:"type"`
	UserIDs   []string  `json:"userIds"`
	Keys      []string  `json:"keys"`   // cache patterns to drop
	Origin    string    `json:"origin"` // id of the publishing worker
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives events decoded from a channel
type Handler func(ctx context.Context, channel string, evt Event)

// Publisher sends events
type Publisher interface {
	Publish(ctx context.Context, channel string, evt Event) error
}

// Subscriber delivers events on every channel in Channels until ctx is done
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) error
}

// Bus is a full transport
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Encode serializes an event for the wire
func Encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// Decode parses a wire payload
func Decode(data []byte) (Event, error) {
	var evt Event
	err := json.Unmarshal(data, &evt)
	return evt, err
}

// Noop discards published events and never delivers any
type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }

func (Noop) Subscribe(context.Context, Handler) error { return nil }

func (Noop) Close() error { return nil }
