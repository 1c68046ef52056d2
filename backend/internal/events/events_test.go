package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cybernauts/backend/internal/cache"
)

type received struct {
	channel string
	evt     Event
}

func collect(ch chan<- received) Handler {
	return func(_ context.Context, channel string, evt Event) {
		ch <- received{channel: channel, evt: evt}
	}
}

func waitFor(t *testing.T, ch <-chan received) received {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return received{}
	}
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	bus, err := NewRedisBus("redis://"+mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 4)
	require.NoError(t, bus.Subscribe(ctx, collect(got)))

	evt := Event{
		Type:      ChannelUsersLinked,
		UserIDs:   []string{"a", "b"},
		Keys:      []string{"users:*", "graph:*", "stats"},
		Origin:    "worker-1",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, bus.Publish(ctx, ChannelUsersLinked, evt))

	r := waitFor(t, got)
	assert.Equal(t, ChannelUsersLinked, r.channel)
	assert.Equal(t, []string{"a", "b"}, r.evt.UserIDs)
	assert.Equal(t, "worker-1", r.evt.Origin)
}

func TestRedisBus_DropsMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	bus, err := NewRedisBus("redis://"+mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 4)
	require.NoError(t, bus.Subscribe(ctx, collect(got)))

	require.NoError(t, bus.pub.Publish(ctx, ChannelUserCreated, "{not json").Err())
	require.NoError(t, bus.Publish(ctx, ChannelUserDeleted, Event{Type: ChannelUserDeleted, UserIDs: []string{"x"}}))

	// Messages on one subscription arrive in order, so the first delivery
	// must be the valid event.
	r := waitFor(t, got)
	assert.Equal(t, ChannelUserDeleted, r.channel)
}

func TestNATSBus_PublishSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	url := os.Getenv("NATS_TEST_URL")
	if url == "" {
		t.Skip("NATS_TEST_URL not set")
	}

	bus, err := ConnectNATS(url, "events-test", zap.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 4)
	require.NoError(t, bus.Subscribe(ctx, collect(got)))
	require.NoError(t, bus.Publish(ctx, ChannelUserUpdated, Event{Type: ChannelUserUpdated, UserIDs: []string{"u1"}}))

	r := waitFor(t, got)
	assert.Equal(t, ChannelUserUpdated, r.channel)
	assert.Equal(t, []string{"u1"}, r.evt.UserIDs)
}

func TestConnectNATS_UnreachableServerDegrades(t *testing.T) {
	bus, err := ConnectNATS("nats://127.0.0.1:1", "events-test", zap.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NoError(t, bus.Subscribe(ctx, collect(make(chan received, 1))))
	assert.NoError(t, bus.Publish(ctx, ChannelUserCreated, Event{Type: ChannelUserCreated, UserIDs: []string{"u1"}}))
}

func TestInvalidator(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLocalCache(time.Minute, time.Minute)
	inv := NewInvalidator(c, "me", zap.NewNop(), nil)

	seed := func() {
		require.NoError(t, c.Set(ctx, "graph:1:100:true", []byte("x"), 0))
		require.NoError(t, c.Set(ctx, "stats", []byte("x"), 0))
	}

	t.Run("own events are skipped", func(t *testing.T) {
		seed()
		inv.Handle(ctx, ChannelUserCreated, Event{Origin: "me", Keys: cache.MutationPatterns})
		_, found, _ := c.Get(ctx, "graph:1:100:true")
		assert.True(t, found)
	})

	t.Run("remote events drop keys", func(t *testing.T) {
		seed()
		inv.Handle(ctx, ChannelUserCreated, Event{Origin: "other", Keys: cache.MutationPatterns})
		_, found, _ := c.Get(ctx, "graph:1:100:true")
		assert.False(t, found)
		_, found, _ = c.Get(ctx, "stats")
		assert.False(t, found)
	})
}

func TestInvalidator_OverRedisBus(t *testing.T) {
	mr := miniredis.RunT(t)
	bus, err := NewRedisBus("redis://"+mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cache.NewLocalCache(time.Minute, time.Minute)
	require.NoError(t, c.Set(ctx, "stats", []byte("x"), 0))

	inv := NewInvalidator(c, "worker-b", zap.NewNop(), nil)
	require.NoError(t, inv.Start(ctx, bus))
	require.NoError(t, bus.Publish(ctx, ChannelCacheInvalidate, Event{Origin: "worker-a", Keys: []string{"stats"}}))

	assert.Eventually(t, func() bool {
		_, found, _ := c.Get(ctx, "stats")
		return !found
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNoop(t *testing.T) {
	var b Bus = Noop{}
	assert.NoError(t, b.Publish(context.Background(), ChannelUserCreated, Event{}))
	assert.NoError(t, b.Subscribe(context.Background(), func(context.Context, string, Event) {}))
	assert.NoError(t, b.Close())
}
