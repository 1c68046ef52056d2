package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cybernauts/backend/internal/metrics"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func runCacheContract(t *testing.T, c Cache) {
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "stats", []byte(`{"totalUsers":3}`), time.Minute))
		v, found, err := c.Get(ctx, "stats")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `{"totalUsers":3}`, string(v))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
		require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
		require.NoError(t, c.Delete(ctx, "a", "b", "never-set"))
		_, found, _ := c.Get(ctx, "a")
		assert.False(t, found)
		_, found, _ = c.Get(ctx, "b")
		assert.False(t, found)
	})

	t.Run("delete pattern", func(t *testing.T) {
		for i := 0; i < 250; i++ {
			require.NoError(t, c.Set(ctx, fmt.Sprintf("graph:%d:100:true", i), []byte("x"), time.Minute))
		}
		require.NoError(t, c.Set(ctx, "users:list:1:50:", []byte("x"), time.Minute))

		require.NoError(t, c.DeletePattern(ctx, PatternGraph))

		_, found, _ := c.Get(ctx, "graph:7:100:true")
		assert.False(t, found)
		_, found, _ = c.Get(ctx, "graph:249:100:true")
		assert.False(t, found)
		_, found, _ = c.Get(ctx, "users:list:1:50:")
		assert.True(t, found, "keys outside the pattern must survive")
	})

	t.Run("invalidate all mutation patterns", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "users:list:2:10:bob", []byte("x"), time.Minute))
		require.NoError(t, c.Set(ctx, "graph:1:100:false", []byte("x"), time.Minute))
		require.NoError(t, c.Set(ctx, KeyStats, []byte("x"), time.Minute))

		require.NoError(t, InvalidateAll(ctx, c, MutationPatterns...))

		for _, k := range []string{"users:list:2:10:bob", "graph:1:100:false", KeyStats} {
			_, found, _ := c.Get(ctx, k)
			assert.False(t, found, k)
		}
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, c.Ping(ctx))
	})
}

func TestRedisCache_Contract(t *testing.T) {
	c, _ := newTestRedis(t)
	runCacheContract(t, c)
}

func TestLocalCache_Contract(t *testing.T) {
	runCacheContract(t, NewLocalCache(time.Minute, time.Minute))
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "stats", []byte("x"), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, found, err := c.Get(ctx, "stats")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "stats", []byte("x"), 0))
	assert.Equal(t, DefaultTTL, mr.TTL("stats"))
}

func TestLocalCache_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, time.Minute)

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'z'

	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc", string(v))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, time.Minute)

	type payload struct {
		Page  int      `json:"page"`
		Names []string `json:"names"`
	}
	require.NoError(t, SetJSON(ctx, c, "users:list:1:50:", payload{Page: 1, Names: []string{"ann"}}, time.Minute))

	var got payload
	found, err := GetJSON(ctx, c, "users:list:1:50:", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ann"}, got.Names)

	require.NoError(t, c.Set(ctx, "broken", []byte("{not json"), time.Minute))
	found, err = GetJSON(ctx, c, "broken", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestGuarded_SwallowsFailures(t *testing.T) {
	ctx := context.Background()
	inner, mr := newTestRedis(t)
	m := metrics.New(nil)

	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	g := NewGuarded(inner, cfg, zap.NewNop(), m)

	require.NoError(t, g.Set(ctx, "stats", []byte("x"), time.Minute))
	_, found, err := g.Get(ctx, "stats")
	require.NoError(t, err)
	assert.True(t, found)

	mr.Close()

	_, found, err = g.Get(ctx, "stats")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, g.Set(ctx, "stats", []byte("y"), time.Minute))
	assert.NoError(t, g.Delete(ctx, "stats"))
	assert.NoError(t, g.DeletePattern(ctx, PatternUsers))

	assert.Equal(t, "open", g.State())
	assert.Error(t, g.Ping(ctx), "ping reports the outage for health checks")

	// Calls against an open breaker are still swallowed
	_, found, err = g.Get(ctx, "stats")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, found)
}
