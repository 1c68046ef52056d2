package cache

import (
	"context"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache is a per-process cache. Other workers learn about mutations
// through the event bus, which clears matching keys here.
type LocalCache struct {
	items *gocache.Cache
}

// NewLocalCache creates a cache whose expired entries are purged every cleanup interval
func NewLocalCache(defaultTTL, cleanup time.Duration) *LocalCache {
	return &LocalCache{items: gocache.New(ttlOrDefault(defaultTTL), cleanup)}
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.items.Set(key, append([]byte(nil), value...), ttlOrDefault(ttl))
	return nil
}

func (c *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.items.Delete(k)
	}
	return nil
}

// DeletePattern matches keys with path.Match, which shares Redis' glob syntax
// for the patterns used here ("*", "?", "[...]")
func (c *LocalCache) DeletePattern(_ context.Context, pattern string) error {
	for key := range c.items.Items() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return err
		}
		if matched {
			c.items.Delete(key)
		}
	}
	return nil
}

// Len reports the number of unexpired entries
func (c *LocalCache) Len() int {
	return c.items.ItemCount()
}

func (c *LocalCache) Ping(context.Context) error {
	return nil
}

func (c *LocalCache) Close() error {
	c.items.Flush()
	return nil
}
