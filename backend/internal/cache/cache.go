// Package cache is the optional key-value layer in front of the user store.
// Cached values are JSON documents; keys follow "<namespace>:<params>".
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL applies when a caller passes zero
const DefaultTTL = 300 * time.Second

// Invalidation patterns cleared after every mutation
const (
	PatternUsers = "users:*"
	PatternGraph = "graph:*"
	KeyStats     = "stats"
)

// MutationPatterns are the keys dropped after any write to the store
var MutationPatterns = []string{PatternUsers, PatternGraph, KeyStats}

// Cache is a byte-oriented key-value store with TTL and glob deletion
type Cache interface {
	// Get returns found=false on a miss
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern drops every key matching a glob pattern ("graph:*")
	DeletePattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON decodes a cached value into dst. A value that fails to decode is
// reported as a miss with the decode error.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) (bool, error) {
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// InvalidateAll drops every pattern, continuing past failures. It returns the first error.
func InvalidateAll(ctx context.Context, c Cache, patterns ...string) error {
	var first error
	for _, p := range patterns {
		if err := c.DeletePattern(ctx, p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
