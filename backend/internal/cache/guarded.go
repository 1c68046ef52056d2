package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"cybernauts/backend/internal/metrics"
	apperrors "cybernauts/backend/pkg/errors"
	"cybernauts/backend/pkg/logger"
)

// BreakerConfig holds configuration for the cache circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Trip once FailureThreshold of at least MinRequests calls have failed
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used in production
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// Guarded runs every call of an inner cache through a circuit breaker and
// swallows failures: Get degrades to a miss and writes become no-ops. The
// store stays the source of truth, so the API keeps serving while the cache
// is down.
type Guarded struct {
	inner   Cache
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewGuarded wraps inner. log and m may be nil.
func NewGuarded(inner Cache, cfg BreakerConfig, log *zap.Logger, m *metrics.Metrics) *Guarded {
	log = logger.OrDefault(log)
	g := &Guarded{inner: inner, logger: log, metrics: m}

	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.BreakerState(breakerGauge(to))
		},
	})
	return g
}

type lookup struct {
	value []byte
	found bool
}

func (g *Guarded) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		v, found, err := g.inner.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return lookup{value: v, found: found}, nil
	})
	if err != nil {
		g.swallow("get", key, err)
		g.metrics.CacheResult("error")
		return nil, false, nil
	}

	l := res.(lookup)
	if l.found {
		g.metrics.CacheResult("hit")
	} else {
		g.metrics.CacheResult("miss")
	}
	return l.value, l.found, nil
}

func (g *Guarded) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	g.run("set", key, func() error { return g.inner.Set(ctx, key, value, ttl) })
	return nil
}

func (g *Guarded) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	g.run("delete", keys[0], func() error { return g.inner.Delete(ctx, keys...) })
	return nil
}

func (g *Guarded) DeletePattern(ctx context.Context, pattern string) error {
	g.run("delete_pattern", pattern, func() error { return g.inner.DeletePattern(ctx, pattern) })
	return nil
}

// Ping reports the inner cache's health without going through the breaker
func (g *Guarded) Ping(ctx context.Context) error {
	if err := g.inner.Ping(ctx); err != nil {
		return apperrors.NewUnavailable("cache", err)
	}
	return nil
}

func (g *Guarded) Close() error {
	return g.inner.Close()
}

// State returns the breaker state name ("closed", "half-open", "open")
func (g *Guarded) State() string {
	return g.cb.State().String()
}

func (g *Guarded) run(op, key string, fn func() error) {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		g.swallow(op, key, err)
	}
}

func (g *Guarded) swallow(op, key string, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.logger.Debug("Cache call skipped, circuit open",
			zap.String("op", op),
			zap.String("key", key),
		)
		return
	}
	g.logger.Warn("Cache unavailable, continuing without it",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(apperrors.NewUnavailable("cache", err)),
	)
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
