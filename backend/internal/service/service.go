// Package service implements the user and friendship operations on top of
// the store, keeping the cache and other workers in step after each write.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cybernauts/backend/internal/cache"
	"cybernauts/backend/internal/events"
	"cybernauts/backend/internal/graph"
	"cybernauts/backend/internal/metrics"
	"cybernauts/backend/internal/store"
	apperrors "cybernauts/backend/pkg/errors"
	"cybernauts/backend/pkg/logger"
)

// Paging defaults
const (
	DefaultUsersLimit = 50
	MaxUsersLimit     = 500
	DefaultGraphLimit = 100
	MaxGraphLimit     = 1000
	TopHobbiesCount   = 10
)

// Deps are the collaborators of UserService. Only Store is required.
type Deps struct {
	Store     store.Store
	Cache     cache.Cache
	Publisher events.Publisher
	Assembler *graph.Assembler
	Positions graph.PositionProvider
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Clock     func() time.Time
	NewID     func() string
	Origin    string // worker id stamped on published events
	CacheTTL  time.Duration
}

// UserService is safe for concurrent use
type UserService struct {
	store     store.Store
	cache     cache.Cache
	publisher events.Publisher
	assembler *graph.Assembler
	positions graph.PositionProvider
	logger    *zap.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
	newID     func() string
	origin    string
	cacheTTL  time.Duration

	graphLoads singleflight.Group
}

// New creates a service, filling defaults for optional dependencies
func New(d Deps) *UserService {
	s := &UserService{
		store:     d.Store,
		cache:     d.Cache,
		publisher: d.Publisher,
		assembler: d.Assembler,
		positions: d.Positions,
		logger:    logger.OrDefault(d.Logger),
		metrics:   d.Metrics,
		clock:     d.Clock,
		newID:     d.NewID,
		origin:    d.Origin,
		cacheTTL:  d.CacheTTL,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.positions == nil {
		s.positions = graph.NewRandomPositions(graph.DefaultCanvas, time.Now().UnixNano())
	}
	if s.assembler == nil {
		s.assembler = graph.NewAssembler(s.positions)
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.origin == "" {
		s.origin = uuid.NewString()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = cache.DefaultTTL
	}
	return s
}

// Origin returns the worker id stamped on published events
func (s *UserService) Origin() string {
	return s.origin
}

// HealthReport is the result of probing the service's dependencies
type HealthReport struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

// Health pings the store and the cache. Only the store decides Healthy;
// a failing cache is reported as degraded.
func (s *UserService) Health(ctx context.Context) HealthReport {
	report := HealthReport{Healthy: true, Checks: map[string]string{}}

	if err := s.store.Ping(ctx); err != nil {
		report.Healthy = false
		report.Checks["store"] = "unhealthy: " + err.Error()
	} else {
		report.Checks["store"] = "ok"
	}

	if err := s.cache.Ping(ctx); err != nil {
		report.Checks["cache"] = "degraded"
	} else {
		report.Checks["cache"] = "ok"
	}
	return report
}

// storeErr converts store failures into typed errors. ids name the records
// involved and are reported when the record is missing.
func (s *UserService) storeErr(op string, err error, ids ...string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewUserNotFound(ids...)
	}
	s.metrics.StoreError(op)
	return apperrors.NewStoreFailed(op, err)
}
