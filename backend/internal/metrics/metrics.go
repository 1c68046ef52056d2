// Package metrics holds the Prometheus collectors for the API process.
// Every method is safe on a nil *Metrics so components can run without them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cybernauts"

// Metrics contains all collectors
type Metrics struct {
	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache
	CacheRequests *prometheus.CounterVec
	CacheBreaker  prometheus.Gauge

	// Events
	EventsPublished *prometheus.CounterVec
	EventsReceived  *prometheus.CounterVec

	// Domain
	Users       prometheus.Gauge
	Connections prometheus.Gauge
	StoreErrors *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry, which keeps tests independent of the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "requests_total",
				Help:      "Cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),

		CacheBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "circuit_breaker",
				Help:      "Cache circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Broadcast events published",
			},
			[]string{"channel", "status"},
		),

		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "received_total",
				Help:      "Broadcast events received from other workers",
			},
			[]string{"channel"},
		),

		Users: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "users",
				Help:      "Number of users at the last stats computation",
			},
		),

		Connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "connections",
				Help:      "Number of friendships at the last stats computation",
			},
		),

		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "User store failures by operation",
			},
			[]string{"operation"},
		),

		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.CacheRequests,
		m.CacheBreaker,
		m.EventsPublished,
		m.EventsReceived,
		m.Users,
		m.Connections,
		m.StoreErrors,
	)
	return m
}

// CacheResult records one cache lookup
func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// BreakerState records the cache breaker state
func (m *Metrics) BreakerState(state float64) {
	if m == nil {
		return
	}
	m.CacheBreaker.Set(state)
}

// EventPublished records a publish attempt
func (m *Metrics) EventPublished(channel string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(channel, status).Inc()
}

// EventReceived records an event delivered by the bus
func (m *Metrics) EventReceived(channel string) {
	if m == nil {
		return
	}
	m.EventsReceived.WithLabelValues(channel).Inc()
}

// StoreError records a failed store operation
func (m *Metrics) StoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(operation).Inc()
}

// GraphTotals records the user and connection counts
func (m *Metrics) GraphTotals(users, connections int64) {
	if m == nil {
		return
	}
	m.Users.Set(float64(users))
	m.Connections.Set(float64(connections))
}

// Middleware records request count and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
