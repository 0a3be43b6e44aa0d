package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CommentsTotal   *prometheus.CounterVec
	VotesTotal      prometheus.Counter
	EventsPublished *prometheus.CounterVec
	WSConnections   prometheus.Gauge
}

// New creates metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics registered on the given registry, so tests
// can use isolated registries.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thread_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "thread_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CommentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thread_comments_total",
			Help: "Comment mutations by operation.",
		}, []string{"operation"}),
		VotesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thread_votes_total",
			Help: "Vote toggles applied.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thread_events_published_total",
			Help: "Realtime events published by type.",
		}, []string{"type"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thread_ws_connections",
			Help: "Open websocket connections.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.CommentsTotal,
		m.VotesTotal,
		m.EventsPublished,
		m.WSConnections,
	)
	return m
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
