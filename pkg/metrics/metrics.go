package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	QuotaRejections    prometheus.Counter
	AssetsGenerated    *prometheus.CounterVec
	AssetFailures      *prometheus.CounterVec
	HistoryExports     prometheus.Counter
	PlanChanges        *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBConnections   prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Business metrics
		GenerationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_generations_total",
				Help: "Total number of content generation requests by outcome",
			},
			[]string{"feature", "plan", "outcome"}, // success, limit_reached, api_error, ...
		),
		GenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "content_generation_duration_seconds",
				Help:    "End-to-end generation latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"feature", "plan"},
		),
		QuotaRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Total number of generations blocked by the daily quota",
		}),
		AssetsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assets_generated_total",
				Help: "Total number of media assets generated",
			},
			[]string{"kind"}, // image, video, audio
		),
		AssetFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asset_failures_total",
				Help: "Total number of media asset generations that came back empty",
			},
			[]string{"kind"},
		),
		HistoryExports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "history_exports_total",
			Help: "Total number of history workbook downloads",
		}),
		PlanChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_changes_total",
				Help: "Total number of plan tier changes",
			},
			[]string{"plan"}, // free, paid
		),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"operation"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Route pattern, not actual path

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordGeneration records one generation outcome with its latency.
func (m *Metrics) RecordGeneration(feature, plan, outcome string, duration time.Duration) {
	m.GenerationsTotal.WithLabelValues(feature, plan, outcome).Inc()
	m.GenerationDuration.WithLabelValues(feature, plan).Observe(duration.Seconds())
}

// RecordQuotaRejection increments the daily-quota rejection counter.
func (m *Metrics) RecordQuotaRejection() {
	m.QuotaRejections.Inc()
}

// RecordAsset records one media asset attempt by kind.
func (m *Metrics) RecordAsset(kind string, available bool) {
	if available {
		m.AssetsGenerated.WithLabelValues(kind).Inc()
	} else {
		m.AssetFailures.WithLabelValues(kind).Inc()
	}
}

// RecordHistoryExport increments the workbook download counter.
func (m *Metrics) RecordHistoryExport() {
	m.HistoryExports.Inc()
}

// RecordPlanChange increments the plan change counter.
func (m *Metrics) RecordPlanChange(plan string) {
	m.PlanChanges.WithLabelValues(plan).Inc()
}

// RecordDBQuery records database query duration
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	m.DBConnections.Set(count)
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
