// Package telemetry exposes Prometheus metrics for the therapeutic wizard
// API: HTTP request durations, store operation outcomes, and conditions-cache
// effectiveness.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	storeOps        *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by method, path and status.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "store_operations_total",
			Help:        "Table-level store operations by table, op and outcome.",
			ConstLabels: labels,
		}, []string{"table", "op", "outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "conditions_cache_hits_total",
			Help:        "Reads served from the conditions cache.",
			ConstLabels: labels,
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "conditions_cache_misses_total",
			Help:        "Reads that refreshed the conditions cache.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(m.requestDuration, m.storeOps, m.cacheHits, m.cacheMisses)
	return m
}

// StoreOp records one table-level store operation. outcome is "ok" or "error".
func (m *Metrics) StoreOp(table, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storeOps.WithLabelValues(table, op, outcome).Inc()
}

func (m *Metrics) CacheHit()  { m.cacheHits.Inc() }
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

// Middleware times every request against the histogram. Route path is used
// rather than the raw URL so parameterized routes share one series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			m.requestDuration.
				WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus text exposition for this registry.
func (m *Metrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return echo.WrapHandler(h)
}
