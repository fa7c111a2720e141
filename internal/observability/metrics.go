package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the dispatch and sweep flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	dispatchSucceededTotal  *prometheus.CounterVec
	dispatchFailedTotal     *prometheus.CounterVec
	gatewaySendDuration     prometheus.Histogram
	bulkInFlight            prometheus.Gauge
	ledgerWriteFailuresTotal prometheus.Counter
	retentionDeletedTotal   prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "queue_notifier",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "queue_notifier",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		dispatchSucceededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "queue_notifier",
				Name:      "dispatch_succeeded_total",
				Help:      "Total number of push dispatch attempts that succeeded, by source.",
			},
			[]string{"source"},
		),
		dispatchFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "queue_notifier",
				Name:      "dispatch_failed_total",
				Help:      "Total number of push dispatch attempts that failed, by source.",
			},
			[]string{"source"},
		),
		gatewaySendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "queue_notifier",
				Name:      "gateway_send_duration_seconds",
				Help:      "Push gateway call duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		bulkInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "queue_notifier",
				Name:      "bulk_inflight_recipients",
				Help:      "Current number of in-flight bulk fan-out recipients.",
			},
		),
		ledgerWriteFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "queue_notifier",
				Name:      "ledger_write_failures_total",
				Help:      "Total number of delivery outcomes that could not be written to the ledger.",
			},
		),
		retentionDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "queue_notifier",
				Name:      "retention_deleted_total",
				Help:      "Total number of ledger records deleted by the retention sweeper.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dispatchSucceededTotal,
		m.dispatchFailedTotal,
		m.gatewaySendDuration,
		m.bulkInFlight,
		m.ledgerWriteFailuresTotal,
		m.retentionDeletedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncDispatchSucceeded(source string) {
	if m == nil {
		return
	}
	m.dispatchSucceededTotal.WithLabelValues(normalizeSource(source)).Inc()
}

func (m *Metrics) IncDispatchFailed(source string) {
	if m == nil {
		return
	}
	m.dispatchFailedTotal.WithLabelValues(normalizeSource(source)).Inc()
}

func (m *Metrics) ObserveGatewaySendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.gatewaySendDuration.Observe(seconds)
}

func (m *Metrics) IncBulkInFlight() {
	if m == nil {
		return
	}
	m.bulkInFlight.Inc()
}

func (m *Metrics) DecBulkInFlight() {
	if m == nil {
		return
	}
	m.bulkInFlight.Dec()
}

func (m *Metrics) IncLedgerWriteFailed() {
	if m == nil {
		return
	}
	m.ledgerWriteFailuresTotal.Inc()
}

func (m *Metrics) AddRetentionDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.retentionDeletedTotal.Add(float64(count))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeSource(source string) string {
	normalized := strings.ToLower(strings.TrimSpace(source))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
