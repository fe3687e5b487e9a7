package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the prometheus registry and the instruments the
// middleware and services report into. A nil *MetricsService is a no-op so
// callers never need to guard their observations.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	storeOpDuration     *prometheus.HistogramVec
	collectionSize      *prometheus.GaugeVec
	notificationsTotal  prometheus.Counter
}

// NewMetricsService builds and registers the instrument set.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		storeOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Snapshot and KV operation latency by operation and key.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation", "key"}),
		collectionSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "collection_size",
			Help: "Current number of entities per collection.",
		}, []string{"collection"}),
		notificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Mutation notifications published.",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.storeOpDuration,
		m.collectionSize,
		m.notificationsTotal,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "goroutines_count",
			Help: "Current number of goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	)

	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed request.
func (m *MetricsService) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveStoreOp records one snapshot or KV operation.
func (m *MetricsService) ObserveStoreOp(operation, key string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeOpDuration.WithLabelValues(operation, key).Observe(duration.Seconds())
}

// SetCollectionSize updates the live entity count for a collection.
func (m *MetricsService) SetCollectionSize(collection string, size int) {
	if m == nil {
		return
	}
	m.collectionSize.WithLabelValues(collection).Set(float64(size))
}

// IncNotification counts one published notification.
func (m *MetricsService) IncNotification() {
	if m == nil {
		return
	}
	m.notificationsTotal.Inc()
}
