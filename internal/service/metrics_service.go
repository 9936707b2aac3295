package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and record store access.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec

	requestCount    uint64
	storeOpCount    uint64
	storeErrorCount uint64
}

// MetricsSnapshot is a lightweight summary for health output.
type MetricsSnapshot struct {
	RequestsTotal   uint64 `json:"requestsTotal"`
	StoreOperations uint64 `json:"storeOperations"`
	StoreErrors     uint64 `json:"storeErrors"`
	Goroutines      int    `json:"goroutines"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "record_store_operation_seconds",
		Help:    "Latency of record store backend operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "record_store_errors_total",
		Help: "Record store backend operations that failed",
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, storeErrors, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeDuration:   storeDuration,
		storeErrors:     storeErrors,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveStoreOperation implements store.Observer.
func (m *MetricsService) ObserveStoreOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
	if err != nil {
		m.storeErrors.WithLabelValues(operation).Inc()
		atomic.AddUint64(&m.storeErrorCount, 1)
	}
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		RequestsTotal:   atomic.LoadUint64(&m.requestCount),
		StoreOperations: atomic.LoadUint64(&m.storeOpCount),
		StoreErrors:     atomic.LoadUint64(&m.storeErrorCount),
		Goroutines:      runtime.NumGoroutine(),
	}
}
