package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
)

// MetricsService encapsulates Prometheus instrumentation and keeps a few
// counters for the health endpoint.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	bulkOutcomes     *prometheus.CounterVec
	rowCacheLookups  *prometheus.CounterVec
	staleResponses   *prometheus.CounterVec
	viewStateLatency prometheus.Observer
	viewStateWrite   prometheus.Observer
	activeSessions   prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	upstreamErrors       uint64
	rowCacheHits         uint64
	rowCacheMisses       uint64
	sessions             int64
}

// MetricsSnapshot is a cheap summary of the counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	UpstreamErrors           uint64    `json:"upstream_errors"`
	RowCacheHitRatio         float64   `json:"row_cache_hit_ratio"`
	ActiveSessions           int64     `json:"active_sessions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers the console collectors.
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

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the school API",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"operation", "status"})

	bulkOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_operations_total",
		Help: "Finished bulk operations by page, kind and outcome",
	}, []string{"page", "kind", "outcome"})

	rowCacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "row_cache_lookups_total",
		Help: "Expanded row cache lookups",
	}, []string{"page", "result"})

	staleResponses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stale_list_responses_total",
		Help: "List responses dropped because a newer request was issued",
	}, []string{"page"})

	viewStateLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "view_state_read_seconds",
		Help:    "Latency for view state reads",
		Buckets: prometheus.DefBuckets,
	})

	viewStateWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "view_state_write_seconds",
		Help:    "Latency for view state writes",
		Buckets: prometheus.DefBuckets,
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_sessions_active",
		Help: "Admin sessions held in memory",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, bulkOutcomes, rowCacheLookups, staleResponses, viewStateLatency, viewStateWrite, activeSessions, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		bulkOutcomes:     bulkOutcomes,
		rowCacheLookups:  rowCacheLookups,
		staleResponses:   staleResponses,
		viewStateLatency: viewStateLatency,
		viewStateWrite:   viewStateWrite,
		activeSessions:   activeSessions,
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpstream records one call to the school API. status 0 means no response.
func (m *MetricsService) ObserveUpstream(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = fmt.Sprintf("%d", status)
	}
	if status == 0 || status >= http.StatusBadRequest {
		atomic.AddUint64(&m.upstreamErrors, 1)
	}
	m.upstreamDuration.WithLabelValues(operation, label).Observe(duration.Seconds())
}

// BulkFinished counts a finished bulk operation.
func (m *MetricsService) BulkFinished(page string, kind bulkaction.Kind, state bulkaction.State) {
	if m == nil {
		return
	}
	m.bulkOutcomes.WithLabelValues(page, string(kind), string(state)).Inc()
}

// RowCacheLookup counts an expanded row lookup.
func (m *MetricsService) RowCacheLookup(page string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.rowCacheHits, 1)
	} else {
		atomic.AddUint64(&m.rowCacheMisses, 1)
	}
	m.rowCacheLookups.WithLabelValues(page, result).Inc()
}

// StaleResponse counts a dropped list response.
func (m *MetricsService) StaleResponse(page string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(page).Inc()
}

// ObserveViewStateRead tracks view state lookups.
func (m *MetricsService) ObserveViewStateRead(duration time.Duration) {
	if m == nil {
		return
	}
	m.viewStateLatency.Observe(duration.Seconds())
}

// ObserveViewStateWrite tracks view state writes.
func (m *MetricsService) ObserveViewStateWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.viewStateWrite.Observe(duration.Seconds())
}

// SessionOpened tracks a newly created session.
func (m *MetricsService) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(atomic.AddInt64(&m.sessions, 1)))
}

// SessionClosed is the counterpart of SessionOpened.
func (m *MetricsService) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(atomic.AddInt64(&m.sessions, -1)))
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	hits := atomic.LoadUint64(&m.rowCacheHits)
	misses := atomic.LoadUint64(&m.rowCacheMisses)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		UpstreamErrors:           atomic.LoadUint64(&m.upstreamErrors),
		RowCacheHitRatio:         ratio,
		ActiveSessions:           atomic.LoadInt64(&m.sessions),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
