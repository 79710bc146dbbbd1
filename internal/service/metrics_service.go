package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/member-console/internal/dto"
)

// Outcome labels shared by the console collectors.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
	OutcomeDropped = "dropped"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	directoryFetch  *prometheus.CounterVec
	openViews       prometheus.Gauge
	lifecycle       *prometheus.CounterVec
	bulkAssign      *prometheus.CounterVec
	auditWrites     *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	remoteCallCount      uint64
	remoteErrorCount     uint64
	remoteDurationTotal  uint64
	staleCount           uint64
	openViewCount        int64
}

// NewMetricsService registers the console collectors on a private registry.
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

	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "member_service_call_duration_seconds",
		Help:    "Duration of calls to the member REST service",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	directoryFetch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_fetch_total",
		Help: "Directory page fetches by merge mode and outcome",
	}, []string{"mode", "outcome"})

	openViews := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "directory_open_views",
		Help: "Directory views currently registered",
	})

	lifecycle := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_mutations_total",
		Help: "Membership lifecycle mutations by action and outcome",
	}, []string{"action", "outcome"})

	bulkAssign := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_assignments_total",
		Help: "Bulk role assignments by role and outcome",
	}, []string{"role", "outcome"})

	auditWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_writes_total",
		Help: "Audit trail writes by outcome",
	}, []string{"outcome"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remoteDuration, directoryFetch, openViews, lifecycle, bulkAssign, auditWrites, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		remoteDuration:  remoteDuration,
		directoryFetch:  directoryFetch,
		openViews:       openViews,
		lifecycle:       lifecycle,
		bulkAssign:      bulkAssign,
		auditWrites:     auditWrites,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
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

// ObserveRemoteCall records one call to the member service.
func (m *MetricsService) ObserveRemoteCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
		atomic.AddUint64(&m.remoteErrorCount, 1)
	}
	m.remoteDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.remoteCallCount, 1)
	atomic.AddUint64(&m.remoteDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordDirectoryFetch counts a fetch by mode and outcome.
func (m *MetricsService) RecordDirectoryFetch(mode, outcome string) {
	if m == nil {
		return
	}
	m.directoryFetch.WithLabelValues(mode, outcome).Inc()
	if outcome == OutcomeStale {
		atomic.AddUint64(&m.staleCount, 1)
	}
}

// SetOpenViews reports the number of registered directory views.
func (m *MetricsService) SetOpenViews(n int) {
	if m == nil {
		return
	}
	m.openViews.Set(float64(n))
	atomic.StoreInt64(&m.openViewCount, int64(n))
}

// RecordLifecycleMutation counts a membership mutation attempt.
func (m *MetricsService) RecordLifecycleMutation(action string, err error) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(action, outcomeOf(err)).Inc()
}

// RecordBulkAssignment counts a bulk assignment attempt.
func (m *MetricsService) RecordBulkAssignment(role string, err error) {
	if m == nil {
		return
	}
	m.bulkAssign.WithLabelValues(role, outcomeOf(err)).Inc()
}

// RecordAuditWrite counts audit rows by outcome.
func (m *MetricsService) RecordAuditWrite(outcome string) {
	if m == nil {
		return
	}
	m.auditWrites.WithLabelValues(outcome).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics for the console status endpoint.
func (m *MetricsService) Snapshot() dto.MetricsSnapshot {
	if m == nil {
		return dto.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	remoteCalls := atomic.LoadUint64(&m.remoteCallCount)
	remoteDuration := atomic.LoadUint64(&m.remoteDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgRemoteMs float64
	if remoteCalls > 0 {
		avgRemoteMs = float64(remoteDuration) / float64(remoteCalls) / float64(time.Millisecond)
	}

	return dto.MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RemoteCalls:              remoteCalls,
		RemoteErrors:             atomic.LoadUint64(&m.remoteErrorCount),
		AverageRemoteDurationMs:  avgRemoteMs,
		StaleResponses:           atomic.LoadUint64(&m.staleCount),
		OpenViews:                int(atomic.LoadInt64(&m.openViewCount)),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
