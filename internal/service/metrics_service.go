package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SystemMetrics is the lightweight snapshot served by the status endpoint.
type SystemMetrics struct {
	EventsProcessed          uint64    `json:"events_processed"`
	EventsSkipped            uint64    `json:"events_skipped"`
	ChainFallbacks           uint64    `json:"chain_fallbacks"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation for both sides of
// the process: the ingest pipeline and the query API. It implements
// mapping.Observer so the engine reports into the same registry.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	eventDuration   *prometheus.HistogramVec
	eventsProcessed *prometheus.CounterVec
	eventsSkipped   *prometheus.CounterVec
	chainFallbacks  *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	eventCount           uint64
	skipCount            uint64
	fallbackCount        uint64
}

// NewMetricsService registers the core collectors.
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

	eventDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "indexer_event_duration_seconds",
		Help:    "Time spent applying one contract event",
		Buckets: prometheus.DefBuckets,
	}, []string{"contract"})

	eventsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_events_processed_total",
		Help: "Contract events applied to the entity graph",
	}, []string{"contract", "event"})

	eventsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_events_skipped_total",
		Help: "Contract events skipped by reason",
	}, []string{"contract", "event", "reason"})

	chainFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_chain_fallbacks_total",
		Help: "Chain read calls that failed and fell back to defaults",
	}, []string{"call"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses,
		eventDuration, eventsProcessed, eventsSkipped, chainFallbacks, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		eventDuration:   eventDuration,
		eventsProcessed: eventsProcessed,
		eventsSkipped:   eventsSkipped,
		chainFallbacks:  chainFallbacks,
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

// EventProcessed implements mapping.Observer.
func (m *MetricsService) EventProcessed(contract, name string, seconds float64) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(contract, name).Inc()
	m.eventDuration.WithLabelValues(contract).Observe(seconds)
	atomic.AddUint64(&m.eventCount, 1)
}

// EventSkipped implements mapping.Observer.
func (m *MetricsService) EventSkipped(contract, name, reason string) {
	if m == nil {
		return
	}
	m.eventsSkipped.WithLabelValues(contract, name, reason).Inc()
	atomic.AddUint64(&m.skipCount, 1)
}

// DependencyFallback implements mapping.Observer.
func (m *MetricsService) DependencyFallback(call string) {
	if m == nil {
		return
	}
	m.chainFallbacks.WithLabelValues(call).Inc()
	atomic.AddUint64(&m.fallbackCount, 1)
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

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
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
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// Snapshot returns aggregate counters for the status endpoint.
func (m *MetricsService) Snapshot() SystemMetrics {
	if m == nil {
		return SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return SystemMetrics{
		EventsProcessed:          atomic.LoadUint64(&m.eventCount),
		EventsSkipped:            atomic.LoadUint64(&m.skipCount),
		ChainFallbacks:           atomic.LoadUint64(&m.fallbackCount),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
