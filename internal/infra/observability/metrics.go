package observability

import (
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Request outcomes for IncrRequest.
const (
	StatusSuccess  = "success"
	StatusFallback = "fallback"
	StatusError    = "error"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	httpDuration    *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardcompare_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardcompare_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status class.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardcompare_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardcompare_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardcompare_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardcompare_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardcompare_assistant_requests_total",
				Help: "Total assistant queries by outcome.",
			},
			[]string{"status"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardcompare_fallbacks_total",
				Help: "Model failures absorbed by a local fallback, by stage.",
			},
			[]string{"stage"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordHTTP records one served HTTP request.
func (m *Metrics) RecordHTTP(method, route, code string, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrFallback counts a degraded answer at the given pipeline stage.
func (m *Metrics) IncrFallback(stage string) {
	m.fallbacks.WithLabelValues(stage).Inc()
}

// Cache names used for hit-rate accounting.
var snapshotCaches = []string{"intent", "analysis"}

// GetAssistantSnapshot returns a snapshot of assistant metrics suitable for
// the GET /v1/metrics/assistant endpoint.
func (m *Metrics) GetAssistantSnapshot() *domain.AssistantMetrics {
	// Prometheus counters expose cumulative values.
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	success := getCounterValue(m.requestsTotal, StatusSuccess)
	fallback := getCounterValue(m.requestsTotal, StatusFallback)
	errorCount := getCounterValue(m.requestsTotal, StatusError)
	totalRequests := success + fallback + errorCount

	var cacheHits, cacheMisses float64
	for _, name := range snapshotCaches {
		cacheHits += getCounterValue(m.cacheHits, name)
		cacheMisses += getCounterValue(m.cacheMisses, name)
	}

	totalTokens := promptTokens + completionTokens
	avgTokens := float64(0)
	errorRate := float64(0)
	fallbackRate := float64(0)
	cacheHitRate := float64(0)

	if totalRequests > 0 {
		avgTokens = totalTokens / totalRequests
		errorRate = errorCount / totalRequests
		fallbackRate = fallback / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	// Estimated cost: ~$0.03/1k prompt tokens, ~$0.06/1k completion tokens (GPT-4)
	estimatedCost := (promptTokens/1000)*0.03 + (completionTokens/1000)*0.06

	return &domain.AssistantMetrics{
		TotalRequests:       int64(totalRequests),
		AvgLatencyMs:        getHistogramMean(m.requestDuration, "assistant") * 1000,
		ErrorRate:           errorRate,
		FallbackRate:        fallbackRate,
		AvgTokensPerRequest: avgTokens,
		EstimatedCostUsd:    estimatedCost,
		CacheHitRate:        cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getHistogramMean returns sum/count for one label of a HistogramVec, in seconds.
func getHistogramMean(hv *prometheus.HistogramVec, label string) float64 {
	obs := hv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	h := m.GetHistogram()
	if h == nil || h.GetSampleCount() == 0 {
		return 0
	}
	return h.GetSampleSum() / float64(h.GetSampleCount())
}
