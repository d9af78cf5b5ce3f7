package observability_test

import (
	"testing"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"

	"github.com/stretchr/testify/assert"
)

func TestAssistantSnapshot_Empty(t *testing.T) {
	snap := observability.NewMetrics().GetAssistantSnapshot()

	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.FallbackRate)
	assert.Zero(t, snap.AvgLatencyMs)
	assert.Equal(t, "all_time", snap.Period)
}

func TestAssistantSnapshot_Rates(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrRequest(observability.StatusSuccess)
	m.IncrRequest(observability.StatusSuccess)
	m.IncrRequest(observability.StatusSuccess)
	m.IncrRequest(observability.StatusFallback)
	m.RecordTokens(1000, 1000)
	m.IncrCacheHit("intent")
	m.IncrCacheMiss("intent")
	m.IncrCacheMiss("analysis")
	m.IncrCacheMiss("analysis")
	m.RecordRequestDuration("assistant", 100*time.Millisecond)
	m.RecordRequestDuration("assistant", 300*time.Millisecond)

	snap := m.GetAssistantSnapshot()

	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.InDelta(t, 0.25, snap.FallbackRate, 1e-9)
	assert.InDelta(t, 0, snap.ErrorRate, 1e-9)
	assert.InDelta(t, 500, snap.AvgTokensPerRequest, 1e-9)
	assert.InDelta(t, 0.09, snap.EstimatedCostUsd, 1e-9)
	assert.InDelta(t, 0.25, snap.CacheHitRate, 1e-9)
	assert.InDelta(t, 200, snap.AvgLatencyMs, 1e-6)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.IncrRequest(observability.StatusSuccess)

	assert.Equal(t, int64(1), a.GetAssistantSnapshot().TotalRequests)
	assert.Equal(t, int64(0), b.GetAssistantSnapshot().TotalRequests)
}
