package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMemory(t *testing.T, ttl time.Duration, maxEntries int) *cache.Memory[string] {
	t.Helper()
	m := cache.NewMemory[string](ttl, maxEntries)
	t.Cleanup(m.Close)
	return m
}

func TestMemory_SetAndGet(t *testing.T) {
	m := newMemory(t, 5*time.Minute, 0)

	m.Set("intent:lounge cards", "recommend")
	val, ok := m.Get("intent:lounge cards")
	require.True(t, ok)
	assert.Equal(t, "recommend", val)

	_, ok = m.Get("intent:unknown")
	assert.False(t, ok)
}

func TestMemory_ExpiredEntryIsDroppedOnRead(t *testing.T) {
	m := newMemory(t, 50*time.Millisecond, 0)

	m.Set("analysis:axis-ace", "stale")
	time.Sleep(100 * time.Millisecond)

	_, ok := m.Get("analysis:axis-ace")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemory_Delete(t *testing.T) {
	m := newMemory(t, 5*time.Minute, 0)

	m.Set("k", "v")
	m.Delete("k")

	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestMemory_FullEvictsEntryExpiringFirst(t *testing.T) {
	m := newMemory(t, 5*time.Minute, 2)

	m.Set("first", "1")
	time.Sleep(5 * time.Millisecond)
	m.Set("second", "2")
	time.Sleep(5 * time.Millisecond)
	m.Set("third", "3")

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("first")
	assert.False(t, ok)
	for _, k := range []string{"second", "third"} {
		_, ok := m.Get(k)
		assert.True(t, ok, k)
	}

	// overwriting an existing key never evicts
	m.Set("third", "3b")
	assert.Equal(t, 2, m.Len())
	_, ok = m.Get("second")
	assert.True(t, ok)
}

func TestMemory_CloseIsIdempotent(t *testing.T) {
	m := cache.NewMemory[string](time.Minute, 0)
	m.Close()
	m.Close()

	m.Set("k", "v")
	_, ok := m.Get("k")
	assert.True(t, ok)
}

// --- Redis ---

func setupRedis(t *testing.T) (*miniredis.Miniredis, *cache.Redis[domain.CardAnalysis]) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := cache.NewRedisClient(cache.RedisOptions{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, cache.NewRedis[domain.CardAnalysis](client, "analysis", time.Minute, zaptest.NewLogger(t))
}

func TestRedis_RoundTrip(t *testing.T) {
	mr, c := setupRedis(t)

	in := domain.CardAnalysis{CardID: "axis-ace", Pros: []string{"good"}, Cons: []string{"bad"}, Source: "ai"}
	c.Set("axis-ace", in)

	out, ok := c.Get("axis-ace")
	require.True(t, ok)
	assert.Equal(t, in, out)

	assert.True(t, mr.Exists("analysis:axis-ace"))
	assert.Equal(t, time.Minute, mr.TTL("analysis:axis-ace"))
}

func TestRedis_MissAndDelete(t *testing.T) {
	_, c := setupRedis(t)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", domain.CardAnalysis{CardID: "k"})
	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestRedis_Expiry(t *testing.T) {
	mr, c := setupRedis(t)

	c.Set("k", domain.CardAnalysis{CardID: "k"})
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestRedis_ErrorsDegradeToMiss(t *testing.T) {
	mr, c := setupRedis(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()

	c.Set("k", domain.CardAnalysis{CardID: "k"})
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Error(t, c.Ping(context.Background()))
}

func TestRedis_UndecodableValueIsMiss(t *testing.T) {
	mr, c := setupRedis(t)

	require.NoError(t, mr.Set("analysis:bad", "{not json"))
	_, ok := c.Get("bad")
	assert.False(t, ok)
}
