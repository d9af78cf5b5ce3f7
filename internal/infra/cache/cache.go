// Package cache memoizes model output: classified intents keyed by query and
// pros/cons analyses keyed by card id. Memory keeps entries in-process;
// Redis shares them across replicas.
package cache

import (
	"sync"
	"time"
)

const (
	defaultTTL        = time.Minute
	defaultMaxEntries = 1000
	maxSweepInterval  = time.Minute
)

type memoEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is a bounded in-process memo. Every entry lives for the same TTL;
// when the memo is full the entry closest to expiry makes room.
type Memory[T any] struct {
	mu         sync.Mutex
	entries    map[string]memoEntry[T]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory starts a memo and its sweeper. Call Close to stop the sweeper.
func NewMemory[T any](ttl time.Duration, maxEntries int) *Memory[T] {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	m := &Memory[T]{
		entries:    make(map[string]memoEntry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go m.sweep(min(ttl, maxSweepInterval))
	return m
}

// Get returns a live entry. An expired one is dropped on the way out.
func (m *Memory[T]) Get(key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value for the memo's TTL, evicting if the memo is full.
func (m *Memory[T]) Set(key string, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.entries[key] = memoEntry[T]{value: value, expiresAt: now.Add(m.ttl)}
}

func (m *Memory[T]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len counts stored entries, including expired ones not yet swept.
func (m *Memory[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the sweeper. The memo stays usable.
func (m *Memory[T]) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// evictLocked drops expired entries, or failing that the one expiring first.
func (m *Memory[T]) evictLocked(now time.Time) {
	if m.purgeLocked(now) > 0 {
		return
	}
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range m.entries {
		if !found || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory[T]) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *Memory[T]) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.purgeLocked(m.now())
			m.mu.Unlock()
		}
	}
}
