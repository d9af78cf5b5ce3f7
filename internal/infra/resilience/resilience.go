// Package resilience provides fault-tolerance patterns:
// retry with exponential backoff, circuit breaker, and bulkhead.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
// MaxRetries of 0 means a single attempt.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// permanentError stops RetryWithBackoff from trying again.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying (bad request, malformed payload).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff executes fn with exponential backoff + jitter.
// It respects context cancellation and stops early on Permanent errors.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * initial
			jitter := time.Duration(rand.Int63n(int64(backoff/2) + 1))
			wait := backoff + jitter

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
// Cancellations by the caller do not count as failures.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}

// Guard runs calls to one external dependency through a bulkhead, a
// circuit breaker and retry, in that order.
type Guard struct {
	service  string
	cfg      Config
	breaker  *gobreaker.CircuitBreaker
	bulkhead *Bulkhead
}

// NewGuard wires the three patterns for a named dependency.
func NewGuard(service string, cfg Config, cb *gobreaker.CircuitBreaker) *Guard {
	if cb == nil {
		cb = NewCircuitBreaker(service)
	}
	return &Guard{
		service:  service,
		cfg:      cfg,
		breaker:  cb,
		bulkhead: NewBulkhead(cfg.MaxConcurrency),
	}
}

// Execute runs fn and translates failures into domain errors:
// an open breaker becomes *domain.ErrCircuitOpen, an expired deadline
// *domain.ErrTimeout, anything else *domain.ErrExternalService.
func (g *Guard) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if err := g.bulkhead.Acquire(ctx); err != nil {
		return g.classify(operation, err)
	}
	defer g.bulkhead.Release()

	_, err := g.breaker.Execute(func() (any, error) {
		return nil, RetryWithBackoff(ctx, g.cfg, func() error {
			return fn(ctx)
		})
	})
	if err != nil {
		return g.classify(operation, err)
	}
	return nil
}

// State reports the breaker state ("closed", "half-open", "open").
func (g *Guard) State() string {
	return g.breaker.State().String()
}

// Open reports whether calls are currently being rejected.
func (g *Guard) Open() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

func (g *Guard) classify(operation string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: g.service}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: g.service + "." + operation}
	}
	return &domain.ErrExternalService{Service: g.service, Err: err}
}
