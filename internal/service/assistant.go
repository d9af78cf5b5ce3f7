package service

import (
	"context"
	"strings"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"
	"github.com/boddenberg/card-compare-bfa-go/internal/query"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Assistant answers free-text questions about the catalog: interpret,
// resolve, then compose.
type Assistant struct {
	interpreter *Interpreter
	composer    *Composer
	catalog     port.CardCatalog
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAssistant creates the assistant service with all dependencies injected.
func NewAssistant(
	interpreter *Interpreter,
	composer *Composer,
	catalog port.CardCatalog,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		interpreter: interpreter,
		composer:    composer,
		catalog:     catalog,
		metrics:     metrics,
		logger:      logger,
	}
}

// ProcessQuery answers q. Model failures never surface as errors: a failed
// interpretation degrades to keyword search over the whole catalog.
func (a *Assistant) ProcessQuery(ctx context.Context, q string) (*domain.AIQueryResponse, error) {
	if strings.TrimSpace(q) == "" {
		return nil, &domain.ErrValidation{Field: "query", Message: "query is required"}
	}
	if err := ctx.Err(); err != nil {
		a.metrics.IncrRequest(observability.StatusError)
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Assistant.ProcessQuery")
	defer span.End()

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("assistant", time.Since(start))
	}()

	intent, err := a.interpreter.Interpret(ctx, q)
	if err != nil {
		a.logger.Warn("query interpretation failed, falling back to search",
			zap.String("query", q),
			zap.Error(err),
		)
		a.metrics.IncrFallback("interpret")
		a.metrics.IncrRequest(observability.StatusFallback)
		span.SetAttributes(attribute.Bool("fallback", true))

		results := query.SearchCards(a.catalog.All(), q)
		return &domain.AIQueryResponse{
			Cards:      results,
			Message:    FallbackMessage(len(results), q),
			Comparison: false,
		}, nil
	}

	results := a.interpreter.Resolve(ctx, intent)
	span.SetAttributes(
		attribute.String("intent", string(intent.Intent)),
		attribute.Int("cards.found", len(results)),
	)

	// Summary and recommendations depend only on the result set.
	var (
		message         string
		recommendations []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		message = a.composer.Summarize(gCtx, q, intent.Intent, results)
		return nil
	})
	if intent.Intent == domain.IntentRecommend && len(results) > 0 {
		g.Go(func() error {
			recommendations = a.composer.Recommend(gCtx, results)
			return nil
		})
	}
	_ = g.Wait()

	a.metrics.IncrRequest(observability.StatusSuccess)
	return &domain.AIQueryResponse{
		Cards:           results,
		Message:         message,
		Comparison:      intent.Intent == domain.IntentCompare,
		Recommendations: recommendations,
	}, nil
}
