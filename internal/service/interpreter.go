package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"
	"github.com/boddenberg/card-compare-bfa-go/internal/query"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// recommendLimit is how many resolved cards feed the recommendation call.
const recommendLimit = 3

// Interpreter turns free text into a QueryIntent and applies it to the catalog.
type Interpreter struct {
	llm     port.LanguageModel
	catalog port.CardCatalog
	cache   port.Cache[domain.QueryIntent]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewInterpreter creates an Interpreter. cache may be nil.
func NewInterpreter(
	llm port.LanguageModel,
	catalog port.CardCatalog,
	cache port.Cache[domain.QueryIntent],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Interpreter {
	return &Interpreter{
		llm:     llm,
		catalog: catalog,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Interpret classifies query with one structured-output model call.
// Successful classifications are memoized by normalized query text.
func (i *Interpreter) Interpret(ctx context.Context, q string) (*domain.QueryIntent, error) {
	ctx, span := tracer.Start(ctx, "Interpreter.Interpret")
	defer span.End()

	cacheKey := intentCacheKey(q)
	if i.cache != nil {
		if cached, ok := i.cache.Get(cacheKey); ok {
			i.metrics.IncrCacheHit("intent")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		}
		i.metrics.IncrCacheMiss("intent")
	}

	intent, err := i.llm.ClassifyQuery(ctx, classifyPrompt(q))
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}
	span.SetAttributes(attribute.String("intent", string(intent.Intent)))

	if i.cache != nil {
		i.cache.Set(cacheKey, *intent)
	}
	return intent, nil
}

// Resolve applies intent to the full catalog: filters, then bestFor
// labels, then the compare-by-name override.
func (i *Interpreter) Resolve(ctx context.Context, intent *domain.QueryIntent) []domain.CardRecord {
	_, span := tracer.Start(ctx, "Interpreter.Resolve")
	defer span.End()

	all := i.catalog.All()
	results := all

	if intent.Filters != nil {
		results = query.FilterCards(results, *intent.Filters)
	}
	if len(intent.BestFor) > 0 {
		results = query.MatchBestFor(results, intent.BestFor)
	}
	if intent.Intent == domain.IntentCompare && len(intent.CardNames) > 0 {
		results = query.MatchNames(all, intent.CardNames)
	}

	span.SetAttributes(attribute.Int("cards.resolved", len(results)))
	return results
}

func intentCacheKey(q string) string {
	return "intent:" + strings.ToLower(strings.TrimSpace(q))
}
