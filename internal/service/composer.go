package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Composer writes the user-facing text around a result set. Every public
// method absorbs model errors and degrades to deterministic text.
type Composer struct {
	llm     port.LanguageModel
	cache   port.Cache[domain.CardAnalysis]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewComposer creates a Composer. cache may be nil.
func NewComposer(
	llm port.LanguageModel,
	cache port.Cache[domain.CardAnalysis],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Composer {
	return &Composer{
		llm:     llm,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// FallbackMessage is the summary used when the model is unavailable.
func FallbackMessage(found int, q string) string {
	return fmt.Sprintf("Found %d credit cards matching your search for \"%s\".", found, q)
}

// Summarize returns a short conversational summary of the results.
func (c *Composer) Summarize(ctx context.Context, q string, intent domain.Intent, cards []domain.CardRecord) string {
	ctx, span := tracer.Start(ctx, "Composer.Summarize")
	defer span.End()

	text, err := c.llm.Generate(ctx, summaryPrompt(q, intent, len(cards)))
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Warn("summary fell back", zap.String("intent", string(intent)), zap.Error(err))
		c.metrics.IncrFallback("summary")
		span.SetAttributes(attribute.Bool("fallback", true))
		return FallbackMessage(len(cards), q)
	}
	return strings.TrimSpace(text)
}

// Recommend returns one bullet per card for at most three cards. A model
// error yields nil so the field is omitted.
func (c *Composer) Recommend(ctx context.Context, cards []domain.CardRecord) []string {
	ctx, span := tracer.Start(ctx, "Composer.Recommend")
	defer span.End()

	if len(cards) == 0 {
		return nil
	}
	cards = firstN(cards, recommendLimit)

	text, err := c.llm.Generate(ctx, recommendationsPrompt(cards))
	if err != nil {
		c.logger.Warn("recommendations omitted", zap.Error(err))
		c.metrics.IncrFallback("recommend")
		return nil
	}

	bullets := ParseBullets(text)
	span.SetAttributes(attribute.Int("bullets", len(bullets)))
	if len(bullets) == 0 {
		return nil
	}
	return bullets
}

// AnalyzeCard returns pros and cons for card. Fully model-written analyses
// are cached per card id.
func (c *Composer) AnalyzeCard(ctx context.Context, card domain.CardRecord) domain.CardAnalysis {
	ctx, span := tracer.Start(ctx, "Composer.AnalyzeCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", card.ID))

	cacheKey := "analysis:" + card.ID
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.metrics.IncrCacheHit("analysis")
			return cached
		}
		c.metrics.IncrCacheMiss("analysis")
	}

	text, err := c.llm.Generate(ctx, prosConsPrompt(card))
	if err != nil {
		c.logger.Warn("analysis fell back",
			zap.String("card_id", card.ID),
			zap.Error(err),
		)
		c.metrics.IncrFallback("analysis")
		return FallbackAnalysis(card)
	}

	analysis := domain.CardAnalysis{CardID: card.ID, Source: domain.AnalysisSourceAI}
	analysis.Pros, analysis.Cons = ParseProsCons(text)

	fb := FallbackAnalysis(card)
	switch {
	case len(analysis.Pros) == 0 && len(analysis.Cons) == 0:
		c.metrics.IncrFallback("analysis")
		return fb
	case len(analysis.Pros) == 0:
		analysis.Pros = fb.Pros
		analysis.Source = domain.AnalysisSourcePartial
	case len(analysis.Cons) == 0:
		analysis.Cons = fb.Cons
		analysis.Source = domain.AnalysisSourcePartial
	}
	span.SetAttributes(attribute.String("analysis.source", analysis.Source))

	if c.cache != nil && analysis.Source == domain.AnalysisSourceAI {
		c.cache.Set(cacheKey, analysis)
	}
	return analysis
}

// FallbackAnalysis derives pros and cons from the card's own fields.
func FallbackAnalysis(card domain.CardRecord) domain.CardAnalysis {
	return domain.CardAnalysis{
		CardID: card.ID,
		Pros: []string{
			card.CashbackRate + " cashback rate",
			card.RewardType + " rewards",
		},
		Cons:   []string{fmt.Sprintf("₹%d annual fee", card.AnnualFee)},
		Source: domain.AnalysisSourceFallback,
	}
}

// ParseBullets keeps lines that start with "-" once trimmed, with the marker
// stripped. Bullets left empty are dropped.
func ParseBullets(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if b, ok := bullet(line); ok {
			out = append(out, b)
		}
	}
	return out
}

// ParseProsCons splits a "PROS: / CONS:" answer into its two bullet lists.
// Headers are non-bullet lines. Without a CONS header the cons list is empty;
// without a PROS header every bullet before CONS is a pro.
func ParseProsCons(text string) (pros, cons []string) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	prosIdx := findHeader(lines, "PROS", 0)
	consFrom := 0
	if prosIdx >= 0 {
		consFrom = prosIdx + 1
	}
	consIdx := findHeader(lines, "CONS", consFrom)

	end := len(lines)
	if consIdx >= 0 {
		end = consIdx
	}
	for _, l := range lines[prosIdx+1 : end] {
		if b, ok := bullet(l); ok {
			pros = append(pros, b)
		}
	}
	if consIdx >= 0 {
		for _, l := range lines[consIdx+1:] {
			if b, ok := bullet(l); ok {
				cons = append(cons, b)
			}
		}
	}
	return pros, cons
}

func findHeader(lines []string, header string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "-") {
			continue
		}
		if strings.Contains(strings.ToUpper(lines[i]), header) {
			return i
		}
	}
	return -1
}

func bullet(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "-") {
		return "", false
	}
	b := strings.TrimSpace(line[1:])
	return b, b != ""
}
