package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/query"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessQuery_BlankQueryRejected(t *testing.T) {
	f := newFixture(t, &stubLLM{intent: &domain.QueryIntent{Intent: domain.IntentSearch}})

	_, err := f.assistant.ProcessQuery(context.Background(), "   ")

	var v *domain.ErrValidation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "query", v.Field)
	assert.Zero(t, f.llm.classifyCalls)
}

func TestProcessQuery_InterpretationFailureFallsBackToSearch(t *testing.T) {
	f := newFixture(t, &stubLLM{classifyErr: errors.New("model down")})
	q := "cashback cards"

	resp, err := f.assistant.ProcessQuery(context.Background(), q)
	require.NoError(t, err)

	want := query.SearchCards(f.repo.All(), q)
	assert.Equal(t, cardIDs(want), cardIDs(resp.Cards))
	assert.NotEmpty(t, resp.Cards)
	assert.Equal(t, service.FallbackMessage(len(want), q), resp.Message)
	assert.False(t, resp.Comparison)
	assert.Nil(t, resp.Recommendations)
	assert.Zero(t, f.llm.generateCalls())

	snap := f.metrics.GetAssistantSnapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.InDelta(t, 1.0, snap.FallbackRate, 1e-9)
}

func TestProcessQuery_FallbackMessageFormat(t *testing.T) {
	assert.Equal(t, `Found 2 credit cards matching your search for "axis".`, service.FallbackMessage(2, "axis"))
}

func TestProcessQuery_SearchWithFilters(t *testing.T) {
	llm := &stubLLM{
		intent: &domain.QueryIntent{
			Intent:  domain.IntentSearch,
			Filters: &domain.FilterCriteria{LoungeAccess: ptr(true), MaxAnnualFee: ptr(5000)},
		},
		generate: func(string) (string, error) { return "  I found 6 cards with lounge access.  ", nil },
	}
	f := newFixture(t, llm)

	resp, err := f.assistant.ProcessQuery(context.Background(), "lounge cards under 5000")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"hdfc-regalia-gold", "hdfc-millennia", "icici-coral", "icici-sapphiro", "axis-ace", "sbi-elite",
	}, cardIDs(resp.Cards))
	assert.Equal(t, "I found 6 cards with lounge access.", resp.Message)
	assert.False(t, resp.Comparison)
	assert.Nil(t, resp.Recommendations)
	assert.Contains(t, llm.promptContaining("User asked:"), "Found 6 credit cards.")
}

func TestProcessQuery_BestForMatchesLabelFragments(t *testing.T) {
	f := newFixture(t, &stubLLM{
		intent:   &domain.QueryIntent{Intent: domain.IntentSearch, BestFor: []string{"travel"}},
		generate: func(string) (string, error) { return "ok", nil },
	})

	resp, err := f.assistant.ProcessQuery(context.Background(), "travel cards")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"hdfc-regalia-gold", "hdfc-infinia", "icici-sapphiro", "axis-flipkart", "axis-magnus", "sbi-elite",
	}, cardIDs(resp.Cards))
}

func TestProcessQuery_CompareOverridesFilters(t *testing.T) {
	f := newFixture(t, &stubLLM{
		intent: &domain.QueryIntent{
			Intent:    domain.IntentCompare,
			Filters:   &domain.FilterCriteria{Categories: []string{"Premium"}},
			CardNames: []string{"Millennia", "ACE"},
		},
		generate: func(string) (string, error) { return "Here is the comparison.", nil },
	})

	resp, err := f.assistant.ProcessQuery(context.Background(), "compare millennia and ace")
	require.NoError(t, err)

	assert.Equal(t, []string{"hdfc-millennia", "axis-ace"}, cardIDs(resp.Cards))
	assert.True(t, resp.Comparison)
}

func TestProcessQuery_RecommendUsesFirstThreeCards(t *testing.T) {
	llm := &stubLLM{
		intent: &domain.QueryIntent{Intent: domain.IntentRecommend, BestFor: []string{"Dining"}},
		generate: func(p string) (string, error) {
			if isRecommendPrompt(p) {
				return "Here you go:\n- Infinia: unlimited lounge\n-   \n  - Coral: movie offers\nnot a bullet\n- Magnus: 25k miles", nil
			}
			return "Three great dining cards.", nil
		},
	}
	f := newFixture(t, llm)

	resp, err := f.assistant.ProcessQuery(context.Background(), "best dining card")
	require.NoError(t, err)

	assert.Equal(t, []string{"hdfc-infinia", "icici-coral", "axis-magnus", "sbi-elite"}, cardIDs(resp.Cards))
	assert.Equal(t, "Three great dining cards.", resp.Message)
	assert.Equal(t, []string{"Infinia: unlimited lounge", "Coral: movie offers", "Magnus: 25k miles"}, resp.Recommendations)

	prompt := llm.promptContaining("why each is recommended")
	assert.Contains(t, prompt, "Axis Magnus (Axis Bank):")
	assert.NotContains(t, prompt, "SBI ELITE")
}

func TestProcessQuery_RecommendationFailureOmitsField(t *testing.T) {
	f := newFixture(t, &stubLLM{
		intent: &domain.QueryIntent{Intent: domain.IntentRecommend},
		generate: func(p string) (string, error) {
			if isRecommendPrompt(p) {
				return "", errors.New("rate limited")
			}
			return "All twelve cards.", nil
		},
	})

	resp, err := f.assistant.ProcessQuery(context.Background(), "recommend a card")
	require.NoError(t, err)

	assert.Len(t, resp.Cards, 12)
	assert.Equal(t, "All twelve cards.", resp.Message)
	assert.Nil(t, resp.Recommendations)
}

func TestProcessQuery_SummaryFailureUsesFallbackMessage(t *testing.T) {
	f := newFixture(t, &stubLLM{
		intent:   &domain.QueryIntent{Intent: domain.IntentSearch, Filters: &domain.FilterCriteria{NoAnnualFee: ptr(true)}},
		generate: func(string) (string, error) { return "", errors.New("timeout") },
	})

	resp, err := f.assistant.ProcessQuery(context.Background(), "free cards")
	require.NoError(t, err)

	assert.Equal(t, []string{"icici-amazon-pay"}, cardIDs(resp.Cards))
	assert.Equal(t, `Found 1 credit cards matching your search for "free cards".`, resp.Message)
}

func TestProcessQuery_IntentIsCachedByNormalizedQuery(t *testing.T) {
	llm := &stubLLM{
		intent:   &domain.QueryIntent{Intent: domain.IntentSearch},
		generate: func(string) (string, error) { return "ok", nil },
	}
	f := newFixture(t, llm)

	_, err := f.assistant.ProcessQuery(context.Background(), "Travel Cards")
	require.NoError(t, err)
	_, err = f.assistant.ProcessQuery(context.Background(), "  travel cards ")
	require.NoError(t, err)

	assert.Equal(t, 1, llm.classifyCalls)
	assert.InDelta(t, 0.5, f.metrics.GetAssistantSnapshot().CacheHitRate, 1e-9)
}

func TestProcessQuery_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFixture(t, &stubLLM{intent: &domain.QueryIntent{Intent: domain.IntentSearch}})

	_, err := f.assistant.ProcessQuery(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}
