package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_DefaultsToAnnualFeeAscending(t *testing.T) {
	f := newFixture(t, &stubLLM{})

	resp := f.catalog.List(context.Background(), service.ListParams{})

	require.Equal(t, 12, resp.Total)
	require.Len(t, resp.Cards, 12)
	assert.Equal(t, []string{"icici-amazon-pay", "axis-ace", "sbi-simplyclick", "icici-coral", "axis-flipkart"},
		cardIDs(resp.Cards[:5]))
	assert.Equal(t, []string{"hdfc-infinia", "axis-magnus"}, cardIDs(resp.Cards[10:]))
}

func TestList_SearchThenFilterThenSort(t *testing.T) {
	f := newFixture(t, &stubLLM{})

	resp := f.catalog.List(context.Background(), service.ListParams{
		Query:    "visa",
		Criteria: domain.FilterCriteria{Banks: []string{"hdfc bank", "Axis Bank"}, LoungeAccess: ptr(true)},
		Sort:     domain.FieldName,
		Order:    domain.SortDesc,
	})

	assert.Equal(t, []string{"hdfc-millennia", "hdfc-infinia", "axis-magnus", "axis-ace"}, cardIDs(resp.Cards))
	assert.Equal(t, 4, resp.Total)
}

func TestList_NoMatchesIsEmptyNotNil(t *testing.T) {
	f := newFixture(t, &stubLLM{})

	resp := f.catalog.List(context.Background(), service.ListParams{Query: "platinum unicorn"})
	assert.NotNil(t, resp.Cards)
	assert.Zero(t, resp.Total)
}

func TestGet(t *testing.T) {
	f := newFixture(t, &stubLLM{})

	card, err := f.catalog.Get(context.Background(), "sbi-elite")
	require.NoError(t, err)
	assert.Equal(t, "SBI ELITE", card.Name)

	_, err = f.catalog.Get(context.Background(), "nope")
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
}

func TestFacets(t *testing.T) {
	f := newFixture(t, &stubLLM{})

	facets := f.catalog.Facets(context.Background())

	assert.Equal(t, []string{"HDFC Bank", "ICICI Bank", "Axis Bank", "State Bank of India"}, facets.Banks)
	assert.Equal(t, []string{"Premium", "Cashback", "Entry-level", "Mid-tier"}, facets.Categories)
	assert.Equal(t, []string{"Mastercard", "Visa", "RuPay"}, facets.NetworkTypes)
	assert.Equal(t, []string{"Travel", "Shopping", "Lifestyle"}, facets.BestFor[:3])
	assert.Contains(t, facets.BestFor, "Golf")
}

func TestCompare(t *testing.T) {
	f := newFixture(t, &stubLLM{})
	ctx := context.Background()

	cards, err := f.catalog.Compare(ctx, []string{"sbi-elite", " axis-ace ", "sbi-elite", "hdfc-infinia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sbi-elite", "axis-ace", "hdfc-infinia"}, cardIDs(cards))

	_, err = f.catalog.Compare(ctx, []string{"axis-ace", "axis-magnus", "sbi-elite", "icici-coral", "hdfc-millennia"})
	var v *domain.ErrValidation
	assert.ErrorAs(t, err, &v)

	_, err = f.catalog.Compare(ctx, []string{"", "  "})
	assert.ErrorAs(t, err, &v)

	_, err = f.catalog.Compare(ctx, []string{"axis-ace", "ghost-card"})
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost-card", nf.ID)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, &stubLLM{generate: func(string) (string, error) { return "", errors.New("down") }})

	a, err := f.catalog.Analyze(context.Background(), "icici-coral")
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisSourceFallback, a.Source)
	assert.Equal(t, []string{"₹500 annual fee"}, a.Cons)

	_, err = f.catalog.Analyze(context.Background(), "missing")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, f.llm.generateCalls())
}
