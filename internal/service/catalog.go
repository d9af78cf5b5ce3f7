package service

import (
	"context"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"
	"github.com/boddenberg/card-compare-bfa-go/internal/query"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MaxCompare is the largest side-by-side selection.
const MaxCompare = 4

// ListParams drives the catalog browser: search, then filter, then sort.
type ListParams struct {
	Query    string
	Criteria domain.FilterCriteria
	Sort     domain.CardField
	Order    domain.SortOrder
}

// CatalogService serves the card browser.
type CatalogService struct {
	catalog  port.CardCatalog
	composer *Composer
	logger   *zap.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(catalog port.CardCatalog, composer *Composer, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		composer: composer,
		logger:   logger,
	}
}

// List returns the cards matching p. The default order is annual fee ascending.
func (s *CatalogService) List(ctx context.Context, p ListParams) *domain.CardListResponse {
	_, span := tracer.Start(ctx, "CatalogService.List")
	defer span.End()

	if p.Sort == "" {
		p.Sort = domain.FieldAnnualFee
	}
	if p.Order == "" {
		p.Order = domain.SortAsc
	}

	cards := query.SearchCards(s.catalog.All(), p.Query)
	cards = query.FilterCards(cards, p.Criteria)
	cards = query.SortCards(cards, p.Sort, p.Order)

	span.SetAttributes(
		attribute.String("sort", string(p.Sort)),
		attribute.Int("cards.total", len(cards)),
	)
	return &domain.CardListResponse{Cards: cards, Total: len(cards)}
}

// Get returns one card by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.CardRecord, error) {
	_, span := tracer.Start(ctx, "CatalogService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", id))

	card, ok := s.catalog.ByID(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "card", ID: id}
	}
	return &card, nil
}

// Facets returns the distinct values the filter UI offers.
func (s *CatalogService) Facets(ctx context.Context) *domain.CardFacets {
	_, span := tracer.Start(ctx, "CatalogService.Facets")
	defer span.End()

	all := s.catalog.All()
	return &domain.CardFacets{
		Banks:        query.UniqueStrings(all, domain.FieldBank),
		Categories:   query.UniqueStrings(all, domain.FieldCategory),
		NetworkTypes: query.UniqueStrings(all, domain.FieldNetworkType),
		BestFor:      query.UniqueStrings(all, domain.FieldBestFor),
	}
}

// Compare returns the requested cards in request order. Duplicate ids are
// collapsed before the size check.
func (s *CatalogService) Compare(ctx context.Context, ids []string) ([]domain.CardRecord, error) {
	_, span := tracer.Start(ctx, "CatalogService.Compare")
	defer span.End()

	seen := make(map[string]struct{}, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	span.SetAttributes(attribute.Int("cards.requested", len(distinct)))

	switch {
	case len(distinct) == 0:
		return nil, &domain.ErrValidation{Field: "ids", Message: "at least one card id is required"}
	case len(distinct) > MaxCompare:
		return nil, &domain.ErrValidation{Field: "ids", Message: "at most 4 cards can be compared"}
	}

	cards := make([]domain.CardRecord, 0, len(distinct))
	for _, id := range distinct {
		card, ok := s.catalog.ByID(id)
		if !ok {
			return nil, &domain.ErrNotFound{Resource: "card", ID: id}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Analyze returns pros and cons for one card. Model failures degrade to the
// field-derived analysis.
func (s *CatalogService) Analyze(ctx context.Context, id string) (*domain.CardAnalysis, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Analyze")
	defer span.End()

	card, ok := s.catalog.ByID(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "card", ID: id}
	}
	analysis := s.composer.AnalyzeCard(ctx, card)
	return &analysis, nil
}
