package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/catalog"
	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/cache"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Stubs ---

type stubLLM struct {
	mu            sync.Mutex
	intent        *domain.QueryIntent
	classifyErr   error
	generate      func(prompt string) (string, error)
	classifyCalls int
	prompts       []string
}

func (s *stubLLM) ClassifyQuery(_ context.Context, _ string) (*domain.QueryIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifyCalls++
	if s.classifyErr != nil {
		return nil, s.classifyErr
	}
	cp := *s.intent
	return &cp, nil
}

func (s *stubLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	gen := s.generate
	s.mu.Unlock()
	if gen == nil {
		return "", nil
	}
	return gen(prompt)
}

func (s *stubLLM) generateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *stubLLM) promptContaining(fragment string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prompts {
		if strings.Contains(p, fragment) {
			return p
		}
	}
	return ""
}

type stubChat struct {
	system string
	turns  []domain.ChatTurn
	deltas []string
	err    error
	ctx    context.Context
}

func (s *stubChat) StreamChat(ctx context.Context, system string, turns []domain.ChatTurn, onDelta func(string) error) error {
	s.ctx = ctx
	s.system = system
	s.turns = turns
	for _, d := range s.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return s.err
}

// --- Fixtures ---

func ptr[T any](v T) *T { return &v }

func loadCatalog(t *testing.T) *catalog.Repository {
	t.Helper()
	repo, err := catalog.Load("")
	require.NoError(t, err)
	return repo
}

func cardIDs(cards []domain.CardRecord) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

// isRecommendPrompt tells the recommendation call apart from the summary.
func isRecommendPrompt(p string) bool {
	return strings.Contains(p, "why each is recommended")
}

type fixture struct {
	llm       *stubLLM
	repo      *catalog.Repository
	metrics   *observability.Metrics
	assistant *service.Assistant
	catalog   *service.CatalogService
	composer  *service.Composer
}

func newFixture(t *testing.T, llm *stubLLM) *fixture {
	t.Helper()
	repo := loadCatalog(t)
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	interpreter := service.NewInterpreter(llm, repo, cache.NewMemory[domain.QueryIntent](time.Minute, 0), metrics, logger)
	composer := service.NewComposer(llm, cache.NewMemory[domain.CardAnalysis](time.Minute, 0), metrics, logger)
	return &fixture{
		llm:       llm,
		repo:      repo,
		metrics:   metrics,
		assistant: service.NewAssistant(interpreter, composer, repo, metrics, logger),
		catalog:   service.NewCatalogService(repo, composer, logger),
		composer:  composer,
	}
}
