// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
)

// LanguageModel is the single-shot capability of the hosted model used by
// the query pipeline.
type LanguageModel interface {
	// ClassifyQuery turns a prompt into a structured intent.
	// Malformed model output is reported as *domain.ErrMalformedOutput.
	ClassifyQuery(ctx context.Context, prompt string) (*domain.QueryIntent, error)

	// Generate returns free text for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatModel streams a conversational answer. onDelta is called once per
// text fragment, in order; returning an error from it aborts the stream.
type ChatModel interface {
	StreamChat(ctx context.Context, system string, turns []domain.ChatTurn, onDelta func(string) error) error
}

// CardCatalog is the read-only card repository.
type CardCatalog interface {
	All() []domain.CardRecord
	ByID(id string) (domain.CardRecord, bool)
	Excerpt(n int) []domain.CardRecord
	Len() int
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
