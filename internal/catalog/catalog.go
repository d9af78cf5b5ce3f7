// Package catalog holds the read-only credit card repository.
// The dataset is embedded at build time and validated against a JSON Schema
// when loaded; it can be swapped for a file on disk via CARDS_FILE.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed data/credit-cards.json
var embeddedCards []byte

//go:embed data/credit-cards.schema.json
var cardSchema []byte

// Repository is an immutable, in-memory collection of cards.
// Safe for concurrent use: nothing mutates it after Load returns.
type Repository struct {
	cards []domain.CardRecord
	byID  map[string]int
}

// Load builds a repository from the file at path, or from the embedded
// dataset when path is empty.
func Load(path string) (*Repository, error) {
	raw := embeddedCards
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cards file: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse validates raw JSON against the card schema and builds a repository.
func Parse(raw []byte) (*Repository, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(cardSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("card dataset validation failed: %v", errs)
	}

	var cards []domain.CardRecord
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}

	byID := make(map[string]int, len(cards))
	for i, c := range cards {
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate card id: %s", c.ID)
		}
		byID[c.ID] = i
	}

	return &Repository{cards: cards, byID: byID}, nil
}

// All returns every card in dataset order. The slice is a deep copy.
func (r *Repository) All() []domain.CardRecord {
	out := make([]domain.CardRecord, len(r.cards))
	for i, c := range r.cards {
		out[i] = clone(c)
	}
	return out
}

// ByID looks up a single card.
func (r *Repository) ByID(id string) (domain.CardRecord, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.CardRecord{}, false
	}
	return clone(r.cards[i]), true
}

// Excerpt returns the first n cards, or all of them when n exceeds the size.
func (r *Repository) Excerpt(n int) []domain.CardRecord {
	all := r.All()
	if n < 0 || n >= len(all) {
		return all
	}
	return all[:n]
}

// Len is the number of cards loaded.
func (r *Repository) Len() int { return len(r.cards) }

func clone(c domain.CardRecord) domain.CardRecord {
	c.Benefits = slices.Clone(c.Benefits)
	c.BestFor = slices.Clone(c.BestFor)
	return c
}
