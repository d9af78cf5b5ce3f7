package query

import (
	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
)

// UniqueValues returns the distinct values of field across cards in
// first-seen order. List fields contribute each element on its own.
func UniqueValues(cards []domain.CardRecord, field domain.CardField) []any {
	seen := make(map[any]struct{})
	out := make([]any, 0)
	add := func(v any) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, c := range cards {
		switch v := FieldValue(c, field).(type) {
		case []string:
			for _, s := range v {
				add(s)
			}
		case nil:
		default:
			add(v)
		}
	}
	return out
}

// UniqueStrings is UniqueValues restricted to string-valued fields.
func UniqueStrings(cards []domain.CardRecord, field domain.CardField) []string {
	vals := UniqueValues(cards, field)
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
