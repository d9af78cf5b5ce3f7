// Package query implements the pure card-query engine: filter, search, sort
// and facet extraction over a slice of cards. Nothing here does I/O and no
// function mutates its input.
package query

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FilterCards returns the cards matching every constraint present in
// criteria, in input order. Values within one list field are OR-combined;
// fields are AND-combined. The result is always a fresh, non-nil slice.
func FilterCards(cards []domain.CardRecord, criteria domain.FilterCriteria) []domain.CardRecord {
	out := make([]domain.CardRecord, 0, len(cards))
	for _, c := range cards {
		if matches(c, criteria) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c domain.CardRecord, f domain.FilterCriteria) bool {
	if len(f.Banks) > 0 && !containsFold(f.Banks, c.Bank) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, string(c.Category)) {
		return false
	}
	if len(f.NetworkTypes) > 0 && !containsFold(f.NetworkTypes, string(c.NetworkType)) {
		return false
	}
	if f.LoungeAccess != nil && c.LoungeAccess != *f.LoungeAccess {
		return false
	}
	if f.FuelCashback != nil && c.FuelCashback != *f.FuelCashback {
		return false
	}
	// noAnnualFee=false means "don't care", not "must have a fee".
	if f.NoAnnualFee != nil && *f.NoAnnualFee && c.AnnualFee > 0 {
		return false
	}
	if f.MaxAnnualFee != nil && c.AnnualFee > *f.MaxAnnualFee {
		return false
	}
	return true
}

func containsFold(set []string, v string) bool {
	return slices.ContainsFunc(set, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), v)
	})
}

// SearchCards keeps the cards whose searchable text contains every
// whitespace-separated token of q. A blank query returns cards as is.
func SearchCards(cards []domain.CardRecord, q string) []domain.CardRecord {
	tokens := strings.Fields(strings.ToLower(q))
	if len(tokens) == 0 {
		return cards
	}

	out := make([]domain.CardRecord, 0, len(cards))
	for _, c := range cards {
		text := searchText(c)
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(text, tok) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func searchText(c domain.CardRecord) string {
	parts := make([]string, 0, 6+len(c.Benefits)+len(c.BestFor))
	parts = append(parts, c.Name, c.Bank, string(c.Category), c.RewardType, c.Eligibility)
	parts = append(parts, c.Benefits...)
	parts = append(parts, c.BestFor...)
	parts = append(parts, string(c.NetworkType))
	return strings.ToLower(strings.Join(parts, " "))
}

// MatchBestFor keeps cards where any fragment is a case-insensitive substring
// of any of the card's bestFor labels.
func MatchBestFor(cards []domain.CardRecord, fragments []string) []domain.CardRecord {
	frags := normalize(fragments)
	out := make([]domain.CardRecord, 0, len(cards))
	for _, c := range cards {
		if len(frags) == 0 || anyLabelContains(c.BestFor, frags) {
			out = append(out, c)
		}
	}
	return out
}

// MatchNames keeps cards whose name or bank contains any fragment,
// case-insensitively. Blank fragments are ignored.
func MatchNames(cards []domain.CardRecord, fragments []string) []domain.CardRecord {
	frags := normalize(fragments)
	out := make([]domain.CardRecord, 0, len(cards))
	for _, c := range cards {
		name, bank := strings.ToLower(c.Name), strings.ToLower(c.Bank)
		for _, f := range frags {
			if strings.Contains(name, f) || strings.Contains(bank, f) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func anyLabelContains(labels, frags []string) bool {
	for _, l := range labels {
		l = strings.ToLower(l)
		for _, f := range frags {
			if strings.Contains(l, f) {
				return true
			}
		}
	}
	return false
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// rateRe matches the first percentage-like numeral, e.g. "1.5%" or "5 %".
var rateRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// ParseRate extracts the first percentage embedded in s. Zero when none.
func ParseRate(s string) float64 {
	m := rateRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// SortCards returns a stably sorted copy of cards. Descending order negates
// the comparator, so ties keep their input order either way.
func SortCards(cards []domain.CardRecord, field domain.CardField, order domain.SortOrder) []domain.CardRecord {
	out := slices.Clone(cards)
	if out == nil {
		out = []domain.CardRecord{}
	}

	// A Collator keeps internal buffers and is not safe for concurrent use.
	col := collate.New(language.English, collate.IgnoreCase)
	cmp := comparator(field, col)

	slices.SortStableFunc(out, func(a, b domain.CardRecord) int {
		if order == domain.SortDesc {
			return -cmp(a, b)
		}
		return cmp(a, b)
	})
	return out
}

func comparator(field domain.CardField, col *collate.Collator) func(a, b domain.CardRecord) int {
	if field == domain.FieldCashbackRate {
		return func(a, b domain.CardRecord) int {
			return compareFloat(ParseRate(a.CashbackRate), ParseRate(b.CashbackRate))
		}
	}
	return func(a, b domain.CardRecord) int {
		switch av := FieldValue(a, field).(type) {
		case string:
			return col.CompareString(av, FieldValue(b, field).(string))
		case int:
			return compareInt(av, FieldValue(b, field).(int))
		case bool:
			return compareBool(av, FieldValue(b, field).(bool))
		}
		// list fields have no ordering
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// FieldValue returns the value of field on c as string, int, bool or
// []string. Unknown fields yield nil.
func FieldValue(c domain.CardRecord, field domain.CardField) any {
	switch field {
	case domain.FieldID:
		return c.ID
	case domain.FieldName:
		return c.Name
	case domain.FieldBank:
		return c.Bank
	case domain.FieldCategory:
		return string(c.Category)
	case domain.FieldAnnualFee:
		return c.AnnualFee
	case domain.FieldJoiningFee:
		return c.JoiningFee
	case domain.FieldRewardType:
		return c.RewardType
	case domain.FieldRewardRate:
		return c.RewardRate
	case domain.FieldLoungeAccess:
		return c.LoungeAccess
	case domain.FieldFuelCashback:
		return c.FuelCashback
	case domain.FieldEligibility:
		return c.Eligibility
	case domain.FieldBenefits:
		return c.Benefits
	case domain.FieldCashbackRate:
		return c.CashbackRate
	case domain.FieldBestFor:
		return c.BestFor
	case domain.FieldNetworkType:
		return string(c.NetworkType)
	case domain.FieldContactless:
		return c.Contactless
	case domain.FieldOnlineShoppingCashback:
		return c.OnlineShoppingCashback
	case domain.FieldDiningCashback:
		return c.DiningCashback
	}
	return nil
}
