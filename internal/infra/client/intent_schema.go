package client

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func nullable(t string) []string { return []string{t, "null"} }

func nullableStrings(desc string) map[string]any {
	return map[string]any{
		"type":        nullable("array"),
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

func nullableScalar(t, desc string) map[string]any {
	return map[string]any{"type": nullable(t), "description": desc}
}

// intentSchema is the strict structured-output schema for query
// classification. Strict mode requires every property to be listed as
// required, so optional values are nullable instead.
var intentSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"intent", "filters", "cardNames", "bestFor"},
	"properties": map[string]any{
		"intent": map[string]any{
			"type":        "string",
			"enum":        []string{"search", "compare", "recommend"},
			"description": "The user intent: search for cards, compare specific cards, or get recommendations",
		},
		"filters": map[string]any{
			"type":                 nullable("object"),
			"additionalProperties": false,
			"required": []string{
				"banks", "categories", "networkTypes", "loungeAccess", "fuelCashback", "noAnnualFee", "maxAnnualFee",
			},
			"properties": map[string]any{
				"banks":        nullableStrings("Banks to filter by (HDFC Bank, ICICI Bank, Axis Bank, State Bank of India)"),
				"categories":   nullableStrings("Card categories (Premium, Mid-tier, Entry-level, Cashback)"),
				"networkTypes": nullableStrings("Network types (Visa, Mastercard, RuPay)"),
				"loungeAccess": nullableScalar("boolean", "Whether lounge access is required"),
				"fuelCashback": nullableScalar("boolean", "Whether fuel cashback is required"),
				"noAnnualFee":  nullableScalar("boolean", "Whether no annual fee is required"),
				"maxAnnualFee": nullableScalar("number", "Maximum annual fee acceptable"),
			},
		},
		"cardNames": nullableStrings("Specific card names mentioned for comparison"),
		"bestFor":   nullableStrings("Categories the user is interested in (Travel, Dining, Shopping, etc.)"),
	},
}

var compiledIntentSchema = mustCompile(intentSchema)

func mustCompile(schema map[string]any) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic("invalid intent schema: " + err.Error())
	}
	return s
}

// validateIntent checks raw model output against intentSchema.
func validateIntent(raw string) error {
	result, err := compiledIntentSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("intent validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
