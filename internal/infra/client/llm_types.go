package client

import (
	"math"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
)

// Wire types for the OpenAI-compatible chat/completions API.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"` // "json_schema"
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	StreamOptions  *streamOptions  `json:"stream_options,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Delta *struct {
			Content string `json:"content,omitempty"`
		} `json:"delta,omitempty"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *domain.TokenUsage `json:"usage,omitempty"`
	Error *apiError          `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// intentPayload mirrors intentSchema. Every field is present; absent values
// arrive as JSON null.
type intentPayload struct {
	Intent    string          `json:"intent"`
	Filters   *filtersPayload `json:"filters"`
	CardNames []string        `json:"cardNames"`
	BestFor   []string        `json:"bestFor"`
}

type filtersPayload struct {
	Banks        []string `json:"banks"`
	Categories   []string `json:"categories"`
	NetworkTypes []string `json:"networkTypes"`
	LoungeAccess *bool    `json:"loungeAccess"`
	FuelCashback *bool    `json:"fuelCashback"`
	NoAnnualFee  *bool    `json:"noAnnualFee"`
	MaxAnnualFee *float64 `json:"maxAnnualFee"`
}

func (p intentPayload) toDomain() *domain.QueryIntent {
	qi := &domain.QueryIntent{
		Intent:    domain.Intent(strings.ToLower(p.Intent)),
		CardNames: p.CardNames,
		BestFor:   p.BestFor,
	}
	if f := p.Filters; f != nil {
		fc := &domain.FilterCriteria{
			Banks:        f.Banks,
			Categories:   f.Categories,
			NetworkTypes: f.NetworkTypes,
			LoungeAccess: f.LoungeAccess,
			FuelCashback: f.FuelCashback,
			NoAnnualFee:  f.NoAnnualFee,
		}
		fc.MaxAnnualFee = feeCeiling(f.MaxAnnualFee)
		qi.Filters = fc
	}
	return qi
}

// feeCeiling floors the model's fee ceiling so it never rounds up. Values
// beyond any real fee mean no ceiling; negative values mean free cards only.
func feeCeiling(f *float64) *int {
	if f == nil || *f >= math.MaxInt32 {
		return nil
	}
	v := 0
	if *f > 0 {
		v = int(math.Floor(*f))
	}
	return &v
}
