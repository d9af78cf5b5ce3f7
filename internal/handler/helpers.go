package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorStatus maps a domain error to its HTTP status and client message.
func errorStatus(err error) (int, string) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.As(err, &external):
		return http.StatusBadGateway, "upstream service error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, msg := errorStatus(err)
	logServiceError(logger, status, err)
	writeError(w, status, msg)
}

func logServiceError(logger *zap.Logger, status int, err error) {
	switch {
	case status >= 500:
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	default:
		logger.Debug("request rejected", zap.Int("status", status), zap.String("error", err.Error()))
	}
}

// ============================================================
// Query-string parsing for GET /cards
// ============================================================

// parseListParams reads the catalog browser's query string. Bad values are
// reported as validation errors.
func parseListParams(r *http.Request) (service.ListParams, error) {
	q := r.URL.Query()
	p := service.ListParams{
		Query: strings.TrimSpace(q.Get("q")),
		Criteria: domain.FilterCriteria{
			Banks:        parseList(q["bank"]),
			Categories:   parseList(q["category"]),
			NetworkTypes: parseList(q["network"]),
		},
	}

	var err error
	if p.Criteria.LoungeAccess, err = parseBool(q.Get("loungeAccess"), "loungeAccess"); err != nil {
		return p, err
	}
	if p.Criteria.FuelCashback, err = parseBool(q.Get("fuelCashback"), "fuelCashback"); err != nil {
		return p, err
	}
	if p.Criteria.NoAnnualFee, err = parseBool(q.Get("noAnnualFee"), "noAnnualFee"); err != nil {
		return p, err
	}

	if v := q.Get("maxAnnualFee"); v != "" {
		fee, err := strconv.Atoi(v)
		if err != nil || fee < 0 {
			return p, &domain.ErrValidation{Field: "maxAnnualFee", Message: "must be a non-negative integer"}
		}
		p.Criteria.MaxAnnualFee = &fee
	}

	if v := q.Get("sort"); v != "" {
		field, ok := domain.ParseCardField(v)
		if !ok {
			return p, &domain.ErrValidation{Field: "sort", Message: "unknown field " + v}
		}
		p.Sort = field
	}
	order, ok := domain.ParseSortOrder(strings.ToLower(q.Get("order")))
	if !ok {
		return p, &domain.ErrValidation{Field: "order", Message: "must be asc or desc"}
	}
	p.Order = order

	return p, nil
}

// parseList accepts both repeated parameters and comma-separated values.
func parseList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseBool(v, field string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &domain.ErrValidation{Field: field, Message: "must be true or false"}
	}
	return &b, nil
}
