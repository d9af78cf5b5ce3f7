package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cards: GET /cards, /cards/facets, /cards/compare, /cards/{id}
// ============================================================

func listCardsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /cards")
		defer span.End()

		params, err := parseListParams(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resp := svc.List(ctx, params)
		span.SetAttributes(attribute.Int("cards.total", resp.Total))
		writeJSON(w, http.StatusOK, resp)
	}
}

func cardFacetsHandler(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /cards/facets")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.Facets(ctx))
	}
}

func compareCardsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /cards/compare")
		defer span.End()

		ids := parseList(r.URL.Query()["ids"])
		span.SetAttributes(attribute.String("card.ids", strings.Join(ids, ",")))

		cards, err := svc.Compare(ctx, ids)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func getCardHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /cards/{id}")
		defer span.End()

		card, err := svc.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func cardAnalysisHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /cards/{id}/analysis")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("card.id", id))

		analysis, err := svc.Analyze(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("analysis.source", analysis.Source))
		writeJSON(w, http.StatusOK, analysis)
	}
}
