package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// AI query: POST /ai-query
// ============================================================

func aiQueryHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ai-query")
		defer span.End()

		queryID := uuid.New().String()
		w.Header().Set("X-Query-ID", queryID)
		span.SetAttributes(attribute.String("query.id", queryID))

		var req struct {
			Query json.RawMessage `json:"query"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Query) == 0 || string(req.Query) == "null" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}
		var query string
		if err := json.Unmarshal(req.Query, &query); err != nil {
			writeError(w, http.StatusBadRequest, "query must be a string")
			return
		}

		resp, err := svc.ProcessQuery(ctx, query)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(
			attribute.Int("cards.found", len(resp.Cards)),
			attribute.Bool("comparison", resp.Comparison),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Chat: POST /chat (streamed text/plain)
// ============================================================

func chatHandler(svc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /chat")
		defer span.End()

		var req domain.ChatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := service.ValidateTranscript(req.Messages); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		messageID := uuid.New().String()
		span.SetAttributes(
			attribute.String("message.id", messageID),
			attribute.Int("chat.turns", len(req.Messages)),
		)

		flusher, _ := w.(http.Flusher)
		started := false
		err := svc.Stream(ctx, req.Messages, func(delta string) error {
			if !started {
				started = true
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("X-Content-Type-Options", "nosniff")
				w.Header().Set("X-Message-ID", messageID)
				w.WriteHeader(http.StatusOK)
			}
			if _, err := w.Write([]byte(delta)); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		})
		if err == nil && !started {
			w.Header().Set("X-Message-ID", messageID)
			w.WriteHeader(http.StatusOK)
			return
		}
		if err != nil {
			if started {
				// headers are gone; the truncated body is all the client gets
				logger.Warn("chat stream interrupted", zap.String("message_id", messageID), zap.Error(err))
				return
			}
			// the typed cause is logged; clients only see a plain 500
			status, _ := errorStatus(err)
			logServiceError(logger, status, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// ============================================================
// Assistant metrics: GET /metrics/assistant
// ============================================================

func assistantMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAssistantSnapshot())
	}
}
