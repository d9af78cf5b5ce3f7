package handler

import (
	"net/http"

	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the application services the router dispatches to.
type Services struct {
	Assistant *service.Assistant
	Catalog   *service.CatalogService
	Chat      *service.ChatService
}

// Options tunes the router's operational surface.
type Options struct {
	AllowedOrigins []string
	Probes         []HealthProbe
}

// NewRouter creates the HTTP router with all routes and middleware.
// The API is mounted under /v1 and aliased under /api for the web UI.
func NewRouter(svcs Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(JSONRecoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "Traceparent"},
		ExposedHeaders: []string{"X-Query-ID", "X-Message-ID", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(opts.Probes))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	api := func(r chi.Router) {
		// Assistant
		r.Post("/ai-query", aiQueryHandler(svcs.Assistant, logger))
		r.Post("/chat", chatHandler(svcs.Chat, logger))

		// Catalog
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", listCardsHandler(svcs.Catalog, logger))
			r.Get("/facets", cardFacetsHandler(svcs.Catalog))
			r.Get("/compare", compareCardsHandler(svcs.Catalog, logger))
			r.Get("/{id}", getCardHandler(svcs.Catalog, logger))
			r.Get("/{id}/analysis", cardAnalysisHandler(svcs.Catalog, logger))
		})

		r.Get("/metrics/assistant", assistantMetricsHandler(metrics))
	}
	r.Route("/v1", api)
	r.Route("/api", api)

	return r
}
