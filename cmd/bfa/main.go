package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/catalog"
	"github.com/boddenberg/card-compare-bfa-go/internal/config"
	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/handler"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/cache"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/client"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"
	"github.com/boddenberg/card-compare-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("llm_model", cfg.LLMModel),
		zap.String("llm_chat_model", cfg.LLMChatModel),
		zap.Duration("llm_timeout", cfg.LLMTimeout),
		zap.Int("llm_max_retries", cfg.LLMMaxRetries),
		zap.Duration("chat_timeout", cfg.ChatTimeout),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("cache_max_entries", cfg.CacheMaxEntries),
		zap.Bool("llm_api_key_set", cfg.LLMAPIKey != ""),
	)
	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY not set, assistant answers will use local fallbacks")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "card-compare-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Card dataset ---
	repo, err := catalog.Load(cfg.CardsFile)
	if err != nil {
		logger.Fatal("failed to load card dataset", zap.String("path", cfg.CardsFile), zap.Error(err))
	}
	logger.Info("card dataset loaded", zap.Int("cards", repo.Len()))

	probes := []handler.HealthProbe{handler.CatalogProbe(repo)}

	// --- Cache ---
	var (
		intentCache   port.Cache[domain.QueryIntent]
		analysisCache port.Cache[domain.CardAnalysis]
	)
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rdb := cache.NewRedisClient(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		intentCache = cache.NewRedis[domain.QueryIntent](rdb, "cardcompare", cfg.CacheTTL, logger)
		analysisRedis := cache.NewRedis[domain.CardAnalysis](rdb, "cardcompare", cfg.CacheTTL, logger)
		analysisCache = analysisRedis
		probes = append(probes, handler.PingProbe("redis", analysisRedis.Ping))
		logger.Info("using Redis cache", zap.String("addr", cfg.RedisAddr))
	default:
		intentMemo := cache.NewMemory[domain.QueryIntent](cfg.CacheTTL, cfg.CacheMaxEntries)
		analysisMemo := cache.NewMemory[domain.CardAnalysis](cfg.CacheTTL, cfg.CacheMaxEntries)
		defer intentMemo.Close()
		defer analysisMemo.Close()
		intentCache, analysisCache = intentMemo, analysisMemo
	}

	// --- Resilience ---
	guard := resilience.NewGuard("llm", resilience.Config{
		MaxRetries:     cfg.LLMMaxRetries,
		InitialBackoff: cfg.LLMInitialBackoff,
		MaxConcurrency: cfg.LLMMaxConcurrency,
	}, resilience.NewCircuitBreaker("llm"))
	probes = append(probes, handler.BreakerProbe("llm", guard))

	// --- Clients ---
	// The client timeout is a backstop; per-call deadlines are tighter.
	httpClient := &http.Client{Timeout: cfg.ChatTimeout + 5*time.Second}
	llm := client.NewLLMClient(httpClient, client.LLMConfig{
		BaseURL:         cfg.LLMAPIURL,
		APIKey:          cfg.LLMAPIKey,
		Model:           cfg.LLMModel,
		ChatModel:       cfg.LLMChatModel,
		Timeout:         cfg.LLMTimeout,
		ChatTemperature: 0.7,
		ChatMaxTokens:   500,
	}, guard, metrics, logger)

	// --- Services ---
	interpreter := service.NewInterpreter(llm, repo, intentCache, metrics, logger)
	composer := service.NewComposer(llm, analysisCache, metrics, logger)

	svcs := handler.Services{
		Assistant: service.NewAssistant(interpreter, composer, repo, metrics, logger),
		Catalog:   service.NewCatalogService(repo, composer, logger),
		Chat: service.NewChatService(llm, repo, service.ChatConfig{
			ExcerptSize: cfg.ChatExcerptSize,
			Timeout:     cfg.ChatTimeout,
		}, metrics, logger),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, handler.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Probes:         probes,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
