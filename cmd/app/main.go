// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-generation-platform/internal/config"
	"ai-generation-platform/internal/domain/ports/adapter"
	provAdapters "ai-generation-platform/internal/infra/adapters/provider"
	pg "ai-generation-platform/internal/infra/db/postgres"
	"ai-generation-platform/internal/infra/logging"
	"ai-generation-platform/internal/infra/metrics"
	red "ai-generation-platform/internal/infra/redis"
	"ai-generation-platform/internal/infra/web"
	"ai-generation-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, dev session route)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	ledger := pg.NewLedgerCacheDecorator(pg.NewLedgerRepo(pool), redisClient)
	records := pg.NewGenerationRepo(pool)

	// ---- Provider adapters ----
	registry := provAdapters.NewRegistry()
	registerAdapter := func(name string, a adapter.ProviderAdapter, err error) {
		if err != nil {
			logger.Warn().Err(err).Str("vendor", name).Msg("vendor not configured, skipping")
			return
		}
		registry.Register(provAdapters.NewLimitedProvider(a, cfg.Generation.ConcurrentLimit))
		logger.Info().Str("vendor", name).Msg("vendor adapter registered")
	}
	{
		a, err := provAdapters.NewKlingAdapter(cfg.Vendors.Kling, logger)
		registerAdapter("kling", a, err)
	}
	{
		a, err := provAdapters.NewRunwayAdapter(cfg.Vendors.Runway, logger)
		registerAdapter("runway", a, err)
	}
	{
		a, err := provAdapters.NewSoraAdapter(cfg.Vendors.OpenAI, logger)
		registerAdapter("sora", a, err)
	}
	{
		a, err := provAdapters.NewOpenAIImageAdapter(cfg.Vendors.OpenAI, logger)
		registerAdapter("openai", a, err)
	}

	// ---- Use cases ----
	poller := usecase.NewPoller(cfg.Generation.PollInterval, logger)
	classifier := usecase.NewClassifier(cfg.Generation.ModerationKeywords)
	sanitizer := usecase.NewSanitizer(cfg.Generation.BrandTokens)
	refunds := usecase.NewRefundEngine(ledger, logger)
	creditsUC := usecase.NewCreditsUseCase(ledger, logger)
	genUC := usecase.NewGenerationUseCase(
		registry, poller, classifier, sanitizer, refunds, records,
		cfg.Generation.ImageAttempts, cfg.Generation.VideoAttempts, logger,
	)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.SessionSecret, cfg.Server.SecureCookie, cfg.Server.CookieDomain, cfg.Server.SessionTTL)
	srv := web.NewServer(genUC, creditsUC, auth, rateLimiter, cfg.Generation.RateLimitPerMin, cfg.Runtime.Dev, logger)

	metrics.MustRegister()
	router := chi.NewRouter()
	srv.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
