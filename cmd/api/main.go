package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/musohq/muso-ai-platform/cmd/mainconfig"
	"github.com/musohq/muso-ai-platform/internal/api/router"
	"github.com/musohq/muso-ai-platform/internal/archive"
	appconfig "github.com/musohq/muso-ai-platform/internal/config"
	"github.com/musohq/muso-ai-platform/internal/dedup"
	"github.com/musohq/muso-ai-platform/internal/enquiry"
	"github.com/musohq/muso-ai-platform/internal/extract"
	"github.com/musohq/muso-ai-platform/internal/http/handlers"
	observemetrics "github.com/musohq/muso-ai-platform/internal/observability/metrics"
	"github.com/musohq/muso-ai-platform/pkg/logging"
)

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting muso-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Database
	var repo enquiry.Repository
	var dbPinger interface{ Ping(context.Context) error }
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = enquiry.NewPostgresRepository(pool)
		dbPinger = pool
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		repo = enquiry.NewInMemoryRepository()
	}
	persister := enquiry.NewPersister(repo, cfg.PersistMaxAttempts, cfg.PersistRetryBase, logger)

	// Redis-backed dedup
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}
	guard := dedup.NewGuard(dedup.Config{
		Redis:  redisClient,
		Window: cfg.DedupWindow,
		TTL:    cfg.DedupTTL,
	})

	// AWS clients
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	aiExtractor, err := extract.NewAIExtractor(ctx, extract.ProviderOptions{
		Provider:       cfg.AIProvider,
		BedrockAPI:     bedrockruntime.NewFromConfig(awsCfg),
		BedrockModelID: cfg.BedrockModelID,
		GeminiAPIKey:   cfg.GeminiAPIKey,
		GeminiModelID:  cfg.GeminiModelID,
	})
	if err != nil {
		logger.Error("failed to configure AI extractor", "error", err)
		os.Exit(1)
	}
	if aiExtractor == nil {
		logger.Warn("no AI extraction provider configured, heuristics only")
	}

	archiveStore := archive.NewStore(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger)
	ingestMetrics := observemetrics.NewIngestMetrics(nil)

	inboundHandler := handlers.NewInboundEmailHandler(handlers.InboundEmailConfig{
		Persister: persister,
		Guard:     guard,
		AI:        aiExtractor,
		AITimeout: cfg.AIExtractTimeout,
		Archiver:  archiveStore,
		Metrics:   ingestMetrics,
		Logger:    logger,
	})

	var healthRedis interface{ Ping(context.Context) error }
	if redisClient != nil {
		healthRedis = redisPinger{client: redisClient}
	}

	r := router.New(&router.Config{
		Logger:             logger,
		InboundEmail:       inboundHandler,
		Enquiries:          handlers.NewEnquiriesHandler(repo, logger),
		Health:             handlers.NewHealthHandler(dbPinger, healthRedis),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
