package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ector/backend/config"
	httpDelivery "github.com/ector/backend/internal/delivery/http"
	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/infrastructure/annotator"
	"github.com/ector/backend/internal/infrastructure/cache"
	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/logger"
	"github.com/ector/backend/internal/usecase"
)

// readinessAnnotator is an annotator that can report whether it is usable
type readinessAnnotator interface {
	domain.Annotator
	Ready(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()
	appLog := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting ector backend",
		zap.String("version", httpDelivery.Version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("annotator", cfg.Annotator.Type),
		zap.String("cache", cfg.Cache.Type),
	)

	lexicons, err := lexicon.Load(cfg.Lexicon.Dir)
	if err != nil {
		zapLog.Fatal("failed to load lexicons", zap.Error(err), zap.String("dir", cfg.Lexicon.Dir))
	}

	ann := buildAnnotator(cfg, lexicons, appLog)
	readyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ann.Ready(readyCtx)
	cancel()
	if err != nil {
		zapLog.Fatal("annotator not ready", zap.Error(err))
	}

	cacheRepo, closeCache := buildCache(cfg, zapLog)
	defer closeCache()

	// Initialize usecase layer
	extractionService := usecase.NewExtractionService(
		ann,
		lexicons,
		cacheRepo,
		appLog,
		usecase.ExtractionServiceConfig{
			DefaultLanguage:    cfg.Extraction.DefaultLanguage,
			BudgetPolicy:       domain.BudgetPolicy(cfg.Extraction.BudgetPolicy),
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: cfg.Extraction.Debug,
		},
	)

	var validator *httpDelivery.ResultValidator
	if cfg.Server.ValidateResponses {
		validator, err = httpDelivery.NewResultValidator()
		if err != nil {
			zapLog.Fatal("failed to compile response schema", zap.Error(err))
		}
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(extractionService, httpDelivery.HandlerConfig{
		Languages:      lexicons.Languages(),
		Validator:      validator,
		Logger:         appLog,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	router := httpDelivery.SetupRouter(cfg, handler, zapLog)

	if err := runServer(cfg, zapLog, router); err != nil {
		zapLog.Fatal("server error", zap.Error(err))
	}
}

func buildAnnotator(cfg *config.Config, lexicons *lexicon.Store, log logger.Logger) readinessAnnotator {
	if cfg.Annotator.Type != "http" {
		return annotator.NewRuleAnnotator(lexicons)
	}

	client := annotator.NewHTTPAnnotator(annotator.HTTPAnnotatorConfig{
		BaseURL:           cfg.Annotator.BaseURL,
		Timeout:           cfg.Annotator.Timeout,
		MaxRetries:        cfg.Annotator.MaxRetries,
		RequestsPerSecond: cfg.Annotator.RequestsPerSecond,
		Burst:             cfg.Annotator.Burst,
	}, log)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
	}
	return client
}

// buildCache returns the configured cache and a function releasing it.
// A nil repository disables caching.
func buildCache(cfg *config.Config, log *zap.Logger) (domain.CacheRepository, func()) {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatal("invalid redis URL", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			// Extraction still works without the cache.
			log.Warn("redis not reachable at startup", zap.Error(err))
		}
		return redisCache, func() { _ = redisCache.Close() }
	case "memory":
		memoryCache := cache.NewMemoryCache()
		return memoryCache, func() { _ = memoryCache.Close() }
	default:
		return nil, func() {}
	}
}

// runServer starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM
func runServer(cfg *config.Config, log *zap.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
