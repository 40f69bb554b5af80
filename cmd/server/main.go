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

	"github.com/kpcalc/backend/config"
	httpDelivery "github.com/kpcalc/backend/internal/delivery/http"
	"github.com/kpcalc/backend/internal/domain"
	"github.com/kpcalc/backend/internal/infrastructure/catalogsource"
	"github.com/kpcalc/backend/internal/infrastructure/logging"
	"github.com/kpcalc/backend/internal/infrastructure/metrics"
	"github.com/kpcalc/backend/internal/infrastructure/workspace"
	"github.com/kpcalc/backend/internal/usecase"
)

const version = "1.0.0"

// workspaceStore is a workspace repository that holds resources
type workspaceStore interface {
	domain.WorkspaceRepository
	Close() error
}

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting kpcalc backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("workspace_store", cfg.Workspace.Store))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newWorkspaceStore(ctx, cfg.Workspace)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recorder := metrics.NewRecorder()

	var catalogs domain.CatalogSource
	if cfg.Catalog.SourceURL != "" {
		catalogs = catalogsource.NewClient(cfg.Catalog.APIKey, cfg.Catalog.SourceURL, cfg.Catalog.RequestsPerSecond, logger)
		logger.Info("remote catalog source enabled", zap.String("url", cfg.Catalog.SourceURL))
	}

	service := usecase.NewQuotationService(store, catalogs, usecase.QuotationServiceConfig{
		MinSimilarity:           cfg.Matching.MinSimilarity,
		MaxCompetitorPrice:      cfg.Matching.MaxCompetitorPrice,
		MinCompetitorConfidence: cfg.Matching.MinCompetitorConfidence,
		DefaultUnit:             cfg.Matching.DefaultUnit,
		Pricing: domain.PricingSettings{
			TargetDiscountPercent: cfg.Pricing.TargetDiscountPercent,
			FallbackMarkupPercent: cfg.Pricing.FallbackMarkupPercent,
		},
		WorkspaceTTL: cfg.Workspace.TTL,
		Logger:       logger,
		Observer:     recorder,
	})

	logger.Info("pricing defaults",
		zap.Float64("target_discount_percent", cfg.Pricing.TargetDiscountPercent),
		zap.Float64("fallback_markup_percent", cfg.Pricing.FallbackMarkupPercent),
		zap.Int("min_similarity", cfg.Matching.MinSimilarity))

	handler := httpDelivery.NewHandler(service, logger.Named("http"))
	router := httpDelivery.SetupRouter(cfg, handler, recorder, logger.Named("http"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newWorkspaceStore(ctx context.Context, cfg config.WorkspaceConfig) (workspaceStore, error) {
	switch cfg.Store {
	case "redis":
		store, err := workspace.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect workspace store: %w", err)
		}
		return store, nil
	default:
		return workspace.NewMemoryStore(), nil
	}
}
