package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kpcalc/backend/config"
	"github.com/kpcalc/backend/internal/domain"
	"github.com/kpcalc/backend/internal/infrastructure/catalogsource"
	"github.com/kpcalc/backend/internal/infrastructure/logging"
	"github.com/kpcalc/backend/internal/usecase"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "kpcalc",
		Short:         "Price commercial proposals against competitor bids",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml if present)")

	cmd.AddCommand(newCalculateCmd(opts))
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newSimilarityCmd())
	return cmd
}

// loadConfig reads configuration the same way the server does
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(); err != nil {
		return nil, err
	}
	return config.LoadFile(o.configPath)
}

// newService builds a quotation service without a workspace store
func newService(cfg *config.Config, logger *zap.Logger) *usecase.QuotationService {
	var catalogs domain.CatalogSource
	if cfg.Catalog.SourceURL != "" {
		catalogs = catalogsource.NewClient(cfg.Catalog.APIKey, cfg.Catalog.SourceURL, cfg.Catalog.RequestsPerSecond, logger)
	}

	return usecase.NewQuotationService(nil, catalogs, usecase.QuotationServiceConfig{
		MinSimilarity:           cfg.Matching.MinSimilarity,
		MaxCompetitorPrice:      cfg.Matching.MaxCompetitorPrice,
		MinCompetitorConfidence: cfg.Matching.MinCompetitorConfidence,
		DefaultUnit:             cfg.Matching.DefaultUnit,
		Pricing: domain.PricingSettings{
			TargetDiscountPercent: cfg.Pricing.TargetDiscountPercent,
			FallbackMarkupPercent: cfg.Pricing.FallbackMarkupPercent,
		},
		Logger: logger,
	})
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Server.Environment, cfg.Log.Level)
}
