package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PricingConfig holds the default pricing settings
type PricingConfig struct {
	TargetDiscountPercent float64 `mapstructure:"target_discount_percent"`
	FallbackMarkupPercent float64 `mapstructure:"fallback_markup_percent"`
}

// MatchingConfig holds matching thresholds
type MatchingConfig struct {
	MinSimilarity           int     `mapstructure:"min_similarity"`
	MaxCompetitorPrice      float64 `mapstructure:"max_competitor_price"`
	MinCompetitorConfidence int     `mapstructure:"min_competitor_confidence"`
	DefaultUnit             string  `mapstructure:"default_unit"`
}

// WorkspaceConfig holds workspace store configuration
type WorkspaceConfig struct {
	Store    string        `mapstructure:"store"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CatalogConfig holds remote catalog service configuration.
// An empty SourceURL disables the remote source.
type CatalogConfig struct {
	SourceURL         string  `mapstructure:"source_url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file, or searches the default paths when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/kpcalc/")
	}

	// KPCALC_WORKSPACE_REDIS_URL -> workspace.redis_url
	v.SetEnvPrefix("KPCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional when searching; an explicit file must exist
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.request_timeout", "30s")

	v.SetDefault("log.level", "info")

	// Pricing defaults
	v.SetDefault("pricing.target_discount_percent", 0.1)
	v.SetDefault("pricing.fallback_markup_percent", 30.0)

	// Matching defaults
	v.SetDefault("matching.min_similarity", 90)
	v.SetDefault("matching.max_competitor_price", 100000.0)
	v.SetDefault("matching.min_competitor_confidence", 0)
	v.SetDefault("matching.default_unit", "кг")

	// Workspace defaults
	v.SetDefault("workspace.store", "memory")
	v.SetDefault("workspace.redis_url", "")
	v.SetDefault("workspace.ttl", "168h") // 7 days

	// Catalog source defaults
	v.SetDefault("catalog.source_url", "")
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.requests_per_second", 1.0)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Workspace.Store != "memory" && config.Workspace.Store != "redis" {
		return fmt.Errorf("workspace store must be 'memory' or 'redis', got: %s", config.Workspace.Store)
	}

	if config.Workspace.Store == "redis" && config.Workspace.RedisURL == "" {
		return fmt.Errorf("redis URL is required when workspace store is 'redis' (set KPCALC_WORKSPACE_REDIS_URL)")
	}

	if config.Pricing.TargetDiscountPercent < 0 || config.Pricing.TargetDiscountPercent >= 100 {
		return fmt.Errorf("pricing target discount must be in [0, 100), got: %v", config.Pricing.TargetDiscountPercent)
	}

	if config.Pricing.FallbackMarkupPercent < 0 {
		return fmt.Errorf("pricing fallback markup must be >= 0, got: %v", config.Pricing.FallbackMarkupPercent)
	}

	if config.Matching.MinSimilarity < 1 || config.Matching.MinSimilarity > 100 {
		return fmt.Errorf("matching min similarity must be in [1, 100], got: %d", config.Matching.MinSimilarity)
	}

	if config.Matching.MinCompetitorConfidence < 0 || config.Matching.MinCompetitorConfidence > 100 {
		return fmt.Errorf("matching min competitor confidence must be in [0, 100], got: %d", config.Matching.MinCompetitorConfidence)
	}

	if config.Catalog.SourceURL != "" && config.Catalog.APIKey == "" {
		return fmt.Errorf("catalog API key is required when a catalog source is set (set KPCALC_CATALOG_API_KEY)")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP must be >= 0, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
