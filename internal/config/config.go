// Package config provides configuration management for the search
// aggregation service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the search aggregation service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Search contains pipeline tuning settings.
	Search SearchConfig `mapstructure:"search"`
	// Providers contains provider API configurations.
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// SearchConfig holds search pipeline tuning settings.
type SearchConfig struct {
	// ProviderTimeout is the per-provider time budget for one search call.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	// TitleSimilarityThreshold is the fuzzy-title match threshold for
	// deduplication (0.0-1.0).
	TitleSimilarityThreshold float64 `mapstructure:"title_similarity_threshold"`
	// EnrichConcurrency bounds concurrent open-access lookups.
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

// ProvidersConfig holds configuration for all provider APIs. Field order
// here is the provider configuration order used for merge tie-breaks.
type ProvidersConfig struct {
	// OpenAlex contains OpenAlex API settings.
	OpenAlex ProviderConfig `mapstructure:"openalex"`
	// Crossref contains Crossref API settings.
	Crossref ProviderConfig `mapstructure:"crossref"`
	// ArXiv contains arXiv API settings.
	ArXiv ProviderConfig `mapstructure:"arxiv"`
	// Unpaywall contains Unpaywall open-access lookup settings.
	Unpaywall ProviderConfig `mapstructure:"unpaywall"`
}

// ProviderConfig holds configuration for a single provider API.
type ProviderConfig struct {
	// Enabled controls whether this provider is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g.
	// MINERVA_PROVIDERS_OPENALEX_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email identifies the caller to providers with polite-pool policies
	// (OpenAlex, Crossref, Unpaywall).
	Email string `mapstructure:"email"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum results per query.
	MaxResults int `mapstructure:"max_results"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("MINERVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/minerva-library")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Providers.OpenAlex.APIKey = os.Getenv("MINERVA_PROVIDERS_OPENALEX_API_KEY")
	cfg.Providers.Crossref.APIKey = os.Getenv("MINERVA_PROVIDERS_CROSSREF_API_KEY")
	cfg.Providers.ArXiv.APIKey = os.Getenv("MINERVA_PROVIDERS_ARXIV_API_KEY")
	cfg.Providers.Unpaywall.APIKey = os.Getenv("MINERVA_PROVIDERS_UNPAYWALL_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Search pipeline defaults
	v.SetDefault("search.provider_timeout", "30s")
	v.SetDefault("search.title_similarity_threshold", 0.92)
	v.SetDefault("search.enrich_concurrency", 10)

	// Provider defaults - OpenAlex
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("providers.openalex.enabled", true)
	v.SetDefault("providers.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("providers.openalex.email", "library@minerva.edu")
	v.SetDefault("providers.openalex.timeout", "30s")
	v.SetDefault("providers.openalex.rate_limit", 10.0)
	v.SetDefault("providers.openalex.max_results", 200)

	// Provider defaults - Crossref
	v.SetDefault("providers.crossref.enabled", true)
	v.SetDefault("providers.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("providers.crossref.email", "library@minerva.edu")
	v.SetDefault("providers.crossref.timeout", "30s")
	v.SetDefault("providers.crossref.rate_limit", 5.0)
	v.SetDefault("providers.crossref.max_results", 100)

	// Provider defaults - arXiv
	v.SetDefault("providers.arxiv.enabled", false)
	v.SetDefault("providers.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("providers.arxiv.timeout", "30s")
	v.SetDefault("providers.arxiv.rate_limit", 3.0) // arXiv recommends max 3 req/sec
	v.SetDefault("providers.arxiv.max_results", 100)

	// Provider defaults - Unpaywall (open-access enrichment, not a search source)
	v.SetDefault("providers.unpaywall.enabled", true)
	v.SetDefault("providers.unpaywall.base_url", "https://api.unpaywall.org/v2")
	v.SetDefault("providers.unpaywall.email", "library@minerva.edu")
	v.SetDefault("providers.unpaywall.timeout", "10s")
	v.SetDefault("providers.unpaywall.rate_limit", 10.0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate search pipeline settings
	if c.Search.ProviderTimeout <= 0 {
		return fmt.Errorf("search provider_timeout must be positive")
	}
	if c.Search.TitleSimilarityThreshold <= 0 || c.Search.TitleSimilarityThreshold > 1 {
		return fmt.Errorf("search title_similarity_threshold must be in (0, 1], got %v", c.Search.TitleSimilarityThreshold)
	}
	if c.Search.EnrichConcurrency <= 0 {
		return fmt.Errorf("search enrich_concurrency must be positive")
	}

	// At least one search provider must be enabled.
	if !c.Providers.OpenAlex.Enabled && !c.Providers.Crossref.Enabled && !c.Providers.ArXiv.Enabled {
		return fmt.Errorf("at least one search provider must be enabled")
	}

	// Unpaywall requires an email for its polite-pool policy.
	if c.Providers.Unpaywall.Enabled && c.Providers.Unpaywall.Email == "" {
		return fmt.Errorf("providers.unpaywall.email is required when unpaywall is enabled")
	}

	return nil
}
