package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Annotator  AnnotatorConfig  `mapstructure:"annotator"`
	Lexicon    LexiconConfig    `mapstructure:"lexicon"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	Environment       string        `mapstructure:"environment"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	ValidateResponses bool          `mapstructure:"validate_responses"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// AnnotatorConfig selects and tunes the sentence annotator
type AnnotatorConfig struct {
	Type              string        `mapstructure:"type"` // "rules" or "http"
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 means unlimited
	Burst             int           `mapstructure:"burst"`
}

// LexiconConfig points at optional lexicon overrides
type LexiconConfig struct {
	Dir string `mapstructure:"dir"` // empty uses the embedded lexicons
}

// ExtractionConfig holds extraction behaviour switches
type ExtractionConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
	BudgetPolicy    string `mapstructure:"budget_policy"`
	Debug           bool   `mapstructure:"debug"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ector/")

	// ECTOR_SERVER_PORT -> server.port
	v.SetEnvPrefix("ECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile reads ./.env when present. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.validate_responses", true)
	v.SetDefault("server.request_timeout", "15s")

	// Annotator defaults
	v.SetDefault("annotator.type", "rules")
	v.SetDefault("annotator.base_url", "http://localhost:5005")
	v.SetDefault("annotator.timeout", "10s")
	v.SetDefault("annotator.max_retries", 0)
	v.SetDefault("annotator.requests_per_second", 0)
	v.SetDefault("annotator.burst", 10)

	v.SetDefault("lexicon.dir", "")

	// Extraction defaults
	v.SetDefault("extraction.default_language", "en")
	v.SetDefault("extraction.budget_policy", "last_wins")
	v.SetDefault("extraction.debug", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set ECTOR_SERVER_PORT)")
	}

	switch config.Annotator.Type {
	case "rules":
	case "http":
		if config.Annotator.BaseURL == "" {
			return fmt.Errorf("annotator base URL is required when annotator type is 'http'")
		}
	default:
		return fmt.Errorf("annotator type must be 'rules' or 'http', got: %s", config.Annotator.Type)
	}

	if config.Annotator.MaxRetries < 0 {
		return fmt.Errorf("annotator max_retries must not be negative, got: %d", config.Annotator.MaxRetries)
	}

	switch strings.ToLower(config.Extraction.DefaultLanguage) {
	case "en", "fr":
	default:
		return fmt.Errorf("default language must be 'en' or 'fr', got: %s", config.Extraction.DefaultLanguage)
	}

	if config.Extraction.BudgetPolicy != "last_wins" && config.Extraction.BudgetPolicy != "first_wins" {
		return fmt.Errorf("budget policy must be 'last_wins' or 'first_wins', got: %s", config.Extraction.BudgetPolicy)
	}

	switch config.Cache.Type {
	case "none", "memory":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	return nil
}
