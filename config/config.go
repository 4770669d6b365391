// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration for harvesting operations.
type Config struct {
	// APIKey is the YouTube Data API v3 key
	APIKey string `json:"api_key"`
	// SearchAPIKey is the SearchAPI.io key for trending lookups (optional)
	SearchAPIKey string `json:"searchapi_key"`

	// QuotaLimit is the daily API quota allowance in units
	QuotaLimit int64 `json:"quota_limit"`
	// QuotaStopThreshold is the fraction of quota at which harvesting stops (0-1]
	QuotaStopThreshold float64 `json:"quota_stop_threshold"`

	// MaxVideos limits videos collected per channel (0 = all)
	MaxVideos int `json:"max_videos"`
	// DaysBack restricts harvesting to videos published within N days (0 = no floor)
	DaysBack int `json:"days_back"`
	// BatchSize is the number of videos per statistics lookup (max 50)
	BatchSize int `json:"batch_size"`
	// PageDelay is the pause between listing page fetches
	PageDelay time.Duration `json:"page_delay"`
	// RequestTimeout bounds each API request
	RequestTimeout time.Duration `json:"request_timeout"`

	// OutputDir is where JSON batch files are written
	OutputDir string `json:"output_dir"`
	// PostgresDSN enables the Postgres backend when set
	PostgresDSN string `json:"postgres_dsn"`
	// MongoURI enables the MongoDB backend when set
	MongoURI string `json:"mongo_uri"`
	// MongoDatabase is the MongoDB database name
	MongoDatabase string `json:"mongo_database"`

	// LogLevel is the minimum log level ("debug", "info", "warn", "error")
	LogLevel string `json:"log_level"`
	// LogJSON switches log output from console to JSON
	LogJSON bool `json:"log_json"`

	// MaxRetries is the maximum number of retries for failed API calls
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries
	MaxBackoff time.Duration `json:"max_backoff"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		QuotaLimit:         10000,
		QuotaStopThreshold: 0.8,
		MaxVideos:          0,
		DaysBack:           0,
		BatchSize:          50,
		PageDelay:          200 * time.Millisecond,
		RequestTimeout:     30 * time.Second,
		OutputDir:          "harvests",
		MongoDatabase:      "ytharvest",
		LogLevel:           "info",
		MaxRetries:         3,
		InitialBackoff:     1 * time.Second,
		MaxBackoff:         30 * time.Second,
	}
}

// Load loads configuration from a .env file if present, then the config
// file, then environment variables.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	// .env is optional and only fills unset environment variables.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytharvest.json in the
// current directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytharvest.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytharvest", "ytharvest.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SEARCHAPI_KEY"); v != "" {
		c.SearchAPIKey = v
	}
	if v := os.Getenv("YTHARVEST_QUOTA_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.QuotaLimit = n
		}
	}
	if v := os.Getenv("YTHARVEST_QUOTA_STOP_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.QuotaStopThreshold = f
		}
	}
	if v := os.Getenv("YTHARVEST_MAX_VIDEOS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxVideos = n
		}
	}
	if v := os.Getenv("YTHARVEST_DAYS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DaysBack = n
		}
	}
	if v := os.Getenv("YTHARVEST_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv("YTHARVEST_PAGE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PageDelay = d
		}
	}
	if v := os.Getenv("YTHARVEST_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("YTHARVEST_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.MongoURI = v
	}
	if v := os.Getenv("YTHARVEST_MONGO_DATABASE"); v != "" {
		c.MongoDatabase = v
	}
	if v := os.Getenv("YTHARVEST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("YTHARVEST_LOG_JSON"); v != "" {
		c.LogJSON = v == "true" || v == "1"
	}
	if v := os.Getenv("YTHARVEST_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("YTHARVEST_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("YTHARVEST_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.QuotaLimit <= 0 {
		return fmt.Errorf("quota_limit must be positive")
	}
	if c.QuotaStopThreshold <= 0 || c.QuotaStopThreshold > 1 {
		return fmt.Errorf("quota_stop_threshold must be in (0, 1]")
	}
	if c.MaxVideos < 0 {
		return fmt.Errorf("max_videos must be non-negative")
	}
	if c.DaysBack < 0 {
		return fmt.Errorf("days_back must be non-negative")
	}
	if c.BatchSize <= 0 || c.BatchSize > 50 {
		return fmt.Errorf("batch_size must be in [1, 50]")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page_delay must be non-negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	return nil
}
