package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "key-123")
	t.Setenv("YTHARVEST_QUOTA_LIMIT", "5000")
	t.Setenv("YTHARVEST_QUOTA_STOP_THRESHOLD", "0.9")
	t.Setenv("YTHARVEST_MAX_VIDEOS", "200")
	t.Setenv("YTHARVEST_DAYS_BACK", "30")
	t.Setenv("YTHARVEST_PAGE_DELAY", "500ms")
	t.Setenv("YTHARVEST_LOG_JSON", "true")

	cfg := DefaultConfig()
	cfg.loadFromEnv()

	if cfg.APIKey != "key-123" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.QuotaLimit != 5000 {
		t.Errorf("QuotaLimit = %d", cfg.QuotaLimit)
	}
	if cfg.QuotaStopThreshold != 0.9 {
		t.Errorf("QuotaStopThreshold = %v", cfg.QuotaStopThreshold)
	}
	if cfg.MaxVideos != 200 {
		t.Errorf("MaxVideos = %d", cfg.MaxVideos)
	}
	if cfg.DaysBack != 30 {
		t.Errorf("DaysBack = %d", cfg.DaysBack)
	}
	if cfg.PageDelay != 500*time.Millisecond {
		t.Errorf("PageDelay = %v", cfg.PageDelay)
	}
	if !cfg.LogJSON {
		t.Error("LogJSON should be true")
	}
}

func TestLoadFromEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("YTHARVEST_QUOTA_LIMIT", "not-a-number")
	t.Setenv("YTHARVEST_PAGE_DELAY", "soon")

	cfg := DefaultConfig()
	cfg.loadFromEnv()

	if cfg.QuotaLimit != 10000 {
		t.Errorf("malformed quota limit should keep default, got %d", cfg.QuotaLimit)
	}
	if cfg.PageDelay != 200*time.Millisecond {
		t.Errorf("malformed delay should keep default, got %v", cfg.PageDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero quota", func(c *Config) { c.QuotaLimit = 0 }},
		{"threshold above one", func(c *Config) { c.QuotaStopThreshold = 1.5 }},
		{"negative max videos", func(c *Config) { c.MaxVideos = -1 }},
		{"negative days back", func(c *Config) { c.DaysBack = -7 }},
		{"batch size too large", func(c *Config) { c.BatchSize = 51 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative page delay", func(c *Config) { c.PageDelay = -time.Second }},
		{"backoff inverted", func(c *Config) { c.MaxBackoff = time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
