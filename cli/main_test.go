package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"ytharvest/config"
	"ytharvest/storage"
)

func TestHarvestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 25
	cfg.DaysBack = 7
	cfg.MaxVideos = 100

	opts := harvestOptions(cfg)
	if opts.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25", opts.BatchSize)
	}
	if opts.DaysBack != 7 {
		t.Errorf("DaysBack = %d, want 7", opts.DaysBack)
	}
	if opts.MaxVideos != 100 {
		t.Errorf("MaxVideos = %d, want 100", opts.MaxVideos)
	}
}

func TestNewHarvesterUsesConfigQuota(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.QuotaLimit = 5000
	cfg.QuotaStopThreshold = 0.5

	h := newHarvester(nil, cfg, zerolog.Nop())
	if got := h.QuotaState().Limit; got != 5000 {
		t.Errorf("quota limit = %d, want 5000", got)
	}
}

func TestOpenStoresDryRun(t *testing.T) {
	cfg := config.DefaultConfig()
	store, err := openStores(context.Background(), cfg, zerolog.Nop(), true)
	if err != nil {
		t.Fatalf("openStores: %v", err)
	}
	defer store.Close(context.Background())
	if _, ok := store.(*storage.MemoryStore); !ok {
		t.Errorf("dry run should use the in-memory store, got %T", store)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"a longer channel name", 10, "a longe..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
