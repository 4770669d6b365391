package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ytharvest/harvest"
)

func sampleVideos(n int) []harvest.HarvestedVideo {
	videos := make([]harvest.HarvestedVideo, n)
	for i := range videos {
		videos[i] = harvest.HarvestedVideo{
			VideoID:     string(rune('a'+i)) + "1234567890",
			Title:       "video",
			ChannelID:   "UCuAXFkgsw1L7xaCfnd5JJOw",
			PublishedAt: time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC),
			ViewCount:   int64(100 * (i + 1)),
			Duration:    "PT4M13S",
		}
	}
	return videos
}

func TestJSONStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	defer s.Close(context.Background())

	videos := sampleVideos(3)
	meta := NewBatchMeta(false, 104)
	if err := s.StoreBatch(context.Background(), "Test Channel", videos, meta); err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}

	batches := s.Batches("Test Channel")
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch file, got %d", len(batches))
	}

	doc, err := s.LoadBatch(batches[0])
	if err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if doc.ChannelName != "Test Channel" {
		t.Errorf("channel name = %q", doc.ChannelName)
	}
	if doc.VideoCount != 3 || len(doc.Videos) != 3 {
		t.Errorf("video count = %d, len = %d", doc.VideoCount, len(doc.Videos))
	}
	if doc.Meta.BatchID != meta.BatchID {
		t.Errorf("batch id = %q, want %q", doc.Meta.BatchID, meta.BatchID)
	}
	if doc.Videos[0].VideoID != videos[0].VideoID {
		t.Errorf("first video = %q", doc.Videos[0].VideoID)
	}
}

func TestJSONStoreIndexPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	if err := s.StoreBatch(context.Background(), "Chan", sampleVideos(1), NewBatchMeta(false, 1)); err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}
	if err := s.StoreBatch(context.Background(), "Chan", sampleVideos(2), NewBatchMeta(false, 2)); err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}
	s.Close(context.Background())

	// Reopen and check the index survived.
	s2, err := NewJSONStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close(context.Background())
	if got := len(s2.Batches("Chan")); got != 2 {
		t.Errorf("expected 2 batches after reopen, got %d", got)
	}
}

func TestJSONStoreRejectsEmptyChannel(t *testing.T) {
	s, err := NewJSONStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	defer s.Close(context.Background())

	err = s.StoreBatch(context.Background(), "", sampleVideos(1), NewBatchMeta(false, 0))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJSONStoreClosedWriteFails(t *testing.T) {
	s, err := NewJSONStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	s.Close(context.Background())

	err = s.StoreBatch(context.Background(), "Chan", sampleVideos(1), NewBatchMeta(false, 0))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestJSONStoreCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, indexFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(dir, zerolog.Nop()); !errors.Is(err, ErrStorageCorrupt) {
		t.Errorf("expected ErrStorageCorrupt, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rick Astley", "Rick_Astley"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  Channel  ", "Channel"},
		{"///", "channel"},
		{"", "channel"},
		{"safe-name.v2", "safe-name.v2"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
