package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreReplacesByVideoID(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close(context.Background())

	first := sampleVideos(2)
	if err := s.StoreBatch(context.Background(), "Chan", first, NewBatchMeta(false, 0)); err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}

	// Same ids again with fresher counts.
	second := sampleVideos(2)
	second[0].ViewCount = 9999
	if err := s.StoreBatch(context.Background(), "Chan", second, NewBatchMeta(false, 0)); err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	got := s.ChannelVideos("Chan")
	if len(got) != 2 {
		t.Fatalf("ChannelVideos = %d entries", len(got))
	}
	if got[0].ViewCount != 9999 {
		t.Errorf("view count not refreshed: %d", got[0].ViewCount)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	s.Close(context.Background())
	err := s.StoreBatch(context.Background(), "Chan", sampleVideos(1), NewBatchMeta(false, 0))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
