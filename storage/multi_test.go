package storage

import (
	"context"
	"errors"
	"testing"

	"ytharvest/harvest"
)

type failingStore struct {
	err    error
	stored int
}

func (f *failingStore) StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error {
	if f.err != nil {
		return f.err
	}
	f.stored += len(videos)
	return nil
}

func (f *failingStore) Close(ctx context.Context) error { return f.err }

func TestMultiStoreFanOut(t *testing.T) {
	a := NewMemoryStore()
	b := NewMemoryStore()
	m := NewMultiStore(a, b)
	defer m.Close(context.Background())

	if err := m.StoreBatch(context.Background(), "Chan", sampleVideos(3), NewBatchMeta(false, 0)); err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}
	if a.Len() != 3 || b.Len() != 3 {
		t.Errorf("fan-out incomplete: a=%d b=%d", a.Len(), b.Len())
	}
}

func TestMultiStoreContinuesPastFailure(t *testing.T) {
	boom := errors.New("backend down")
	bad := &failingStore{err: boom}
	good := &failingStore{}
	m := NewMultiStore(bad, good)

	err := m.StoreBatch(context.Background(), "Chan", sampleVideos(2), NewBatchMeta(false, 0))
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error containing backend failure, got %v", err)
	}
	if good.stored != 2 {
		t.Errorf("healthy backend skipped: stored %d", good.stored)
	}
}
