package storage

import (
	"context"
	"sync"

	"ytharvest/harvest"
)

// MemoryStore keeps batches in memory. It backs tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[string]harvest.HarvestedVideo // by video id
	byName map[string][]string               // channel name -> video ids, insertion order
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos: make(map[string]harvest.HarvestedVideo),
		byName: make(map[string][]string),
	}
}

// StoreBatch records the batch, replacing any earlier record per video
// id.
func (s *MemoryStore) StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error {
	if channelName == "" {
		return &StorageError{Op: "store", Backend: "memory", Err: ErrInvalidInput}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &StorageError{Op: "store", Backend: "memory", Channel: channelName, Err: ErrClosed}
	}
	for _, v := range videos {
		if _, seen := s.videos[v.VideoID]; !seen {
			s.byName[channelName] = append(s.byName[channelName], v.VideoID)
		}
		s.videos[v.VideoID] = v
	}
	return nil
}

// ChannelVideos returns the stored videos for a channel in insertion
// order.
func (s *MemoryStore) ChannelVideos(channelName string) []harvest.HarvestedVideo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byName[channelName]
	out := make([]harvest.HarvestedVideo, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.videos[id])
	}
	return out
}

// Len reports the number of distinct videos stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// Close marks the store closed; later writes fail.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
