// Package storage persists harvested video batches. Several backends
// implement the same interface: flat JSON files, Postgres, MongoDB, an
// in-memory store for tests, and a fan-out combinator.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ytharvest/harvest"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("storage: store closed")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
)

// StorageError wraps backend errors with operation context.
// Use errors.As() to extract it:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("failed to %s on %s: %v\n", storErr.Op, storErr.Backend, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("store", "query", "init").
	Op string
	// Backend names the backend ("json", "postgres", "mongo", "memory").
	Backend string
	// Channel is the channel label, if applicable.
	Channel string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Backend, e.Op, e.Channel, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// BatchMeta describes one harvest run being stored.
type BatchMeta struct {
	// BatchID uniquely identifies the run.
	BatchID string `json:"batch_id"`
	// HarvestedAt is when the run completed.
	HarvestedAt time.Time `json:"harvested_at"`
	// Partial reports whether the run stopped before completion.
	Partial bool `json:"partial"`
	// QuotaUsed is the API quota the run consumed.
	QuotaUsed int64 `json:"quota_used"`
}

// NewBatchMeta stamps a fresh batch identity.
func NewBatchMeta(partial bool, quotaUsed int64) BatchMeta {
	return BatchMeta{
		BatchID:     uuid.NewString(),
		HarvestedAt: time.Now().UTC(),
		Partial:     partial,
		QuotaUsed:   quotaUsed,
	}
}

// VideoStore persists harvested video batches. Implementations must be
// safe for concurrent use. Storing the same video twice replaces the
// earlier record; the video id is the natural key.
type VideoStore interface {
	// StoreBatch saves one channel's harvested videos.
	StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error
	// Close releases any resources held by the store.
	Close(ctx context.Context) error
}
