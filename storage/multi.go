package storage

import (
	"context"
	"errors"

	"ytharvest/harvest"
)

// MultiStore fans each batch out to several backends. Every backend is
// attempted even when an earlier one fails; the errors come back joined.
type MultiStore struct {
	stores []VideoStore
}

// NewMultiStore combines the given backends.
func NewMultiStore(stores ...VideoStore) *MultiStore {
	return &MultiStore{stores: stores}
}

// StoreBatch writes the batch to every backend.
func (m *MultiStore) StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.StoreBatch(ctx, channelName, videos, meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every backend.
func (m *MultiStore) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
