package ytharvest

import (
	"ytharvest/harvest"
	"ytharvest/storage"
)

// Error types exported for library users.
//
// Sentinel errors live in their packages:
//
// From harvest:
//   - harvest.ErrChannelNotFound: the channel could not be resolved
//   - harvest.ErrNoChannelInfo: channel metadata was unavailable
//   - harvest.ErrInvalidInput: the channel reference was empty or malformed
//
// From youtube:
//   - youtube.ErrQuotaExceeded: the platform rejected a call, daily quota spent
//   - youtube.ErrAPIKeyMissing: no API key was supplied
//
// From storage:
//   - storage.ErrNotFound: record not found
//   - storage.ErrInvalidInput: invalid input provided
//   - storage.ErrClosed: the store was closed
//   - storage.ErrStorageCorrupt: data corruption detected

// Type aliases for convenient error handling.
type (
	// SourceError wraps remote call failures with operation context.
	SourceError = harvest.SourceError
	// StorageError wraps storage failures with backend context.
	StorageError = storage.StorageError
)
