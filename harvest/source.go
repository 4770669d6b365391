// Package harvest implements the paginated, quota-aware channel
// harvesting engine: page walking, bulk statistics batching, cost
// budgeting, and per-channel orchestration.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxPageSize is the largest page the platform accepts for listing and
// bulk statistics calls.
const MaxPageSize = 50

// Sentinel errors for harvesting operations.
var (
	ErrChannelNotFound = errors.New("harvest: channel not found")
	ErrNoChannelInfo   = errors.New("harvest: channel info unavailable")
	ErrInvalidInput    = errors.New("harvest: invalid input")
)

// Page is one batch of listing records plus the continuation cursor for
// the next call. An empty NextToken means the last page was reached.
type Page struct {
	Items     []ListingRecord
	NextToken string
}

// ListingSource provides the two paginated listing endpoints. Search
// supports server-side date filtering; PlaylistItems returns the full
// upload collection regardless of date.
type ListingSource interface {
	// Search lists videos for a channel, newest first. publishedAfter is
	// applied server-side when non-zero. pageToken resumes pagination.
	Search(ctx context.Context, channelID string, publishedAfter time.Time, pageToken string, pageSize int64) (*Page, error)

	// PlaylistItems lists entries of an upload collection. Date filtering
	// is not supported server-side on this endpoint.
	PlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*Page, error)
}

// StatsSource fetches statistics for up to MaxPageSize video ids in one
// call. Ids the platform does not return are simply absent from the map.
type StatsSource interface {
	VideoStats(ctx context.Context, videoIDs []string) (map[string]StatRecord, error)
}

// ChannelResolver converts a channel name, handle, or URL into the
// stable platform channel ID. Returns ErrChannelNotFound when no match.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, nameOrHandle string) (string, error)
}

// ChannelInfoSource fetches channel-level aggregate info.
type ChannelInfoSource interface {
	ChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error)
}

// Source bundles every remote capability the engine consumes. The
// youtube package provides the production implementation; tests supply
// fakes.
type Source interface {
	ListingSource
	StatsSource
	ChannelResolver
	ChannelInfoSource
}

// SourceError wraps a remote call failure with the operation and subject
// for context. Use errors.As to extract it:
//
//	var srcErr *harvest.SourceError
//	if errors.As(err, &srcErr) {
//		fmt.Printf("%s failed for %s: %v\n", srcErr.Op, srcErr.Subject, srcErr.Err)
//	}
type SourceError struct {
	// Op is the remote operation ("search", "playlist", "stats", "resolve", "info").
	Op string
	// Subject is the channel, playlist, or id set the call was about.
	Subject string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the source error.
func (e *SourceError) Error() string {
	return fmt.Sprintf("harvest: %s %s: %v", e.Op, e.Subject, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *SourceError) Unwrap() error { return e.Err }
