package harvest

import (
	"context"

	"github.com/rs/zerolog"
)

// StatsBatcher fetches statistics for arbitrary id sets by splitting
// them into chunks the platform accepts and issuing one bulk call per
// chunk. Every chunk charges CostStatsChunk against the quota tracker.
type StatsBatcher struct {
	source    StatsSource
	quota     *QuotaTracker
	chunkSize int
	log       zerolog.Logger
}

// NewStatsBatcher creates a batcher with the platform's maximum chunk
// size. quota may not be nil.
func NewStatsBatcher(source StatsSource, quota *QuotaTracker, log zerolog.Logger) *StatsBatcher {
	return &StatsBatcher{
		source:    source,
		quota:     quota,
		chunkSize: MaxPageSize,
		log:       log,
	}
}

// Fetch returns statistics keyed by video id for as many of the input
// ids as possible. Ids the platform omits (deleted or private videos)
// are simply absent from the result; callers apply DefaultStats.
//
// A transport or platform error aborts the current chunk and returns
// the mapping built from prior chunks alongside the error. There is no
// automatic retry here; retry policy belongs to the source.
func (b *StatsBatcher) Fetch(ctx context.Context, videoIDs []string) (map[string]StatRecord, error) {
	stats := make(map[string]StatRecord, len(videoIDs))

	for start := 0; start < len(videoIDs); start += b.chunkSize {
		if b.quota.ShouldStop() {
			b.log.Warn().
				Int("fetched", len(stats)).
				Int("requested", len(videoIDs)).
				Msg("quota threshold reached, skipping remaining statistics chunks")
			return stats, nil
		}

		end := start + b.chunkSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		chunk := videoIDs[start:end]

		chunkStats, err := b.source.VideoStats(ctx, chunk)
		if err != nil {
			return stats, &SourceError{Op: "stats", Subject: chunk[0], Err: err}
		}
		b.quota.Charge(CostStatsChunk)

		for id, rec := range chunkStats {
			stats[id] = rec
		}
	}

	return stats, nil
}
