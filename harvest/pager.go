package harvest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WalkMode selects which listing endpoint the walker paginates.
type WalkMode int

const (
	// ModePlaylist pages through a channel's upload collection. Richer
	// coverage than search, but no server-side date filtering.
	ModePlaylist WalkMode = iota
	// ModeSearch pages through a search-by-channel listing with
	// server-side date filtering. Used when the upload collection id
	// cannot be resolved.
	ModeSearch
)

// String returns the mode name.
func (m WalkMode) String() string {
	switch m {
	case ModePlaylist:
		return "playlist"
	case ModeSearch:
		return "search"
	default:
		return "unknown"
	}
}

// StopReason records why pagination ended.
type StopReason int

const (
	// StopNone means pagination has not finished yet.
	StopNone StopReason = iota
	// StopExhausted means the source ran out of items or cursors.
	StopExhausted
	// StopDateFloor means an entire page fell below the publish-date
	// floor on a date-ordered collection.
	StopDateFloor
	// StopMaxItems means the item-count ceiling was reached.
	StopMaxItems
	// StopBudget means the quota tracker hit its stop threshold.
	StopBudget
	// StopError means a transport or platform failure ended the walk.
	StopError
)

// String returns the stop reason name.
func (s StopReason) String() string {
	switch s {
	case StopNone:
		return "none"
	case StopExhausted:
		return "exhausted"
	case StopDateFloor:
		return "date_floor"
	case StopMaxItems:
		return "max_items"
	case StopBudget:
		return "budget"
	case StopError:
		return "error"
	default:
		return "unknown"
	}
}

// Partial reports whether this stop left the source unexhausted in a way
// the caller did not ask for. Reaching the ceiling or the date floor is
// a clean stop; budget and error stops yield partial results.
func (s StopReason) Partial() bool {
	return s == StopBudget || s == StopError
}

// WalkConfig configures a PageWalker.
type WalkConfig struct {
	// Mode selects the listing endpoint.
	Mode WalkMode
	// ContainerID is the channel id (ModeSearch) or upload collection id
	// (ModePlaylist).
	ContainerID string
	// PageSize is the requested page size, capped at MaxPageSize.
	// 0 means MaxPageSize.
	PageSize int64
	// PublishedAfter is the inclusive publish-date floor. Zero means no
	// floor. Applied server-side in ModeSearch, client-side per page in
	// ModePlaylist.
	PublishedAfter time.Time
	// MaxItems caps the total items yielded. 0 means unlimited. The
	// final page is truncated to the exact remaining count.
	MaxItems int
	// ResumeToken restarts pagination from a prior walk's cursor.
	ResumeToken string
	// Unordered marks a playlist collection whose upload history is not
	// date-ordered descending (bulk-imported back catalogs). When set,
	// the walker scans every page rather than stopping at the first page
	// entirely older than the floor. Completeness over cost.
	Unordered bool
	// PageDelay is the fixed pause between successive page calls, pure
	// throughput shaping against platform rate limiting. 0 disables it.
	PageDelay time.Duration
}

// PageWalker iterates a paginated listing source, yielding one batch of
// records per Next call. It consults the quota tracker before every
// remote call and stops, in priority order, on: end of history, missing
// cursor, the item ceiling, or the cost budget.
//
// A walker is single-use and not safe for concurrent use.
type PageWalker struct {
	source ListingSource
	quota  *QuotaTracker
	cfg    WalkConfig
	log    zerolog.Logger

	// Sleep implements the between-page pacing delay. Tests replace it
	// to skip real waiting.
	Sleep func(context.Context, time.Duration)

	token   string
	count   int
	pages   int
	started bool
	done    bool
	stop    StopReason
}

// NewPageWalker creates a walker over source. quota may not be nil.
func NewPageWalker(source ListingSource, quota *QuotaTracker, cfg WalkConfig, log zerolog.Logger) *PageWalker {
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	return &PageWalker{
		source: source,
		quota:  quota,
		cfg:    cfg,
		log:    log,
		Sleep:  sleepContext,
		token:  cfg.ResumeToken,
	}
}

// Next returns the next batch of listing records. It returns (nil, nil)
// once pagination has finished; consult Stop for the reason. A non-nil
// error always ends the walk (Stop reports StopError) but everything
// yielded by prior calls remains valid.
func (w *PageWalker) Next(ctx context.Context) ([]ListingRecord, error) {
	if w.done {
		return nil, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			w.finish(StopError)
			return nil, err
		}
		if w.quota.ShouldStop() {
			w.finish(StopBudget)
			return nil, nil
		}
		if w.started && w.cfg.PageDelay > 0 {
			w.Sleep(ctx, w.cfg.PageDelay)
		}

		page, err := w.fetchPage(ctx)
		if err != nil {
			w.finish(StopError)
			return nil, err
		}
		w.started = true
		w.pages++
		w.token = page.NextToken

		items := page.Items
		if len(items) == 0 {
			// End of history. Not an error.
			w.finish(StopExhausted)
			return nil, nil
		}

		if w.cfg.Mode == ModePlaylist && !w.cfg.PublishedAfter.IsZero() {
			kept := w.filterByFloor(items)
			if len(kept) == 0 {
				if !w.cfg.Unordered {
					// Whole page older than the floor on a descending
					// collection: everything after it is older still.
					w.finish(StopDateFloor)
					return nil, nil
				}
				if w.token == "" {
					w.finish(StopExhausted)
					return nil, nil
				}
				continue
			}
			items = kept
		}

		if w.cfg.MaxItems > 0 && w.count+len(items) >= w.cfg.MaxItems {
			items = items[:w.cfg.MaxItems-w.count]
			w.count += len(items)
			w.finish(StopMaxItems)
			return items, nil
		}
		w.count += len(items)

		if w.token == "" {
			w.finish(StopExhausted)
			return items, nil
		}
		return items, nil
	}
}

// fetchPage issues one listing call sized to the remaining ceiling and
// charges the quota tracker on success.
func (w *PageWalker) fetchPage(ctx context.Context) (*Page, error) {
	size := w.cfg.PageSize
	if w.cfg.MaxItems > 0 {
		if remaining := int64(w.cfg.MaxItems - w.count); remaining < size {
			size = remaining
		}
	}

	var page *Page
	var err error
	switch w.cfg.Mode {
	case ModeSearch:
		page, err = w.source.Search(ctx, w.cfg.ContainerID, w.cfg.PublishedAfter, w.token, size)
		if err == nil {
			w.quota.Charge(CostSearch)
		}
	default:
		page, err = w.source.PlaylistItems(ctx, w.cfg.ContainerID, w.token, size)
		if err == nil {
			w.quota.Charge(CostPlaylistPage)
		}
	}
	if err != nil {
		return nil, &SourceError{Op: w.cfg.Mode.String(), Subject: w.cfg.ContainerID, Err: err}
	}
	return page, nil
}

// filterByFloor drops records published before the floor (inclusive keep).
func (w *PageWalker) filterByFloor(items []ListingRecord) []ListingRecord {
	kept := items[:0:len(items)]
	for _, it := range items {
		if !it.PublishedAt.Before(w.cfg.PublishedAfter) {
			kept = append(kept, it)
		}
	}
	return kept
}

func (w *PageWalker) finish(reason StopReason) {
	w.done = true
	w.stop = reason
	w.log.Debug().
		Stringer("mode", w.cfg.Mode).
		Stringer("stop", reason).
		Int("items", w.count).
		Int("pages", w.pages).
		Msg("pagination finished")
}

// Stop returns why the walk ended, or StopNone while it is in progress.
func (w *PageWalker) Stop() StopReason { return w.stop }

// Count returns the number of records yielded so far.
func (w *PageWalker) Count() int { return w.count }

// Cursor returns the continuation token reached so far. It can seed a
// later walk's ResumeToken.
func (w *PageWalker) Cursor() string { return w.token }

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
