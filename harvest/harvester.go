package harvest

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// channelIDPattern matches a bare stable channel id ("UC" + 22 chars).
var channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)

// channelURLPattern matches /channel/ URLs that embed the stable id.
var channelURLPattern = regexp.MustCompile(`(?:youtube\.com|youtu\.be)/channel/(UC[\w-]{22})`)

// IsChannelID reports whether s already has the platform's stable
// channel-id shape, so resolution can be skipped entirely.
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

// ExtractChannelID recognizes inputs that carry the channel id
// directly, a bare UC... id or a /channel/ URL. Such inputs resolve
// locally and cost nothing; names and handles need a remote lookup.
func ExtractChannelID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if IsChannelID(input) {
		return input, true
	}
	if m := channelURLPattern.FindStringSubmatch(input); m != nil {
		return m[1], true
	}
	return "", false
}

// Options controls one harvest request. The zero value means: default
// page size, all time, unlimited videos.
type Options struct {
	// BatchSize is the listing page size, capped at MaxPageSize.
	BatchSize int64
	// DaysBack converts to a publish-date floor of now minus this many
	// days. 0 or negative means no floor (all time).
	DaysBack int
	// MaxVideos caps the total videos per channel. 0 means unlimited.
	MaxVideos int
}

// Result is the outcome for a single channel.
type Result struct {
	// Channel is the input ref with ResolvedID filled in when resolution
	// succeeded.
	Channel ChannelRef
	// Info is the channel metadata, nil when the fetch never happened.
	Info *ChannelInfo
	// Videos is the merged, deduplicated record set. Always everything
	// accumulated before the stop, never discarded.
	Videos []HarvestedVideo
	// Stop records why harvesting ended.
	Stop StopReason
	// Partial is true when the stop left the channel unexhausted
	// (budget or error), false for clean stops.
	Partial bool
	// Err carries the failure detail for StopError results. Budget
	// exhaustion is a planned stop, not an error.
	Err error
}

// ChannelOutcome summarizes one channel inside a batch run.
type ChannelOutcome struct {
	// Count is the number of videos harvested.
	Count int
	// Partial mirrors Result.Partial.
	Partial bool
	// Err is the failure detail, nil for healthy channels. It lets the
	// caller distinguish "zero videos found" from "channel failed".
	Err error
}

// MarshalJSON renders Err as its message, since error values do not
// serialize usefully on their own.
func (o ChannelOutcome) MarshalJSON() ([]byte, error) {
	out := struct {
		Count   int    `json:"count"`
		Partial bool   `json:"partial,omitempty"`
		Error   string `json:"error,omitempty"`
	}{Count: o.Count, Partial: o.Partial}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// BatchResult aggregates a multi-channel run.
type BatchResult struct {
	// Videos concatenates every channel's harvested videos.
	Videos []HarvestedVideo
	// Results holds the per-channel outcomes in input order, one entry
	// per ref.
	Results []*Result
	// PerChannel reports count or error per input channel, keyed by the
	// channel's raw input.
	PerChannel map[string]ChannelOutcome
	// Failed lists the channels whose harvest failed outright, in input
	// order.
	Failed []string
}

// Harvester composes the page walker, statistics batcher, and quota
// tracker for a harvesting session. Each Harvester owns its own
// QuotaTracker and is the unit of budget accounting: construct a new
// one when the daily allowance resets. Not safe for concurrent use.
type Harvester struct {
	source Source
	quota  *QuotaTracker
	log    zerolog.Logger

	// PageDelay is the pacing delay between listing pages.
	PageDelay time.Duration
	// Sleep overrides the pacing implementation, for tests.
	Sleep func(context.Context, time.Duration)

	now func() time.Time
}

// DefaultPageDelay paces successive listing calls. Throughput shaping
// only, not required for correctness.
const DefaultPageDelay = 200 * time.Millisecond

// HarvesterOption customizes a Harvester.
type HarvesterOption func(*Harvester)

// WithQuotaLimit sets the session budget in API units.
func WithQuotaLimit(limit int) HarvesterOption {
	return func(h *Harvester) { h.quota = NewQuotaTracker(limit) }
}

// WithStopThreshold sets the fraction of the budget at which harvesting
// stops.
func WithStopThreshold(ratio float64) HarvesterOption {
	return func(h *Harvester) { h.quota.SetStopThreshold(ratio) }
}

// WithPageDelay sets the between-page pacing delay.
func WithPageDelay(d time.Duration) HarvesterOption {
	return func(h *Harvester) { h.PageDelay = d }
}

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) HarvesterOption {
	return func(h *Harvester) { h.log = log }
}

// WithClock overrides the time source used for date floors, for tests.
func WithClock(now func() time.Time) HarvesterOption {
	return func(h *Harvester) { h.now = now }
}

// NewHarvester creates a harvesting session over source with a fresh
// quota tracker.
func NewHarvester(source Source, opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		source:    source,
		quota:     NewQuotaTracker(DefaultQuotaLimit),
		log:       zerolog.Nop(),
		PageDelay: DefaultPageDelay,
		Sleep:     sleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// QuotaState exposes the session's budget consumption.
func (h *Harvester) QuotaState() QuotaState { return h.quota.State() }

// HarvestOne harvests a single channel: resolves the id, fetches channel
// info once, walks the upload collection (or search fallback), merges
// listing pages with bulk statistics, and deduplicates by video id.
//
// Any termination (budget, ceiling, transport error inside a
// statistics chunk) yields everything accumulated up to that point.
// The returned Result is never nil.
func (h *Harvester) HarvestOne(ctx context.Context, ref ChannelRef, opts Options) *Result {
	res := &Result{Channel: ref}
	log := h.log.With().Str("channel", ref.Label()).Logger()

	channelID, err := h.resolve(ctx, ref)
	if err != nil {
		// Resolution failure is terminal for this channel only.
		log.Warn().Err(err).Msg("channel resolution failed")
		res.Stop, res.Partial, res.Err = StopError, true, err
		return res
	}
	res.Channel.ResolvedID = channelID

	info, err := h.source.ChannelInfo(ctx, channelID)
	if err != nil {
		// No videos without channel context.
		log.Warn().Err(err).Msg("channel info fetch failed")
		res.Stop, res.Partial, res.Err = StopError, true, &SourceError{Op: "info", Subject: channelID, Err: err}
		return res
	}
	h.quota.Charge(CostChannelInfo)
	res.Info = info
	log.Info().
		Str("channel_id", channelID).
		Str("title", info.Title).
		Int64("subscribers", info.SubscriberCount).
		Msg("harvesting channel")

	walker := h.newWalker(channelID, info, opts)
	batcher := NewStatsBatcher(h.source, h.quota, log)

	var statsErr error
	for {
		listings, err := walker.Next(ctx)
		if err != nil {
			res.Err = err
			break
		}
		if len(listings) == 0 {
			break
		}

		ids := make([]string, len(listings))
		for i, l := range listings {
			ids[i] = l.VideoID
		}
		stats, err := batcher.Fetch(ctx, ids)
		if err != nil {
			// Keep the page: listings merged with whatever statistics
			// made it through, defaults for the rest.
			statsErr = err
		}
		for _, l := range listings {
			var rec *StatRecord
			if s, ok := stats[l.VideoID]; ok {
				rec = &s
			}
			res.Videos = append(res.Videos, MergeVideo(l, rec, info))
		}
		if statsErr != nil {
			break
		}
	}

	res.Videos = DedupeVideos(res.Videos)
	res.Stop = walker.Stop()
	if statsErr != nil {
		res.Stop = StopError
		res.Err = statsErr
	}
	res.Partial = res.Stop.Partial()

	log.Info().
		Int("videos", len(res.Videos)).
		Stringer("stop", res.Stop).
		Bool("partial", res.Partial).
		Int("quota_used", h.quota.State().Used).
		Msg("channel harvest finished")
	return res
}

// HarvestMany runs HarvestOne across every channel, isolating failures:
// a channel that cannot be resolved or harvested is recorded in
// PerChannel and Failed, and iteration moves on. Channels are processed
// sequentially so budget accounting stays exact.
func (h *Harvester) HarvestMany(ctx context.Context, refs []ChannelRef, opts Options) *BatchResult {
	batch := &BatchResult{PerChannel: make(map[string]ChannelOutcome, len(refs))}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			batch.Results = append(batch.Results, &Result{Channel: ref, Stop: StopError, Partial: true, Err: err})
			batch.PerChannel[ref.Label()] = ChannelOutcome{Partial: true, Err: err}
			batch.Failed = append(batch.Failed, ref.Label())
			continue
		}
		res := h.HarvestOne(ctx, ref, opts)
		batch.Results = append(batch.Results, res)
		outcome := ChannelOutcome{Count: len(res.Videos), Partial: res.Partial, Err: res.Err}
		batch.PerChannel[ref.Label()] = outcome
		if res.Err != nil && len(res.Videos) == 0 {
			batch.Failed = append(batch.Failed, ref.Label())
		}
		batch.Videos = append(batch.Videos, res.Videos...)
	}
	return batch
}

// resolve determines the stable channel id for a ref. Raw input already
// shaped like a channel id is used directly; anything else goes through
// the resolver (one search charge on success).
func (h *Harvester) resolve(ctx context.Context, ref ChannelRef) (string, error) {
	if ref.ResolvedID != "" {
		return ref.ResolvedID, nil
	}
	raw := strings.TrimSpace(ref.RawInput)
	if raw == "" {
		return "", ErrInvalidInput
	}
	if id, ok := ExtractChannelID(raw); ok {
		return id, nil
	}
	id, err := h.source.ResolveChannel(ctx, raw)
	if err != nil {
		return "", &SourceError{Op: "resolve", Subject: raw, Err: err}
	}
	h.quota.Charge(CostSearch)
	return id, nil
}

// newWalker picks the listing mode: the upload collection when the
// channel exposes one, otherwise the search fallback. DaysBack converts
// to the publish-date floor here.
func (h *Harvester) newWalker(channelID string, info *ChannelInfo, opts Options) *PageWalker {
	cfg := WalkConfig{
		PageSize:  opts.BatchSize,
		MaxItems:  opts.MaxVideos,
		PageDelay: h.PageDelay,
	}
	if opts.DaysBack > 0 {
		cfg.PublishedAfter = h.now().UTC().AddDate(0, 0, -opts.DaysBack)
	}
	if info.UploadsPlaylistID != "" {
		cfg.Mode = ModePlaylist
		cfg.ContainerID = info.UploadsPlaylistID
	} else {
		cfg.Mode = ModeSearch
		cfg.ContainerID = channelID
	}
	w := NewPageWalker(h.source, h.quota, cfg, h.log)
	w.Sleep = h.Sleep
	return w
}
