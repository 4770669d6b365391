package harvest

import "sync"

// Quota cost weights in API units, matching the platform's published
// pricing for the calls the engine makes.
const (
	// CostSearch is charged per search.list page (also channel resolution).
	CostSearch = 100
	// CostChannelInfo is charged per channels.list call.
	CostChannelInfo = 1
	// CostPlaylistPage is charged per playlistItems.list page.
	CostPlaylistPage = 1
	// CostStatsChunk is charged per videos.list bulk statistics call.
	CostStatsChunk = 1
)

// DefaultQuotaLimit is the platform's daily allowance in API units.
const DefaultQuotaLimit = 10000

// DefaultStopThreshold stops harvesting at 80% of the budget, leaving
// headroom for cleanup calls.
const DefaultStopThreshold = 0.8

// QuotaState is a point-in-time snapshot of budget consumption.
type QuotaState struct {
	// Used is the total weighted cost charged so far.
	Used int `json:"used"`
	// Limit is the fixed budget set at construction.
	Limit int `json:"limit"`
	// Ratio is Used divided by Limit.
	Ratio float64 `json:"ratio"`
}

// QuotaTracker accumulates weighted call cost against a fixed budget.
// Used only grows; there is no decay or refill. The tracker mirrors a
// daily allowance the caller resets out of band by constructing a new
// one. Exceeding the budget is never an error: callers consult
// ShouldStop and halt gracefully, keeping everything gathered so far.
//
// A tracker is owned by a single Harvester. The mutex only makes
// introspection from other goroutines safe; it is not a license to
// share one tracker across concurrent harvests.
type QuotaTracker struct {
	mu        sync.Mutex
	used      int
	limit     int
	threshold float64
}

// NewQuotaTracker creates a tracker with the given budget. A limit of 0
// or less falls back to DefaultQuotaLimit.
func NewQuotaTracker(limit int) *QuotaTracker {
	if limit <= 0 {
		limit = DefaultQuotaLimit
	}
	return &QuotaTracker{limit: limit, threshold: DefaultStopThreshold}
}

// SetStopThreshold overrides the stop threshold ratio. Values outside
// (0, 1] are ignored.
func (q *QuotaTracker) SetStopThreshold(ratio float64) {
	if ratio <= 0 || ratio > 1 {
		return
	}
	q.mu.Lock()
	q.threshold = ratio
	q.mu.Unlock()
}

// Charge adds weight to the used counter. Negative weights are ignored;
// the counter is monotonic.
func (q *QuotaTracker) Charge(weight int) {
	if weight <= 0 {
		return
	}
	q.mu.Lock()
	q.used += weight
	q.mu.Unlock()
}

// ShouldStop reports whether used has reached the stop threshold of the
// budget. Once true it stays true absent a reset.
func (q *QuotaTracker) ShouldStop() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return float64(q.used) >= float64(q.limit)*q.threshold
}

// State returns the current usage snapshot.
func (q *QuotaTracker) State() QuotaState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QuotaState{
		Used:  q.used,
		Limit: q.limit,
		Ratio: float64(q.used) / float64(q.limit),
	}
}
