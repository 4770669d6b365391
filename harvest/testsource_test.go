package harvest

import (
	"context"
	"fmt"
	"time"
)

// fakeSource is a scripted Source implementation for engine tests.
type fakeSource struct {
	// pages is returned in order by both listing endpoints.
	pages []*Page
	// pageErr fails listing at the page with this index (0-based).
	pageErr     error
	pageErrAt   int
	pageCalls   int
	searchCalls int
	lastFloor   time.Time

	// stats maps video id to its record; absent ids are omitted from
	// VideoStats results like the real platform does.
	stats      map[string]StatRecord
	statsErr   error
	statsCalls int
	chunkSizes []int

	resolved   map[string]string
	resolveErr error

	info    *ChannelInfo
	infoErr error
}

func (f *fakeSource) nextPage() (*Page, error) {
	idx := f.pageCalls
	f.pageCalls++
	if f.pageErr != nil && idx == f.pageErrAt {
		return nil, f.pageErr
	}
	if idx >= len(f.pages) {
		return &Page{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeSource) Search(_ context.Context, channelID string, publishedAfter time.Time, _ string, _ int64) (*Page, error) {
	f.searchCalls++
	f.lastFloor = publishedAfter
	page, err := f.nextPage()
	if err != nil {
		return nil, err
	}
	// Mimic server-side date filtering.
	if publishedAfter.IsZero() {
		return page, nil
	}
	filtered := &Page{NextToken: page.NextToken}
	for _, it := range page.Items {
		if !it.PublishedAt.Before(publishedAfter) {
			filtered.Items = append(filtered.Items, it)
		}
	}
	return filtered, nil
}

func (f *fakeSource) PlaylistItems(_ context.Context, _, _ string, _ int64) (*Page, error) {
	return f.nextPage()
}

func (f *fakeSource) VideoStats(_ context.Context, ids []string) (map[string]StatRecord, error) {
	f.statsCalls++
	f.chunkSizes = append(f.chunkSizes, len(ids))
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	out := make(map[string]StatRecord, len(ids))
	for _, id := range ids {
		if rec, ok := f.stats[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (f *fakeSource) ResolveChannel(_ context.Context, name string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if id, ok := f.resolved[name]; ok {
		return id, nil
	}
	return "", ErrChannelNotFound
}

func (f *fakeSource) ChannelInfo(_ context.Context, channelID string) (*ChannelInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.info != nil {
		return f.info, nil
	}
	return &ChannelInfo{ChannelID: channelID, Title: "Fake Channel"}, nil
}

// listing builds a ListingRecord with a deterministic id and title.
func listing(id string, published time.Time) ListingRecord {
	return ListingRecord{
		VideoID:     id,
		Title:       "Video " + id,
		PublishedAt: published,
		ChannelID:   "UCfakefakefakefakefakefake",
	}
}

// idSeq builds n listing records named v<start>..v<start+n-1>.
func idSeq(start, n int, published time.Time) []ListingRecord {
	out := make([]ListingRecord, n)
	for i := range out {
		out[i] = listing(fmt.Sprintf("v%d", start+i), published)
	}
	return out
}
