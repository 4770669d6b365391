package trending

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"golang.org/x/time/rate"
)

const feedJSON = `{
	"trending": [
		{"position": 1, "title": "Song A", "link": "https://youtube.com/watch?v=a", "views": 1000,
		 "channel": {"id": "UC1", "title": "Zeta Records", "is_verified": true}},
		{"position": 2, "title": "Song B", "link": "https://youtube.com/watch?v=b", "views": 500,
		 "channel": {"id": "UC2", "title": "Alpha Music"}},
		{"position": 3, "title": "Song C", "link": "https://youtube.com/watch?v=c", "views": 250,
		 "channel": {"id": "UC1", "title": "Zeta Records", "is_verified": true}}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(rate.NewLimiter(rate.Inf, 1)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestTrendingVideos(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"engine": q.Get("engine"),
			"bp":     q.Get("bp"),
			"gl":     q.Get("gl"),
			"hl":     q.Get("hl"),
			"key":    q.Get("api_key"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedJSON))
	})

	videos, err := c.TrendingVideos(context.Background(), Query{Category: "gaming", Country: "gb"})
	if err != nil {
		t.Fatalf("TrendingVideos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}
	if videos[0].Title != "Song A" || videos[0].Channel.Title != "Zeta Records" || !videos[0].Channel.Verified {
		t.Errorf("first video parsed wrong: %+v", videos[0])
	}

	want := map[string]string{"engine": "youtube_trends", "bp": "gaming", "gl": "gb", "hl": "en", "key": "test-key"}
	if !reflect.DeepEqual(gotQuery, want) {
		t.Errorf("query params = %v, want %v", gotQuery, want)
	}
}

func TestTrendingVideosBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	if _, err := c.TrendingVideos(context.Background(), Query{}); !errors.Is(err, ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}
}

func TestTrendingChannels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedJSON))
	})

	channels, err := c.TrendingChannels(context.Background(), Query{})
	if err != nil {
		t.Fatalf("TrendingChannels: %v", err)
	}
	want := []string{"Alpha Music", "Zeta Records"}
	if !reflect.DeepEqual(channels, want) {
		t.Errorf("channels = %v, want %v", channels, want)
	}
}

func TestUniqueChannelsSkipsEmptyTitles(t *testing.T) {
	videos := []Video{
		{Channel: Channel{Title: "B"}},
		{Channel: Channel{}},
		{Channel: Channel{Title: "A"}},
		{Channel: Channel{Title: "B"}},
	}
	want := []string{"A", "B"}
	if got := UniqueChannels(videos); !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueChannels = %v, want %v", got, want)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("expected ErrAPIKeyMissing, got %v", err)
	}
}
