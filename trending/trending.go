// Package trending discovers channels worth harvesting from the
// SearchAPI.io YouTube trends engine.
package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.searchapi.io/api/v1/search"

// Sentinel errors.
var (
	// ErrAPIKeyMissing indicates no SearchAPI.io key was supplied.
	ErrAPIKeyMissing = errors.New("trending: api key required")
	// ErrBadStatus indicates a non-200 response from the API.
	ErrBadStatus = errors.New("trending: unexpected status")
)

// Query selects which trending feed to fetch.
type Query struct {
	// Category is the trends section: "now", "music", "gaming", "films".
	Category string
	// Country is the two-letter country code, e.g. "us".
	Country string
	// Language is the language code, e.g. "en".
	Language string
}

// Video is one entry of the trending feed.
type Video struct {
	Position      int     `json:"position"`
	Title         string  `json:"title"`
	Link          string  `json:"link"`
	Length        string  `json:"length"`
	PublishedTime string  `json:"published_time"`
	Views         int64   `json:"views"`
	Thumbnail     string  `json:"thumbnail"`
	Channel       Channel `json:"channel"`
}

// Channel is the uploader block within a trending entry.
type Channel struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Verified bool   `json:"is_verified"`
}

// Client calls the SearchAPI.io trends engine. Requests are paced by a
// rate limiter so bursts of lookups stay inside the provider's limits.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint. Tests use this
// with httptest servers.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit overrides the request pacing.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a trends client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// trendsResponse is the wire shape of the trends engine.
type trendsResponse struct {
	Trending []Video `json:"trending"`
}

// TrendingVideos fetches the trending feed for a query. Empty query
// fields fall back to music/us/en.
func (c *Client) TrendingVideos(ctx context.Context, q Query) ([]Video, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("engine", "youtube_trends")
	params.Set("bp", orDefault(q.Category, "music"))
	params.Set("gl", orDefault(q.Country, "us"))
	params.Set("hl", orDefault(q.Language, "en"))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trending: fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var body trendsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("trending: decode feed: %w", err)
	}
	c.log.Debug().Int("videos", len(body.Trending)).Str("category", q.Category).Msg("trending feed fetched")
	return body.Trending, nil
}

// TrendingChannels fetches the feed and reduces it to the unique
// channel titles, sorted.
func (c *Client) TrendingChannels(ctx context.Context, q Query) ([]string, error) {
	videos, err := c.TrendingVideos(ctx, q)
	if err != nil {
		return nil, err
	}
	return UniqueChannels(videos), nil
}

// UniqueChannels extracts the distinct channel titles from a feed,
// sorted alphabetically.
func UniqueChannels(videos []Video) []string {
	seen := make(map[string]struct{}, len(videos))
	var names []string
	for _, v := range videos {
		title := v.Channel.Title
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		names = append(names, title)
	}
	sort.Strings(names)
	return names
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
