// Package youtube implements the harvest source interfaces on top of
// the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytharvest/harvest"
	"ytharvest/internal/retry"
)

// Sentinel errors for API conditions the engine branches on.
var (
	// ErrQuotaExceeded indicates the platform rejected a call because the
	// daily quota allowance is spent.
	ErrQuotaExceeded = errors.New("youtube: quota exceeded")
	// ErrAPIKeyMissing indicates no API key was supplied.
	ErrAPIKeyMissing = errors.New("youtube: api key required")
)

// DefaultTimeout bounds each individual API request.
const DefaultTimeout = 30 * time.Second

// Client talks to the YouTube Data API v3 and satisfies harvest.Source.
// Individual calls are retried with exponential backoff; permanent
// errors (not found, quota exceeded) surface immediately.
type Client struct {
	svc     *youtube.Service
	timeout time.Duration
	log     zerolog.Logger

	// RetryConfig controls the per-call retry policy.
	RetryConfig retry.Config
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.RetryConfig = cfg }
}

// NewClient creates an API-key authenticated client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	c := &Client{
		svc:         svc,
		timeout:     DefaultTimeout,
		log:         zerolog.Nop(),
		RetryConfig: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call runs fn with the per-request timeout and the client retry policy.
func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, c.RetryConfig, isRetryable, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return fn(cctx)
	})
}

// Search lists a channel's videos newest first via search.list, with the
// publish-date floor applied server-side.
func (c *Client) Search(ctx context.Context, channelID string, publishedAfter time.Time, pageToken string, pageSize int64) (*harvest.Page, error) {
	page := &harvest.Page{}
	err := c.call(ctx, func(ctx context.Context) error {
		call := c.svc.Search.List([]string{"id", "snippet"}).
			ChannelId(channelID).
			Type("video").
			Order("date").
			MaxResults(clampPageSize(pageSize)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		if !publishedAfter.IsZero() {
			call = call.PublishedAfter(publishedAfter.UTC().Format(time.RFC3339))
		}

		resp, err := call.Do()
		if err != nil {
			return classifyAPIError(err)
		}

		page.Items = page.Items[:0]
		page.NextToken = resp.NextPageToken
		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			rec := harvest.ListingRecord{VideoID: item.Id.VideoId, ChannelID: channelID}
			fillFromSnippet(&rec, item.Snippet)
			page.Items = append(page.Items, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// PlaylistItems lists one page of an upload collection via
// playlistItems.list.
func (c *Client) PlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*harvest.Page, error) {
	page := &harvest.Page{}
	err := c.call(ctx, func(ctx context.Context) error {
		call := c.svc.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(clampPageSize(pageSize)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return classifyAPIError(err)
		}

		page.Items = page.Items[:0]
		page.NextToken = resp.NextPageToken
		for _, item := range resp.Items {
			sn := item.Snippet
			if sn == nil || sn.ResourceId == nil || sn.ResourceId.VideoId == "" {
				continue
			}
			rec := harvest.ListingRecord{VideoID: sn.ResourceId.VideoId}
			fillFromPlaylistSnippet(&rec, sn)
			page.Items = append(page.Items, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// VideoStats bulk-fetches statistics and duration for up to 50 ids via
// videos.list. Ids the platform omits are absent from the result.
func (c *Client) VideoStats(ctx context.Context, videoIDs []string) (map[string]harvest.StatRecord, error) {
	stats := make(map[string]harvest.StatRecord, len(videoIDs))
	if len(videoIDs) == 0 {
		return stats, nil
	}
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.svc.Videos.List([]string{"statistics", "contentDetails"}).
			Id(videoIDs...).
			MaxResults(int64(len(videoIDs))).
			Context(ctx).
			Do()
		if err != nil {
			return classifyAPIError(err)
		}

		for _, item := range resp.Items {
			rec := harvest.DefaultStats(item.Id)
			if st := item.Statistics; st != nil {
				rec.ViewCount = int64(st.ViewCount)
				rec.LikeCount = int64(st.LikeCount)
				rec.CommentCount = int64(st.CommentCount)
			}
			if cd := item.ContentDetails; cd != nil && cd.Duration != "" {
				rec.Duration = cd.Duration
			}
			stats[item.Id] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ResolveChannel converts a name, handle, or URL into the stable channel
// ID. Bare ids and /channel/ URLs resolve locally; anything else costs a
// search call and takes the first match.
func (c *Client) ResolveChannel(ctx context.Context, nameOrHandle string) (string, error) {
	if id, ok := harvest.ExtractChannelID(nameOrHandle); ok {
		return id, nil
	}

	query := searchQuery(nameOrHandle)
	if query == "" {
		return "", harvest.ErrInvalidInput
	}

	var channelID string
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.svc.Search.List([]string{"id"}).
			Q(query).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
			return harvest.ErrChannelNotFound
		}
		channelID = resp.Items[0].Id.ChannelId
		return nil
	})
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("input", nameOrHandle).Str("channel_id", channelID).Msg("channel resolved")
	return channelID, nil
}

// ChannelInfo fetches display name, subscriber count, and the uploads
// playlist id in one channels.list call.
func (c *Client) ChannelInfo(ctx context.Context, channelID string) (*harvest.ChannelInfo, error) {
	info := &harvest.ChannelInfo{ChannelID: channelID}
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.svc.Channels.List([]string{"snippet", "statistics", "contentDetails"}).
			Id(channelID).
			Context(ctx).
			Do()
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Items) == 0 {
			return harvest.ErrChannelNotFound
		}

		ch := resp.Items[0]
		if sn := ch.Snippet; sn != nil {
			info.Title = sn.Title
			info.Description = sn.Description
		}
		if st := ch.Statistics; st != nil {
			info.SubscriberCount = int64(st.SubscriberCount)
			info.VideoCount = int64(st.VideoCount)
			info.ViewCount = int64(st.ViewCount)
		}
		if cd := ch.ContentDetails; cd != nil && cd.RelatedPlaylists != nil {
			info.UploadsPlaylistID = cd.RelatedPlaylists.Uploads
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// fillFromSnippet maps a search result snippet onto a listing record,
// truncating the description at the boundary.
func fillFromSnippet(rec *harvest.ListingRecord, sn *youtube.SearchResultSnippet) {
	if sn == nil {
		return
	}
	rec.Title = sn.Title
	rec.Description = harvest.TruncateDescription(sn.Description)
	if sn.ChannelId != "" {
		rec.ChannelID = sn.ChannelId
	}
	if t, err := time.Parse(time.RFC3339, sn.PublishedAt); err == nil {
		rec.PublishedAt = t
	}
	rec.ThumbnailURL = mediumThumbnail(sn.Thumbnails)
}

// fillFromPlaylistSnippet maps a playlist item snippet onto a listing
// record.
func fillFromPlaylistSnippet(rec *harvest.ListingRecord, sn *youtube.PlaylistItemSnippet) {
	rec.Title = sn.Title
	rec.Description = harvest.TruncateDescription(sn.Description)
	rec.ChannelID = sn.ChannelId
	if t, err := time.Parse(time.RFC3339, sn.PublishedAt); err == nil {
		rec.PublishedAt = t
	}
	rec.ThumbnailURL = mediumThumbnail(sn.Thumbnails)
}

// mediumThumbnail prefers the medium rendition, falling back to default.
func mediumThumbnail(td *youtube.ThumbnailDetails) string {
	if td == nil {
		return ""
	}
	if td.Medium != nil && td.Medium.Url != "" {
		return td.Medium.Url
	}
	if td.Default != nil {
		return td.Default.Url
	}
	return ""
}

// clampPageSize keeps the requested size within the platform's bounds.
func clampPageSize(n int64) int64 {
	if n <= 0 || n > harvest.MaxPageSize {
		return harvest.MaxPageSize
	}
	return n
}

// classifyAPIError maps googleapi errors onto the package sentinels so
// callers can branch with errors.Is.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case 403:
		for _, e := range apiErr.Errors {
			if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
				return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
			}
		}
	case 404:
		return fmt.Errorf("%w: %v", harvest.ErrChannelNotFound, err)
	}
	return err
}

// isRetryable treats platform rate limiting and transient transport
// failures as retryable; resolution misses and a spent daily quota are
// permanent.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, harvest.ErrChannelNotFound),
		errors.Is(err, harvest.ErrInvalidInput),
		errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, context.Canceled):
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		// 429 and 5xx clear on their own; 4xx otherwise will not.
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return true
}
