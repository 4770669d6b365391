package harvest

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLen is the display length video descriptions are truncated
// to at ingestion time. Truncation is a payload-size control applied once
// at the boundary, not data loss at the source.
const MaxDescriptionLen = 500

// DurationUnknown is the duration value recorded when the platform omits
// content details for a video (e.g. deleted or private).
const DurationUnknown = "Unknown"

// ChannelRef identifies a channel to harvest. RawInput is whatever the
// caller supplied (name, @handle, URL, or a bare channel ID); ResolvedID
// is the stable platform identifier, filled in once per harvest.
type ChannelRef struct {
	// RawInput is the user-supplied channel name, handle, or URL.
	RawInput string `json:"raw_input"`
	// ResolvedID is the stable platform channel ID, immutable once resolved.
	ResolvedID string `json:"resolved_id,omitempty"`
}

// Label returns the best available display name for logging and reports.
func (r ChannelRef) Label() string {
	if r.RawInput != "" {
		return r.RawInput
	}
	return r.ResolvedID
}

// ListingRecord is one entry from a pagination source (search results or
// an uploads playlist). Produced by the PageWalker; never mutated after.
type ListingRecord struct {
	// VideoID is the platform video identifier.
	VideoID string `json:"video_id"`
	// Title is the video title.
	Title string `json:"title"`
	// Description is the video description, truncated to MaxDescriptionLen.
	Description string `json:"description,omitempty"`
	// PublishedAt is when the video was published.
	PublishedAt time.Time `json:"published_at"`
	// ChannelID is the channel or playlist container the record came from.
	ChannelID string `json:"channel_id"`
	// ThumbnailURL points at the medium-quality thumbnail.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// StatRecord holds numeric statistics for one video.
type StatRecord struct {
	// VideoID is the platform video identifier.
	VideoID string `json:"video_id"`
	// ViewCount is the total view count.
	ViewCount int64 `json:"view_count"`
	// LikeCount is the total like count.
	LikeCount int64 `json:"like_count"`
	// CommentCount is the total comment count.
	CommentCount int64 `json:"comment_count"`
	// Duration is the platform duration encoding (ISO-8601, e.g. "PT4M13S").
	Duration string `json:"duration"`
}

// DefaultStats returns the zero-valued statistics used when the platform
// omits statistics for an id. Missing statistics are never an error.
func DefaultStats(videoID string) StatRecord {
	return StatRecord{VideoID: videoID, Duration: DurationUnknown}
}

// ChannelInfo is the channel-level aggregate fetched once per harvest.
type ChannelInfo struct {
	// ChannelID is the stable platform channel ID.
	ChannelID string `json:"channel_id"`
	// Title is the channel display name.
	Title string `json:"title"`
	// Description is the channel description.
	Description string `json:"description,omitempty"`
	// SubscriberCount is the channel subscriber count.
	SubscriberCount int64 `json:"subscriber_count"`
	// VideoCount is the total number of uploads reported by the platform.
	VideoCount int64 `json:"video_count"`
	// ViewCount is the channel-wide view count.
	ViewCount int64 `json:"view_count"`
	// UploadsPlaylistID is the canonical upload collection, empty when the
	// platform did not expose one.
	UploadsPlaylistID string `json:"uploads_playlist_id,omitempty"`
}

// HarvestedVideo is the merged unit of work: one ListingRecord combined
// with its StatRecord plus channel-level fields. This is the only shape
// handed to storage.
type HarvestedVideo struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	ChannelID    string    `json:"channel_id"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`

	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	Duration     string `json:"duration"`

	ChannelName            string `json:"channel_name"`
	ChannelSubscriberCount int64  `json:"channel_subscriber_count"`
}

// MergeVideo combines a listing record with statistics and channel fields.
// When stats is nil the zero-valued defaults are applied.
func MergeVideo(listing ListingRecord, stats *StatRecord, info *ChannelInfo) HarvestedVideo {
	s := DefaultStats(listing.VideoID)
	if stats != nil {
		s = *stats
	}
	v := HarvestedVideo{
		VideoID:      listing.VideoID,
		Title:        listing.Title,
		Description:  listing.Description,
		PublishedAt:  listing.PublishedAt,
		ChannelID:    listing.ChannelID,
		ThumbnailURL: listing.ThumbnailURL,
		ViewCount:    s.ViewCount,
		LikeCount:    s.LikeCount,
		CommentCount: s.CommentCount,
		Duration:     s.Duration,
	}
	if info != nil {
		v.ChannelName = info.Title
		v.ChannelSubscriberCount = info.SubscriberCount
	}
	return v
}

// EngagementRate returns likes as a percentage of views, 0 when views are 0.
func (v HarvestedVideo) EngagementRate() float64 {
	if v.ViewCount == 0 {
		return 0
	}
	return float64(v.LikeCount) / float64(v.ViewCount) * 100
}

// VideoURL returns the full watch URL for this video.
func (v HarvestedVideo) VideoURL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// TruncateDescription shortens a description to at most MaxDescriptionLen
// bytes without splitting a UTF-8 sequence, trimming trailing whitespace
// left by the cut.
func TruncateDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	cut := MaxDescriptionLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], " \t\n")
}

// DedupeVideos removes duplicate video ids, preserving first occurrence
// order. The platform occasionally repeats an item across page boundaries.
func DedupeVideos(videos []HarvestedVideo) []HarvestedVideo {
	if len(videos) < 2 {
		return videos
	}
	seen := make(map[string]struct{}, len(videos))
	out := videos[:0]
	for _, v := range videos {
		if _, dup := seen[v.VideoID]; dup {
			continue
		}
		seen[v.VideoID] = struct{}{}
		out = append(out, v)
	}
	return out
}
