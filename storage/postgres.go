package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"ytharvest/harvest"
)

const videosSchema = `
CREATE TABLE IF NOT EXISTS videos (
	id SERIAL PRIMARY KEY,
	video_id VARCHAR(32) UNIQUE,
	channel_name TEXT,
	title TEXT,
	description TEXT,
	published_at TIMESTAMPTZ,
	channel_id TEXT,
	thumbnail_url TEXT,
	view_count BIGINT,
	like_count BIGINT,
	comment_count BIGINT,
	duration TEXT,
	channel_subscriber_count BIGINT,
	harvested_at TIMESTAMPTZ,
	batch_info JSONB
);
CREATE INDEX IF NOT EXISTS idx_videos_video_id ON videos(video_id);
CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos(channel_id);
CREATE INDEX IF NOT EXISTS idx_videos_published_at ON videos(published_at);
CREATE INDEX IF NOT EXISTS idx_videos_harvested_at ON videos(harvested_at);
`

const upsertVideoSQL = `
INSERT INTO videos (
	video_id, channel_name, title, description, published_at, channel_id, thumbnail_url,
	view_count, like_count, comment_count, duration, channel_subscriber_count, harvested_at, batch_info
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (video_id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	view_count = EXCLUDED.view_count,
	like_count = EXCLUDED.like_count,
	comment_count = EXCLUDED.comment_count,
	duration = EXCLUDED.duration,
	channel_subscriber_count = EXCLUDED.channel_subscriber_count,
	harvested_at = EXCLUDED.harvested_at,
	batch_info = EXCLUDED.batch_info`

// PostgresStore upserts harvested videos into a videos table keyed by
// video id, so re-harvesting a channel refreshes counts in place.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresStore connects to the database and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, dsn string, log zerolog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &StorageError{Op: "init", Backend: "postgres", Err: err}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &StorageError{Op: "init", Backend: "postgres", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StorageError{Op: "init", Backend: "postgres", Err: err}
	}

	s := &PostgresStore{pool: pool, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, videosSchema); err != nil {
		return &StorageError{Op: "init", Backend: "postgres", Err: fmt.Errorf("create schema: %w", err)}
	}
	return nil
}

// StoreBatch upserts the batch in a single pipelined round trip.
func (s *PostgresStore) StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error {
	if channelName == "" {
		return &StorageError{Op: "store", Backend: "postgres", Err: ErrInvalidInput}
	}
	if len(videos) == 0 {
		return nil
	}

	batchInfo, err := json.Marshal(meta)
	if err != nil {
		return &StorageError{Op: "store", Backend: "postgres", Channel: channelName, Err: err}
	}

	batch := &pgx.Batch{}
	for _, v := range videos {
		batch.Queue(upsertVideoSQL,
			v.VideoID, channelName, v.Title, v.Description, v.PublishedAt, v.ChannelID, v.ThumbnailURL,
			v.ViewCount, v.LikeCount, v.CommentCount, v.Duration, v.ChannelSubscriberCount,
			meta.HarvestedAt, batchInfo)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range videos {
		if _, err := results.Exec(); err != nil {
			return &StorageError{Op: "store", Backend: "postgres", Channel: channelName, Err: err}
		}
	}

	s.log.Info().Str("channel", channelName).Int("videos", len(videos)).Msg("batch upserted")
	return nil
}

// CountByChannel reports how many videos are stored for a channel id.
func (s *PostgresStore) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE channel_id = $1`, channelID).Scan(&n)
	if err != nil {
		return 0, &StorageError{Op: "query", Backend: "postgres", Err: err}
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
