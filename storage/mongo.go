package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ytharvest/harvest"
)

// DefaultMongoDatabase is used when the config names no database.
const DefaultMongoDatabase = "ytharvest"

// MongoStore upserts harvested videos into a videos collection keyed by
// video id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    zerolog.Logger
}

// NewMongoStore connects, pings, and ensures the indexes exist.
func NewMongoStore(ctx context.Context, uri, database string, log zerolog.Logger) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &StorageError{Op: "init", Backend: "mongo", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, &StorageError{Op: "init", Backend: "mongo", Err: err}
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("videos"),
		log:    log,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "video_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "channel_name", Value: 1}}},
		{Keys: bson.D{{Key: "published_at", Value: -1}}},
		{Keys: bson.D{{Key: "view_count", Value: -1}}},
	})
	if err != nil {
		return &StorageError{Op: "init", Backend: "mongo", Err: err}
	}
	return nil
}

// videoDoc is the stored document shape.
type videoDoc struct {
	VideoID                string    `bson:"video_id"`
	ChannelName            string    `bson:"channel_name"`
	Title                  string    `bson:"title"`
	Description            string    `bson:"description"`
	PublishedAt            time.Time `bson:"published_at"`
	ChannelID              string    `bson:"channel_id"`
	ThumbnailURL           string    `bson:"thumbnail_url"`
	ViewCount              int64     `bson:"view_count"`
	LikeCount              int64     `bson:"like_count"`
	CommentCount           int64     `bson:"comment_count"`
	Duration               string    `bson:"duration"`
	ChannelSubscriberCount int64     `bson:"channel_subscriber_count"`
	HarvestedAt            time.Time `bson:"harvested_at"`
	BatchInfo              BatchMeta `bson:"batch_info"`
}

// StoreBatch upserts the batch as one unordered bulk write.
func (s *MongoStore) StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error {
	if channelName == "" {
		return &StorageError{Op: "store", Backend: "mongo", Err: ErrInvalidInput}
	}
	if len(videos) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(videos))
	for _, v := range videos {
		doc := videoDoc{
			VideoID:                v.VideoID,
			ChannelName:            channelName,
			Title:                  v.Title,
			Description:            v.Description,
			PublishedAt:            v.PublishedAt,
			ChannelID:              v.ChannelID,
			ThumbnailURL:           v.ThumbnailURL,
			ViewCount:              v.ViewCount,
			LikeCount:              v.LikeCount,
			CommentCount:           v.CommentCount,
			Duration:               v.Duration,
			ChannelSubscriberCount: v.ChannelSubscriberCount,
			HarvestedAt:            meta.HarvestedAt,
			BatchInfo:              meta,
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "video_id", Value: v.VideoID}}).
			SetUpdate(bson.D{{Key: "$set", Value: doc}}).
			SetUpsert(true))
	}

	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return &StorageError{Op: "store", Backend: "mongo", Channel: channelName, Err: err}
	}
	s.log.Info().
		Str("channel", channelName).
		Int64("inserted", res.UpsertedCount).
		Int64("updated", res.ModifiedCount).
		Msg("batch upserted")
	return nil
}

// ChannelSummary aggregates stored totals per channel.
type ChannelSummary struct {
	ChannelName string    `bson:"_id"`
	VideoCount  int64     `bson:"video_count"`
	TotalViews  int64     `bson:"total_views"`
	LatestVideo time.Time `bson:"latest_video"`
}

// ChannelSummaries groups stored videos by channel, most videos first.
func (s *MongoStore) ChannelSummaries(ctx context.Context) ([]ChannelSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$channel_name"},
			{Key: "video_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_views", Value: bson.D{{Key: "$sum", Value: "$view_count"}}},
			{Key: "latest_video", Value: bson.D{{Key: "$max", Value: "$published_at"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "video_count", Value: -1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &StorageError{Op: "query", Backend: "mongo", Err: err}
	}
	defer cursor.Close(ctx)

	var summaries []ChannelSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, &StorageError{Op: "query", Backend: "mongo", Err: err}
	}
	return summaries, nil
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
