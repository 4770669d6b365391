// Package ytharvest provides a quota-aware library for harvesting
// YouTube channel videos and their statistics.
//
// # Overview
//
// The library resolves channel names, handles, or URLs to channel ids,
// walks the channel's uploads page by page, batches statistics lookups,
// and stops cleanly before the daily API quota runs out.
//
// # Quick Start
//
// Harvest one channel:
//
//	ctx := context.Background()
//	client, err := youtube.NewClient(ctx, os.Getenv("YOUTUBE_API_KEY"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	h := harvest.NewHarvester(client)
//	res := h.HarvestOne(ctx, harvest.ChannelRef{RawInput: "@mkbhd"}, harvest.Options{
//		MaxVideos: 100,
//		DaysBack:  30,
//	})
//	for _, v := range res.Videos {
//		fmt.Printf("%s  %d views\n", v.Title, v.ViewCount)
//	}
//
// Harvest several channels with shared quota accounting:
//
//	refs := []harvest.ChannelRef{
//		{RawInput: "Rick Astley"},
//		{RawInput: "UCuAXFkgsw1L7xaCfnd5JJOw"},
//	}
//	batch := h.HarvestMany(ctx, refs, harvest.Options{})
//	fmt.Printf("%d videos, %d failed channels\n", len(batch.Videos), len(batch.Failed))
//
// # Configuration
//
// Settings load from multiple sources, highest priority first:
//
//  1. Environment variables
//  2. Config file (ytharvest.json or ~/.config/ytharvest/ytharvest.json)
//  3. Default values
//
// Environment variables:
//
//   - YOUTUBE_API_KEY: YouTube Data API v3 key
//   - SEARCHAPI_KEY: SearchAPI.io key for trending lookups
//   - YTHARVEST_QUOTA_LIMIT: Daily quota allowance in units
//   - YTHARVEST_QUOTA_STOP_THRESHOLD: Fraction of quota at which to stop
//   - YTHARVEST_MAX_VIDEOS: Maximum videos per channel
//   - YTHARVEST_DAYS_BACK: Only videos published within N days
//   - YTHARVEST_OUTPUT_DIR: Directory for JSON batch files
//   - POSTGRES_DSN: Enables the Postgres backend
//   - MONGODB_URI: Enables the MongoDB backend
//
// # Error Handling
//
// Operations return errors that work with the standard helpers:
//
//	if errors.Is(err, harvest.ErrChannelNotFound) {
//		fmt.Println("channel not found")
//	}
//
//	var srcErr *harvest.SourceError
//	if errors.As(err, &srcErr) {
//		fmt.Printf("%s failed for %s: %v\n", srcErr.Op, srcErr.Subject, srcErr.Err)
//	}
//
// # Packages
//
//   - harvest: The engine - page walking, stats batching, quota budgeting
//   - youtube: YouTube Data API v3 source implementation
//   - storage: JSON, Postgres, MongoDB, and in-memory persistence
//   - trending: Trending channel discovery via SearchAPI.io
//   - config: Configuration management
package ytharvest
