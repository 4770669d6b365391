package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"ytharvest/config"
	"ytharvest/harvest"
	"ytharvest/internal/logging"
	"ytharvest/internal/retry"
	"ytharvest/storage"
	"ytharvest/trending"
	"ytharvest/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "harvest":
		cmdHarvest(args)
	case "trending":
		cmdTrending(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		// Assume bare channel arguments mean harvest
		cmdHarvest(os.Args[1:])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytharvest - YouTube channel video harvester

Usage:
  ytharvest harvest [flags] <channel>...   Harvest videos from one or more channels
  ytharvest trending [flags]               List trending channels
  ytharvest help                           Show this help message

Channels may be given as names, @handles, channel URLs, or UC... ids.

Examples:
  ytharvest harvest "Rick Astley"                      # Harvest by name
  ytharvest harvest --max 50 --days 30 @mkbhd          # Recent videos only
  ytharvest harvest UCuAXFkgsw1L7xaCfnd5JJOw mkbhd     # Multiple channels
  ytharvest trending --category gaming --country gb    # Trending gaming channels

For help on a specific command: ytharvest <command> -h
`)
}

func cmdHarvest(args []string) {
	fs := flag.NewFlagSet("harvest", flag.ExitOnError)
	maxVideos := fs.Int("max", 0, "Maximum videos per channel (0 = config/all)")
	daysBack := fs.Int("days", 0, "Only videos published within the last N days (0 = config/all)")
	batchSize := fs.Int("batch", 0, "Videos per statistics lookup, max 50 (0 = config)")
	dryRun := fs.Bool("dry-run", false, "Harvest without writing to storage backends")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytharvest harvest [flags] <channel>...\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	channels := fs.Args()
	if len(channels) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.APIKey == "" {
		fmt.Fprintf(os.Stderr, "Error: YOUTUBE_API_KEY is not set\n")
		os.Exit(1)
	}
	if *maxVideos > 0 {
		cfg.MaxVideos = *maxVideos
	}
	if *daysBack > 0 {
		cfg.DaysBack = *daysBack
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := youtube.NewClient(ctx, cfg.APIKey,
		youtube.WithTimeout(cfg.RequestTimeout),
		youtube.WithLogger(log),
		youtube.WithRetryConfig(retry.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
			Multiplier:     2.0,
			JitterFraction: 0.2,
		}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating YouTube client: %v\n", err)
		os.Exit(1)
	}

	store, err := openStores(ctx, cfg, log, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	h := newHarvester(client, cfg, log)
	opts := harvestOptions(cfg)

	refs := make([]harvest.ChannelRef, len(channels))
	for i, input := range channels {
		refs[i] = harvest.ChannelRef{RawInput: input}
	}
	batch := h.HarvestMany(ctx, refs, opts)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tVIDEOS\tPARTIAL\tSTATUS")

	var total int
	for _, res := range batch.Results {
		label := res.Channel.Label()
		status := "ok"
		if res.Info != nil && res.Info.Title != "" {
			label = res.Info.Title
		}
		if res.Err != nil {
			status = res.Err.Error()
		}

		if len(res.Videos) > 0 && !*dryRun {
			meta := storage.NewBatchMeta(res.Partial, int64(h.QuotaState().Used))
			if err := store.StoreBatch(ctx, label, res.Videos, meta); err != nil {
				log.Error().Err(err).Str("channel", label).Msg("storing batch failed")
				status = "store failed"
			}
		}

		total += len(res.Videos)
		fmt.Fprintf(w, "%s\t%d\t%v\t%s\n", truncate(label, 40), len(res.Videos), res.Partial, truncate(status, 60))
	}
	w.Flush()

	state := h.QuotaState()
	fmt.Fprintf(os.Stderr, "\nTotal: %d videos | quota used: %d/%d (%.0f%%)\n",
		total, state.Used, state.Limit, state.Ratio*100)
}

func cmdTrending(args []string) {
	fs := flag.NewFlagSet("trending", flag.ExitOnError)
	category := fs.String("category", "music", "Trending category: now, music, gaming, films")
	country := fs.String("country", "us", "Two-letter country code")
	language := fs.String("language", "en", "Language code")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytharvest trending [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.SearchAPIKey == "" {
		fmt.Fprintf(os.Stderr, "Error: SEARCHAPI_KEY is not set\n")
		os.Exit(1)
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := trending.NewClient(cfg.SearchAPIKey, trending.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating trending client: %v\n", err)
		os.Exit(1)
	}

	videos, err := client.TrendingVideos(ctx, trending.Query{
		Category: *category,
		Country:  *country,
		Language: *language,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching trending feed: %v\n", err)
		os.Exit(1)
	}
	if len(videos) == 0 {
		fmt.Println("No trending videos found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tTITLE\tCHANNEL\tVIEWS\tLENGTH")
	for _, v := range videos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			v.Position,
			truncate(v.Title, 50),
			truncate(v.Channel.Title, 30),
			youtube.FormatCount(v.Views),
			v.Length)
	}
	w.Flush()

	channels := trending.UniqueChannels(videos)
	fmt.Fprintf(os.Stderr, "\n%d trending videos across %d channels:\n", len(videos), len(channels))
	for _, name := range channels {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}

// newHarvester wires a harvesting session from config.
func newHarvester(source harvest.Source, cfg *config.Config, log zerolog.Logger) *harvest.Harvester {
	return harvest.NewHarvester(source,
		harvest.WithQuotaLimit(int(cfg.QuotaLimit)),
		harvest.WithStopThreshold(cfg.QuotaStopThreshold),
		harvest.WithPageDelay(cfg.PageDelay),
		harvest.WithLogger(log))
}

// harvestOptions maps config fields onto per-request options.
func harvestOptions(cfg *config.Config) harvest.Options {
	return harvest.Options{
		BatchSize: int64(cfg.BatchSize),
		DaysBack:  cfg.DaysBack,
		MaxVideos: cfg.MaxVideos,
	}
}

// openStores builds the storage fan-out: JSON files always, Postgres
// and MongoDB when configured. Dry runs get an in-memory store.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger, dryRun bool) (storage.VideoStore, error) {
	if dryRun {
		return storage.NewMemoryStore(), nil
	}

	jsonStore, err := storage.NewJSONStore(cfg.OutputDir, log)
	if err != nil {
		return nil, err
	}
	stores := []storage.VideoStore{jsonStore}

	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN, log)
		if err != nil {
			jsonStore.Close(ctx)
			return nil, err
		}
		stores = append(stores, pg)
	}
	if cfg.MongoURI != "" {
		mg, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			closeAll(ctx, stores)
			return nil, err
		}
		stores = append(stores, mg)
	}

	if len(stores) == 1 {
		return jsonStore, nil
	}
	return storage.NewMultiStore(stores...), nil
}

func closeAll(ctx context.Context, stores []storage.VideoStore) {
	for _, s := range stores {
		s.Close(ctx)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
