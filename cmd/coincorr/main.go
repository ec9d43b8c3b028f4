// Package main implements the coincorr command line tool. It fetches
// daily market charts from CoinGecko, caches them on disk, and reports
// pairwise price and return correlations for the selected coins.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coincorr-go/internal/cache"
	"github.com/irfndi/coincorr-go/internal/config"
	"github.com/irfndi/coincorr-go/internal/logging"
	"github.com/irfndi/coincorr-go/internal/services"
	"github.com/irfndi/coincorr-go/internal/utils"
	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run holds the whole program so deferred cleanup still happens on
// error paths; main turns its error into the process exit.
func run() error {
	// Parse flags
	coins := flag.String("coins", "", "Comma-separated CoinGecko coin IDs, e.g. bitcoin,ethereum")
	top := flag.Int("top", 0, "Analyze the top N coins by market cap instead of -coins")
	days := flag.Int("days", 0, "Number of past days to analyze (max 364)")
	vs := flag.String("vs", "", "Quote currency, e.g. usd or eur")
	configFile := flag.String("config", "", "Path to a config file")
	cacheBackend := flag.String("cache", "", "Cache backend: filesystem, redis or memory")
	cacheDir := flag.String("cache-dir", "", "Directory for the filesystem cache")
	refresh := flag.Bool("refresh", false, "Refetch charts even when cached")
	plot := flag.Bool("plot", false, "Print an ASCII price chart per coin")
	save := flag.Bool("save", false, "Write one CSV table per coin to the output directory")
	sortTables := flag.Bool("sort", false, "Sort correlation tables from most to least correlated")
	search := flag.String("search", "", "Print the selected coin IDs matching this query and exit")
	exact := flag.Bool("exact", false, "Require full matches for -search")
	flag.Parse()

	// Load .env file when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override file and environment settings
	if *coins != "" {
		cfg.Analysis.Coins = splitCoins(*coins)
		cfg.Analysis.TopLimit = 0
	}
	if *top > 0 {
		cfg.Analysis.TopLimit = *top
	}
	if *days > 0 {
		cfg.Analysis.Days = *days
	}
	if *vs != "" {
		cfg.Analysis.VsCurrency = *vs
	}
	if *cacheBackend != "" {
		cfg.Cache.Backend = *cacheBackend
	}
	if *cacheDir != "" {
		cfg.Cache.Dir = *cacheDir
	}
	if *refresh {
		cfg.Analysis.Refresh = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(cfg.LogLevel, cfg.Environment)
	logger := logrus.StandardLogger()

	// Initialize the CoinGecko client
	client := coingecko.NewClient(coingecko.Config{
		BaseURL: cfg.CoinGecko.BaseURL,
		APIKey:  cfg.CoinGecko.APIKey,
		Timeout: time.Duration(cfg.CoinGecko.Timeout) * time.Second,
	})

	// Initialize the chart cache
	store, closeStore, err := newChartStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -search resolves the selection and prints matches instead of
	// running an analysis.
	if *search != "" {
		selector := services.NewSelector(client, cfg.Analysis.VsCurrency)
		ids, err := selector.Resolve(ctx, services.SelectionFor(cfg))
		if err != nil {
			return fmt.Errorf("failed to resolve coin selection: %w", err)
		}
		matches := utils.Search(*search, ids, *exact)
		if len(matches) == 0 {
			fmt.Printf("No coins matching %q\n", *search)
			return nil
		}
		for _, id := range matches {
			fmt.Println(id)
		}
		return nil
	}

	analyzer := services.New(cfg, client, store, logger)

	if err := analyzer.LoadTables(ctx); err != nil {
		return fmt.Errorf("failed to load market charts: %w", err)
	}
	if failed := analyzer.FailedCoins(); len(failed) > 0 {
		fmt.Printf("Skipped for insufficient data: %s\n\n", strings.Join(failed, ", "))
	}

	priceTable, err := analyzer.PriceCorrelation()
	if err != nil {
		return fmt.Errorf("failed to compute price correlation: %w", err)
	}
	returnTable, err := analyzer.ReturnCorrelation()
	if err != nil {
		return fmt.Errorf("failed to compute return correlation: %w", err)
	}
	if *sortTables {
		priceTable.SortByCorrelation()
		returnTable.SortByCorrelation()
	}

	vsUpper := strings.ToUpper(cfg.Analysis.VsCurrency)
	fmt.Printf("Price correlation over %d days (%s):\n%s\n", cfg.Analysis.Days, vsUpper, priceTable)
	fmt.Printf("Daily return correlation over %d days (%s):\n%s\n", cfg.Analysis.Days, vsUpper, returnTable)

	if *plot {
		if err := analyzer.Plot(os.Stdout); err != nil {
			return fmt.Errorf("failed to plot charts: %w", err)
		}
	}
	if *save {
		if err := analyzer.SaveTables(cfg.Output.Dir); err != nil {
			return fmt.Errorf("failed to save tables: %w", err)
		}
		fmt.Printf("Saved %d tables to %s\n", len(analyzer.Coins()), cfg.Output.Dir)
	}

	stats := analyzer.CacheStats()
	logging.WithRun(analyzer.RunID()).WithFields(logrus.Fields{
		"coins":        len(analyzer.Coins()),
		"cache_hits":   stats.Hits,
		"cache_misses": stats.Misses,
	}).Info("Analysis complete")
	return nil
}

// newChartStore builds the configured cache backend. The returned
// closer releases the backend's connection and is safe to call for
// backends without one.
func newChartStore(cfg *config.Config) (cache.ChartStore, func(), error) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryStore(), func() {}, nil
	case "redis":
		redisClient, err := cache.NewRedisConnection(cfg.Cache.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return cache.NewRedisStore(redisClient), func() { _ = redisClient.Close() }, nil
	default: // filesystem
		fileStore, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chart cache at %s: %w", cfg.Cache.Dir, err)
		}
		return fileStore, func() {}, nil
	}
}

// splitCoins splits a comma-separated flag value into coin IDs.
func splitCoins(s string) []string {
	parts := strings.Split(s, ",")
	coins := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			coins = append(coins, part)
		}
	}
	return coins
}
