package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/coincorr-go/internal/cache"
	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

// ErrInsufficientData reports a chart that covers too few days to be
// worth analyzing. Callers treat it as a per-coin skip, not a failure
// of the whole run.
var ErrInsufficientData = errors.New("insufficient chart data")

// LoaderConfig bundles the knobs for a ChartLoader.
type LoaderConfig struct {
	VsCurrency   string
	Days         int
	MinCoverage  float64
	RequestDelay time.Duration
	Refresh      bool
}

// ChartLoader loads market charts through the cache, fetching from the
// API on misses. Fetches request one day more than configured so the
// first percent change has a predecessor, while cache keys stay on the
// configured day count. A ChartLoader is used from one goroutine at a
// time.
type ChartLoader struct {
	api    coingecko.API
	store  cache.ChartStore
	config LoaderConfig
	logger *logrus.Logger
	stats  *cache.Stats

	fetched bool
}

// NewChartLoader creates a chart loader on top of the given API client
// and cache store.
func NewChartLoader(api coingecko.API, store cache.ChartStore, cfg LoaderConfig, logger *logrus.Logger) *ChartLoader {
	return &ChartLoader{
		api:    api,
		store:  store,
		config: cfg,
		logger: logger,
		stats:  &cache.Stats{},
	}
}

// LoadChart returns the market chart for coinID, from cache when
// possible. Charts below the coverage threshold are rejected with
// ErrInsufficientData and never cached; any other error propagates
// untouched from the API client.
func (l *ChartLoader) LoadChart(ctx context.Context, coinID string) (*coingecko.MarketChart, error) {
	key := cache.Key{CoinID: coinID, VsCurrency: l.config.VsCurrency, Days: l.config.Days}

	if !l.config.Refresh {
		if chart, ok := l.loadCached(ctx, key); ok {
			l.stats.AddHit()
			l.logger.WithFields(logrus.Fields{"coin": coinID, "days": l.config.Days}).Debug("Loaded chart from cache")
			return chart, nil
		}
	}
	l.stats.AddMiss()

	// Pause between consecutive upstream fetches to stay under the
	// public rate limit. The first fetch of a run goes out immediately.
	if l.fetched && l.config.RequestDelay > 0 {
		time.Sleep(l.config.RequestDelay)
	}
	l.fetched = true

	raw, err := l.api.GetMarketChartRaw(ctx, coinID, l.config.VsCurrency, l.config.Days+1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", coinID, err)
	}
	chart, err := coingecko.ParseMarketChart(raw)
	if errors.Is(err, coingecko.ErrEmptyChart) {
		// A coin without history is skipped like any other short chart,
		// even with the coverage gate disabled.
		return nil, fmt.Errorf("%w: %s chart is empty", ErrInsufficientData, coinID)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid chart for %s: %w", coinID, err)
	}
	if float64(len(chart.Prices)) < l.config.MinCoverage*float64(l.config.Days) {
		return nil, fmt.Errorf("%w: %s has %d points for %d requested days", ErrInsufficientData, coinID, len(chart.Prices), l.config.Days)
	}

	if err := l.store.Set(ctx, key, raw); err != nil {
		l.logger.WithFields(logrus.Fields{"coin": coinID, "error": err}).Warn("Failed to cache chart")
	} else {
		l.stats.AddSet()
	}
	l.logger.WithFields(logrus.Fields{"coin": coinID, "points": len(chart.Prices)}).Info("Fetched chart from CoinGecko")
	return chart, nil
}

// loadCached returns the parsed cached chart for key, or false when the
// entry is absent or unreadable. Unreadable entries fall through to a
// fresh fetch.
func (l *ChartLoader) loadCached(ctx context.Context, key cache.Key) (*coingecko.MarketChart, bool) {
	data, found, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.WithFields(logrus.Fields{"key": key.String(), "error": err}).Warn("Cache read failed, refetching")
		return nil, false
	}
	if !found {
		return nil, false
	}
	chart, err := coingecko.ParseMarketChart(data)
	if err != nil {
		l.logger.WithFields(logrus.Fields{"key": key.String(), "error": err}).Warn("Cached chart unreadable, refetching")
		return nil, false
	}
	return chart, true
}

// Stats returns the cache counters accumulated by this loader.
func (l *ChartLoader) Stats() *cache.Stats {
	return l.stats
}
