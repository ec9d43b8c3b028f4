package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coincorr-go/internal/analytics"
	"github.com/irfndi/coincorr-go/internal/cache"
	"github.com/irfndi/coincorr-go/internal/config"
	"github.com/irfndi/coincorr-go/internal/models"
	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

// Analyzer drives one analysis run: resolve the coin selection, load
// charts through the cache, reshape them into daily series, and compute
// correlation tables over the result.
type Analyzer struct {
	runID      string
	selection  models.CoinSelection
	vsCurrency string
	days       int
	precision  int

	selector *Selector
	loader   *ChartLoader
	logger   *logrus.Logger

	coins  []string
	failed []string
	tables map[string]*models.CoinSeries
}

// SelectionFor derives the coin selection from the configuration. A
// positive top limit takes precedence over the explicit coin list.
func SelectionFor(cfg *config.Config) models.CoinSelection {
	if cfg.Analysis.TopLimit > 0 {
		return models.TopSelection(cfg.Analysis.TopLimit)
	}
	return models.ExplicitSelection(cfg.Analysis.Coins...)
}

// New creates an analyzer from the application configuration, an API
// client, and a cache store.
func New(cfg *config.Config, api coingecko.API, store cache.ChartStore, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		runID:      uuid.New().String(),
		selection:  SelectionFor(cfg),
		vsCurrency: cfg.Analysis.VsCurrency,
		days:       cfg.Analysis.Days,
		precision:  cfg.Output.Precision,
		selector:   NewSelector(api, cfg.Analysis.VsCurrency),
		loader: NewChartLoader(api, store, LoaderConfig{
			VsCurrency:   cfg.Analysis.VsCurrency,
			Days:         cfg.Analysis.Days,
			MinCoverage:  cfg.Analysis.MinCoverage,
			RequestDelay: cfg.CoinGecko.RequestDelayDuration(),
			Refresh:      cfg.Analysis.Refresh,
		}, logger),
		logger: logger,
		tables: make(map[string]*models.CoinSeries),
	}
}

// LoadTables resolves the coin selection and loads one daily series per
// coin. Coins whose charts fall below the coverage threshold are
// skipped and recorded; any other load error aborts the run.
func (a *Analyzer) LoadTables(ctx context.Context) error {
	ids, err := a.selector.Resolve(ctx, a.selection)
	if err != nil {
		return err
	}

	log := a.logger.WithField("run_id", a.runID)
	log.WithFields(logrus.Fields{"coins": len(ids), "days": a.days, "vs_currency": a.vsCurrency}).Info("Loading market charts")

	a.coins = a.coins[:0]
	a.failed = a.failed[:0]
	for _, coinID := range ids {
		chart, err := a.loader.LoadChart(ctx, coinID)
		if errors.Is(err, ErrInsufficientData) {
			log.WithFields(logrus.Fields{"coin": coinID, "error": err}).Warn("Skipping coin")
			a.failed = append(a.failed, coinID)
			continue
		}
		if err != nil {
			return err
		}

		series, err := a.ReformatData(coinID, chart)
		if err != nil {
			return err
		}
		a.tables[coinID] = series
		a.coins = append(a.coins, coinID)
	}

	if len(a.coins) == 0 {
		return fmt.Errorf("no coins with usable charts: %w", ErrInsufficientData)
	}

	stats := a.loader.Stats().Snapshot()
	log.WithFields(logrus.Fields{
		"loaded":     len(a.coins),
		"skipped":    len(a.failed),
		"cache_hits": stats.Hits,
	}).Info("Market charts loaded")
	return nil
}

// ReformatData reshapes a raw chart into a daily series. Timestamps are
// truncated to their UTC day, the last point seen for a day wins, and
// the result is sorted ascending by date.
func (a *Analyzer) ReformatData(coinID string, chart *coingecko.MarketChart) (*models.CoinSeries, error) {
	if err := chart.Validate(); err != nil {
		return nil, fmt.Errorf("chart for %s: %w", coinID, err)
	}

	byDay := make(map[int64]models.SeriesPoint, len(chart.Prices))
	for i, point := range chart.Prices {
		day := point.Timestamp.Time().Truncate(24 * time.Hour)
		byDay[day.Unix()] = models.SeriesPoint{
			Date:      day,
			Price:     point.Value,
			MarketCap: chart.MarketCaps[i].Value,
			Volume:    chart.TotalVolumes[i].Value,
		}
	}

	points := make([]models.SeriesPoint, 0, len(byDay))
	for _, point := range byDay {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return &models.CoinSeries{
		CoinID:     coinID,
		VsCurrency: a.vsCurrency,
		Days:       a.days,
		Points:     points,
	}, nil
}

// PriceCorrelation computes the pairwise correlation of daily closing
// prices across all loaded coins.
func (a *Analyzer) PriceCorrelation() (*models.CorrelationTable, error) {
	frame, err := a.buildFrame(models.PriceCorrelation)
	if err != nil {
		return nil, err
	}
	return tableFromFrame(models.PriceCorrelation, frame), nil
}

// ReturnCorrelation computes the pairwise correlation of day-over-day
// percent changes across all loaded coins. It separates coins that move
// together from coins that merely trend together.
func (a *Analyzer) ReturnCorrelation() (*models.CorrelationTable, error) {
	frame, err := a.buildFrame(models.ReturnCorrelation)
	if err != nil {
		return nil, err
	}
	return tableFromFrame(models.ReturnCorrelation, frame), nil
}

func (a *Analyzer) buildFrame(kind models.CorrelationKind) (*analytics.Frame, error) {
	if len(a.coins) < 2 {
		return nil, fmt.Errorf("correlation requires at least two coins with data, got %d: %w", len(a.coins), analytics.ErrInsufficientOverlap)
	}

	series := make([]analytics.Series, 0, len(a.coins))
	for _, coinID := range a.coins {
		table := a.tables[coinID]
		if kind == models.ReturnCorrelation {
			series = append(series, analytics.Series{
				Name:   coinID,
				Dates:  table.Dates()[1:],
				Values: analytics.PercentChange(table.Prices()),
			})
			continue
		}
		series = append(series, analytics.Series{
			Name:   coinID,
			Dates:  table.Dates(),
			Values: table.Prices(),
		})
	}
	return analytics.BuildFrame(series)
}

func tableFromFrame(kind models.CorrelationKind, frame *analytics.Frame) *models.CorrelationTable {
	pairs := frame.PairwiseCorrelations()
	table := &models.CorrelationTable{
		Kind:  kind,
		Pairs: make([]models.CorrelationPair, len(pairs)),
	}
	for i, pair := range pairs {
		table.Pairs[i] = models.CorrelationPair{Coin1: pair.A, Coin2: pair.B, Correlation: pair.R}
	}
	return table
}

// Plot writes an ASCII price chart per loaded coin to w.
func (a *Analyzer) Plot(w io.Writer) error {
	for _, coinID := range a.coins {
		table := a.tables[coinID]
		if table.Len() == 0 {
			continue
		}
		graph := asciigraph.Plot(table.Prices(),
			asciigraph.Height(12),
			asciigraph.Width(72),
			asciigraph.Caption(fmt.Sprintf("%s Price Chart (%s)", models.DisplayName(coinID), strings.ToUpper(a.vsCurrency))),
		)
		if _, err := fmt.Fprintf(w, "%s\n\n", graph); err != nil {
			return err
		}
	}
	return nil
}

// SaveTables writes one CSV per loaded coin into dir, named after the
// coin's cache key. Columns are date, price, market_cap, volume and
// percent_change; the first day has no predecessor and is omitted.
func (a *Analyzer) SaveTables(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	for _, coinID := range a.coins {
		if err := a.saveTable(dir, coinID); err != nil {
			return err
		}
		a.logger.WithFields(logrus.Fields{"coin": coinID, "dir": dir}).Debug("Saved table")
	}
	return nil
}

func (a *Analyzer) saveTable(dir, coinID string) error {
	table := a.tables[coinID]
	key := cache.Key{CoinID: coinID, VsCurrency: a.vsCurrency, Days: a.days}

	f, err := os.Create(filepath.Join(dir, key.String()+".csv"))
	if err != nil {
		return fmt.Errorf("failed to create table for %s: %w", coinID, err)
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"date", "price", "market_cap", "volume", "percent_change"})

	changes := analytics.PercentChange(table.Prices())
	for i, point := range table.Points {
		if i == 0 {
			continue
		}
		_ = w.Write([]string{
			point.Date.Format("2006-01-02"),
			point.Price.StringFixed(int32(a.precision)),
			point.MarketCap.StringFixed(int32(a.precision)),
			point.Volume.StringFixed(int32(a.precision)),
			strconv.FormatFloat(changes[i-1], 'f', -1, 64),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write table for %s: %w", coinID, err)
	}
	return f.Close()
}

// Coins returns the coins that loaded successfully, in load order.
func (a *Analyzer) Coins() []string {
	return append([]string(nil), a.coins...)
}

// FailedCoins returns the coins skipped for insufficient data.
func (a *Analyzer) FailedCoins() []string {
	return append([]string(nil), a.failed...)
}

// Table returns the daily series loaded for coinID.
func (a *Analyzer) Table(coinID string) (*models.CoinSeries, bool) {
	table, ok := a.tables[coinID]
	return table, ok
}

// CacheStats returns a snapshot of the loader's cache counters.
func (a *Analyzer) CacheStats() cache.Stats {
	return a.loader.Stats().Snapshot()
}

// RunID returns the unique identifier of this analysis run.
func (a *Analyzer) RunID() string {
	return a.runID
}
