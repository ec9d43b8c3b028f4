package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/coincorr-go/internal/cache"
	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

var chartBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// chartJSON builds a raw market chart payload with one point per day
// starting at start. Market caps and volumes are derived from the
// prices.
func chartJSON(t *testing.T, start time.Time, prices []float64) []byte {
	t.Helper()

	chart := &coingecko.MarketChart{}
	for i, price := range prices {
		ts := coingecko.UnixTimestamp(start.AddDate(0, 0, i))
		chart.Prices = append(chart.Prices, coingecko.ChartPoint{Timestamp: ts, Value: decimal.NewFromFloat(price)})
		chart.MarketCaps = append(chart.MarketCaps, coingecko.ChartPoint{Timestamp: ts, Value: decimal.NewFromFloat(price * 1000)})
		chart.TotalVolumes = append(chart.TotalVolumes, coingecko.ChartPoint{Timestamp: ts, Value: decimal.NewFromFloat(price * 100)})
	}

	data, err := json.Marshal(chart)
	require.NoError(t, err)
	return data
}

func testLoaderConfig(days int) LoaderConfig {
	return LoaderConfig{
		VsCurrency:  "usd",
		Days:        days,
		MinCoverage: 0.5,
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, cache.Key) ([]byte, bool, error) {
	return nil, false, errors.New("read failed")
}

func (brokenStore) Set(context.Context, cache.Key, []byte) error {
	return errors.New("write failed")
}

func TestChartLoader_FetchesAndCaches(t *testing.T) {
	raw := chartJSON(t, chartBase, []float64{100, 110, 121, 133.1})
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 4).Return(raw, nil).Once()

	store := cache.NewMemoryStore()
	loader := NewChartLoader(api, store, testLoaderConfig(3), logrus.New())

	chart, err := loader.LoadChart(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Len(t, chart.Prices, 4)

	data, found, err := store.Get(context.Background(), cache.Key{CoinID: "bitcoin", VsCurrency: "usd", Days: 3})
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, string(raw), string(data))

	stats := loader.Stats().Snapshot()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)

	api.AssertExpectations(t)
}

func TestChartLoader_CacheHit(t *testing.T) {
	raw := chartJSON(t, chartBase, []float64{100, 110, 121})
	store := cache.NewMemoryStore()
	key := cache.Key{CoinID: "bitcoin", VsCurrency: "usd", Days: 3}
	require.NoError(t, store.Set(context.Background(), key, raw))

	api := &MockAPI{}
	loader := NewChartLoader(api, store, testLoaderConfig(3), logrus.New())

	chart, err := loader.LoadChart(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Len(t, chart.Prices, 3)

	stats := loader.Stats().Snapshot()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)

	// No upstream call was made.
	api.AssertExpectations(t)
}

func TestChartLoader_RefreshBypassesCache(t *testing.T) {
	stale := chartJSON(t, chartBase, []float64{1, 2, 3})
	fresh := chartJSON(t, chartBase, []float64{100, 110, 121, 133.1})

	store := cache.NewMemoryStore()
	key := cache.Key{CoinID: "bitcoin", VsCurrency: "usd", Days: 3}
	require.NoError(t, store.Set(context.Background(), key, stale))

	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 4).Return(fresh, nil).Once()

	cfg := testLoaderConfig(3)
	cfg.Refresh = true
	loader := NewChartLoader(api, store, cfg, logrus.New())

	chart, err := loader.LoadChart(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Len(t, chart.Prices, 4)

	data, found, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, string(fresh), string(data))

	api.AssertExpectations(t)
}

func TestChartLoader_InsufficientDataSkipsCaching(t *testing.T) {
	raw := chartJSON(t, chartBase, []float64{100, 110, 121})
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 365).Return(raw, nil).Once()

	store := cache.NewMemoryStore()
	loader := NewChartLoader(api, store, testLoaderConfig(364), logrus.New())

	chart, err := loader.LoadChart(context.Background(), "bitcoin")
	assert.Nil(t, chart)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Contains(t, err.Error(), "bitcoin")

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, int64(0), loader.Stats().Snapshot().Sets)
}

func TestChartLoader_EmptyChartIsInsufficient(t *testing.T) {
	raw := []byte(`{"prices": [], "market_caps": [], "total_volumes": []}`)
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "ghostcoin", "usd", 4).Return(raw, nil).Once()

	// Even with the coverage gate disabled a chart without points must
	// be skipped, not analyzed.
	cfg := testLoaderConfig(3)
	cfg.MinCoverage = 0
	store := cache.NewMemoryStore()
	loader := NewChartLoader(api, store, cfg, logrus.New())

	chart, err := loader.LoadChart(context.Background(), "ghostcoin")
	assert.Nil(t, chart)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Contains(t, err.Error(), "ghostcoin")

	assert.Equal(t, 0, store.Len())
}

func TestChartLoader_RateLimitPropagates(t *testing.T) {
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 4).
		Return(nil, &coingecko.APIError{StatusCode: 429, Message: "You've exceeded the Rate Limit"})

	loader := NewChartLoader(api, cache.NewMemoryStore(), testLoaderConfig(3), logrus.New())

	_, err := loader.LoadChart(context.Background(), "bitcoin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientData)

	var apiErr *coingecko.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimit())
}

func TestChartLoader_CorruptCacheEntryRefetches(t *testing.T) {
	store := cache.NewMemoryStore()
	key := cache.Key{CoinID: "bitcoin", VsCurrency: "usd", Days: 3}
	require.NoError(t, store.Set(context.Background(), key, []byte("{not json")))

	raw := chartJSON(t, chartBase, []float64{100, 110, 121, 133.1})
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 4).Return(raw, nil).Once()

	loader := NewChartLoader(api, store, testLoaderConfig(3), logrus.New())

	chart, err := loader.LoadChart(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Len(t, chart.Prices, 4)

	api.AssertExpectations(t)
}

func TestChartLoader_CacheWriteFailureIsNotFatal(t *testing.T) {
	raw := chartJSON(t, chartBase, []float64{100, 110, 121, 133.1})
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 4).Return(raw, nil).Once()

	loader := NewChartLoader(api, brokenStore{}, testLoaderConfig(3), logrus.New())

	chart, err := loader.LoadChart(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Len(t, chart.Prices, 4)
	assert.Equal(t, int64(0), loader.Stats().Snapshot().Sets)
}

func TestChartLoader_DelayBetweenFetches(t *testing.T) {
	raw := chartJSON(t, chartBase, []float64{100, 110, 121, 133.1})
	api := &MockAPI{}
	api.On("GetMarketChartRaw", mock.Anything, "bitcoin", "usd", 4).Return(raw, nil).Once()
	api.On("GetMarketChartRaw", mock.Anything, "ethereum", "usd", 4).Return(raw, nil).Once()

	cfg := testLoaderConfig(3)
	cfg.RequestDelay = 50 * time.Millisecond
	loader := NewChartLoader(api, cache.NewMemoryStore(), cfg, logrus.New())

	start := time.Now()
	_, err := loader.LoadChart(context.Background(), "bitcoin")
	require.NoError(t, err)
	_, err = loader.LoadChart(context.Background(), "ethereum")
	require.NoError(t, err)

	// Only the gap between the two fetches sleeps.
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
