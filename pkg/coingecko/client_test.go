package coingecko_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

const chartPayload = `{
	"prices": [[1704067200000, 42261.45], [1704153600000, 43001.12], [1704240000000, 42800.77]],
	"market_caps": [[1704067200000, 827012345678.0], [1704153600000, 841098765432.1], [1704240000000, 836554433221.9]],
	"total_volumes": [[1704067200000, 17565274985.3], [1704153600000, 19876543210.0], [1704240000000, 16456789012.4]]
}`

func TestNewClient_Defaults(t *testing.T) {
	client := coingecko.NewClient(coingecko.Config{})

	assert.NotNil(t, client)
	assert.NotNil(t, client.HTTPClient)
	assert.Equal(t, coingecko.DefaultBaseURL, client.BaseURL())
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := coingecko.NewClient(coingecko.Config{BaseURL: "http://localhost:8080/"})
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		responseBody   string
		expectError    bool
	}{
		{
			name:           "successful ping",
			responseStatus: http.StatusOK,
			responseBody:   `{"gecko_says": "(V3) To the Moon!"}`,
			expectError:    false,
		},
		{
			name:           "server error",
			responseStatus: http.StatusInternalServerError,
			responseBody:   `{"error": "internal server error"}`,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/ping", r.URL.Path)
				assert.Equal(t, "GET", r.Method)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.responseStatus)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

			ctx := context.Background()
			resp, err := client.Ping(ctx)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, resp)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, "(V3) To the Moon!", resp.GeckoSays)
			}
		})
	}
}

func TestClient_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "coincorr-go/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "CG-test-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"gecko_says": "(V3) To the Moon!"}`))
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL, APIKey: "CG-test-key"})

	_, err := client.Ping(context.Background())
	require.NoError(t, err)
}

func TestClient_OmitsAPIKeyHeaderWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Cg-Demo-Api-Key"]
		assert.False(t, present)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"gecko_says": "(V3) To the Moon!"}`))
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

	_, err := client.Ping(context.Background())
	require.NoError(t, err)
}

func TestClient_ListCoinMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		query := r.URL.Query()
		assert.Equal(t, "usd", query.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", query.Get("order"))
		assert.Equal(t, "10", query.Get("per_page"))
		assert.Equal(t, "1", query.Get("page"))
		assert.Equal(t, "false", query.Get("sparkline"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 42261.45, "market_cap": 827012345678, "market_cap_rank": 1, "total_volume": 17565274985, "last_updated": "2024-01-03T08:15:00.000Z"},
			{"id": "ethereum", "symbol": "eth", "name": "Ethereum", "current_price": 2290.12, "market_cap": 275301234567, "market_cap_rank": 2, "total_volume": 9876543210, "last_updated": "2024-01-03T08:15:00.000Z"}
		]`))
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

	coins, err := client.ListCoinMarkets(context.Background(), "usd", 10, 1)
	require.NoError(t, err)
	require.Len(t, coins, 2)

	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, "btc", coins[0].Symbol)
	assert.Equal(t, 1, coins[0].MarketCapRank)
	assert.True(t, coins[0].CurrentPrice.Equal(decimal.NewFromFloat(42261.45)))
	assert.Equal(t, "ethereum", coins[1].ID)
	assert.Equal(t, 2, coins[1].MarketCapRank)
}

func TestClient_GetMarketChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)

		query := r.URL.Query()
		assert.Equal(t, "usd", query.Get("vs_currency"))
		assert.Equal(t, "31", query.Get("days"))
		assert.Equal(t, "daily", query.Get("interval"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartPayload))
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

	chart, err := client.GetMarketChart(context.Background(), "bitcoin", "usd", 31)
	require.NoError(t, err)
	require.NotNil(t, chart)
	require.Len(t, chart.Prices, 3)
	require.Len(t, chart.MarketCaps, 3)
	require.Len(t, chart.TotalVolumes, 3)

	first := chart.Prices[0]
	assert.Equal(t, int64(1704067200000), first.Timestamp.Time().UnixMilli())
	assert.True(t, first.Value.Equal(decimal.NewFromFloat(42261.45)))
}

func TestClient_GetMarketChartRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartPayload))
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

	raw, err := client.GetMarketChartRaw(context.Background(), "bitcoin", "usd", 31)
	require.NoError(t, err)
	assert.JSONEq(t, chartPayload, string(raw))
}

func TestClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": map[string]interface{}{
				"error_code":    429,
				"error_message": "You've exceeded the Rate Limit.",
			},
		})
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

	_, err := client.GetMarketChartRaw(context.Background(), "bitcoin", "usd", 31)
	require.Error(t, err)

	var apiErr *coingecko.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRateLimit())
	assert.False(t, apiErr.IsNotFound())
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Rate Limit")
}

func TestClient_CoinNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "coin not found"}`))
	}))
	defer server.Close()

	client := coingecko.NewClient(coingecko.Config{BaseURL: server.URL})

	_, err := client.GetMarketChart(context.Background(), "no-such-coin", "usd", 7)
	require.Error(t, err)

	var apiErr *coingecko.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "coin not found", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "404")
}
