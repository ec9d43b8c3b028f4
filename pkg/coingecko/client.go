// Package coingecko provides a client for the CoinGecko v3 REST API,
// covering the endpoints needed to pull coin listings and historical
// market charts.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public CoinGecko v3 API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	userAgent    = "coincorr-go/1.0"
	apiKeyHeader = "x-cg-demo-api-key"
)

// Config holds the client settings.
type Config struct {
	// BaseURL overrides DefaultBaseURL, e.g. for a test server.
	BaseURL string
	// APIKey is an optional demo API key sent with every request.
	APIKey string
	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration
}

// Client represents the CoinGecko HTTP client.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new CoinGecko client instance.
//
// Parameters:
//
//	cfg: Client configuration. Zero-value fields use defaults.
//
// Returns:
//
//	*Client: Initialized client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// Ping checks if the CoinGecko API is reachable.
//
// Parameters:
//
//	ctx: Context.
//
// Returns:
//
//	*PingResponse: API greeting.
//	error: Error if the check fails.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var response PingResponse
	err := c.makeRequest(ctx, "GET", "/ping", &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ListCoinMarkets retrieves coins ordered by descending market cap.
//
// Parameters:
//
//	ctx: Context.
//	vsCurrency: Quote currency for prices, e.g. "usd".
//	perPage: Page size, capped at 250 by the API.
//	page: 1-based page number.
//
// Returns:
//
//	[]CoinMarket: One row per coin.
//	error: Error if retrieval fails.
func (c *Client) ListCoinMarkets(ctx context.Context, vsCurrency string, perPage, page int) ([]CoinMarket, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")

	var response []CoinMarket
	err := c.makeRequest(ctx, "GET", "/coins/markets?"+params.Encode(), &response)
	return response, err
}

// GetMarketChart retrieves the daily price, market cap and volume
// history of one coin.
//
// Parameters:
//
//	ctx: Context.
//	coinID: CoinGecko coin ID, e.g. "bitcoin".
//	vsCurrency: Quote currency, e.g. "usd".
//	days: Day range to cover, counted back from now.
//
// Returns:
//
//	*MarketChart: Decoded chart.
//	error: Error if retrieval fails.
func (c *Client) GetMarketChart(ctx context.Context, coinID, vsCurrency string, days int) (*MarketChart, error) {
	raw, err := c.GetMarketChartRaw(ctx, coinID, vsCurrency, days)
	if err != nil {
		return nil, err
	}
	return ParseMarketChart(raw)
}

// GetMarketChartRaw retrieves the market chart as the raw JSON payload,
// suitable for caching and later decoding with ParseMarketChart.
//
// Parameters:
//
//	ctx: Context.
//	coinID: CoinGecko coin ID, e.g. "bitcoin".
//	vsCurrency: Quote currency, e.g. "usd".
//	days: Day range to cover, counted back from now.
//
// Returns:
//
//	[]byte: The response body as sent by the API.
//	error: Error if retrieval fails.
func (c *Client) GetMarketChartRaw(ctx context.Context, coinID, vsCurrency string, days int) ([]byte, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("days", strconv.Itoa(days))
	params.Set("interval", "daily")

	path := fmt.Sprintf("/coins/%s/market_chart?%s", url.PathEscape(coinID), params.Encode())
	return c.makeRequestRaw(ctx, "GET", path)
}

// makeRequestRaw performs an HTTP request against the API and returns
// the response body, converting non-2xx responses into *APIError.
func (c *Client) makeRequestRaw(ctx context.Context, method, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var payload errorPayload
		if err := json.Unmarshal(respBody, &payload); err == nil {
			if payload.Status.ErrorMessage != "" {
				apiErr.Message = payload.Status.ErrorMessage
			} else if payload.Error != "" {
				apiErr.Message = payload.Error
			}
		}
		return nil, apiErr
	}

	return respBody, nil
}

// makeRequest performs an HTTP request and unmarshals the JSON response
// into result.
func (c *Client) makeRequest(ctx context.Context, method, path string, result interface{}) error {
	respBody, err := c.makeRequestRaw(ctx, method, path)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// BaseURL returns the base URL the client talks to.
//
// Returns:
//
//	string: The base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
