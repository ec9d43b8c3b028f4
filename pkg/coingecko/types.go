package coingecko

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// UnixTimestamp is a custom type that can unmarshal Unix timestamps (in milliseconds).
type UnixTimestamp time.Time

// UnmarshalJSON implements json.Unmarshaler for UnixTimestamp.
// It handles timestamps in milliseconds.
func (ut *UnixTimestamp) UnmarshalJSON(data []byte) error {
	var timestamp int64
	if err := json.Unmarshal(data, &timestamp); err != nil {
		return fmt.Errorf("failed to unmarshal timestamp: %w", err)
	}
	*ut = UnixTimestamp(time.Unix(timestamp/1000, (timestamp%1000)*1000000).UTC())
	return nil
}

// MarshalJSON implements json.Marshaler for UnixTimestamp.
// It converts time.Time back to a milliseconds timestamp.
func (ut UnixTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(ut).UnixMilli())
}

// Time returns the underlying time.Time.
func (ut UnixTimestamp) Time() time.Time {
	return time.Time(ut)
}

// ChartPoint is one [timestamp, value] pair of a market chart series.
type ChartPoint struct {
	Timestamp UnixTimestamp
	Value     decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler for ChartPoint. The API
// encodes each point as a two-element JSON array.
func (p *ChartPoint) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal chart point: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("chart point has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Timestamp); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &p.Value); err != nil {
		return fmt.Errorf("failed to unmarshal chart value: %w", err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for ChartPoint.
func (p ChartPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{time.Time(p.Timestamp).UnixMilli(), p.Value})
}

// ErrShapeMismatch reports a market chart whose series carry different
// numbers of points.
var ErrShapeMismatch = errors.New("market chart series lengths differ")

// ErrEmptyChart reports a market chart with no observations at all,
// typically a coin without trading history.
var ErrEmptyChart = errors.New("market chart has no points")

// MarketChart is the payload of the /coins/{id}/market_chart endpoint.
// The three series are parallel: point i of each series describes the
// same moment.
type MarketChart struct {
	// Prices is the [timestamp, price] series.
	Prices []ChartPoint `json:"prices"`
	// MarketCaps is the [timestamp, market cap] series.
	MarketCaps []ChartPoint `json:"market_caps"`
	// TotalVolumes is the [timestamp, volume] series.
	TotalVolumes []ChartPoint `json:"total_volumes"`
}

// Validate checks that the three series have matching lengths and that
// the chart holds at least one point.
func (m *MarketChart) Validate() error {
	if len(m.MarketCaps) != len(m.Prices) || len(m.TotalVolumes) != len(m.Prices) {
		return fmt.Errorf("%w: %d prices, %d market caps, %d volumes",
			ErrShapeMismatch, len(m.Prices), len(m.MarketCaps), len(m.TotalVolumes))
	}
	if len(m.Prices) == 0 {
		return ErrEmptyChart
	}
	return nil
}

// ParseMarketChart decodes and validates a raw market chart payload as
// returned by GetMarketChartRaw or read back from a cache.
func ParseMarketChart(data []byte) (*MarketChart, error) {
	var chart MarketChart
	if err := json.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal market chart: %w", err)
	}
	if err := chart.Validate(); err != nil {
		return nil, err
	}
	return &chart, nil
}

// PingResponse is the payload of the /ping health endpoint.
type PingResponse struct {
	// GeckoSays is the static greeting returned by a healthy API.
	GeckoSays string `json:"gecko_says"`
}

// CoinMarket is one row of the /coins/markets listing.
type CoinMarket struct {
	// ID is the CoinGecko coin identifier, e.g. "bitcoin".
	ID string `json:"id"`
	// Symbol is the ticker symbol, e.g. "btc".
	Symbol string `json:"symbol"`
	// Name is the human-readable coin name.
	Name string `json:"name"`
	// CurrentPrice is the latest price in the requested quote currency.
	CurrentPrice decimal.Decimal `json:"current_price"`
	// MarketCap is the current market capitalization.
	MarketCap decimal.Decimal `json:"market_cap"`
	// MarketCapRank is the coin's position in the market cap ranking.
	MarketCapRank int `json:"market_cap_rank"`
	// TotalVolume is the 24h trading volume.
	TotalVolume decimal.Decimal `json:"total_volume"`
	// LastUpdated is the time the row was refreshed upstream.
	LastUpdated time.Time `json:"last_updated"`
}

// APIError is a non-2xx response from the CoinGecko API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko api error (%d): %s", e.StatusCode, e.Message)
}

// IsRateLimit reports whether the response was a 429 rate limit.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether the response was a 404, typically an
// unknown coin ID.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// errorPayload covers the two error body shapes the API uses.
type errorPayload struct {
	Error  string `json:"error"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}
