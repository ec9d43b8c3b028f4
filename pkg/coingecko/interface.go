package coingecko

import "context"

// API defines the interface for CoinGecko HTTP operations
type API interface {
	// Health and status
	Ping(ctx context.Context) (*PingResponse, error)

	// Coin listings
	ListCoinMarkets(ctx context.Context, vsCurrency string, perPage, page int) ([]CoinMarket, error)

	// Market chart operations
	GetMarketChart(ctx context.Context, coinID, vsCurrency string, days int) (*MarketChart, error)
	GetMarketChartRaw(ctx context.Context, coinID, vsCurrency string, days int) ([]byte, error)
}

// Ensure the client satisfies the interface
var _ API = (*Client)(nil)
