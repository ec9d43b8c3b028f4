package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

// MockAPI implements coingecko.API for testing within the services
// package.
type MockAPI struct {
	mock.Mock
}

var _ coingecko.API = (*MockAPI)(nil)

func (m *MockAPI) Ping(ctx context.Context) (*coingecko.PingResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coingecko.PingResponse), args.Error(1)
}

func (m *MockAPI) ListCoinMarkets(ctx context.Context, vsCurrency string, perPage, page int) ([]coingecko.CoinMarket, error) {
	args := m.Called(ctx, vsCurrency, perPage, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]coingecko.CoinMarket), args.Error(1)
}

func (m *MockAPI) GetMarketChart(ctx context.Context, coinID, vsCurrency string, days int) (*coingecko.MarketChart, error) {
	args := m.Called(ctx, coinID, vsCurrency, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coingecko.MarketChart), args.Error(1)
}

func (m *MockAPI) GetMarketChartRaw(ctx context.Context, coinID, vsCurrency string, days int) ([]byte, error) {
	args := m.Called(ctx, coinID, vsCurrency, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
