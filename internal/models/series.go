package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeriesPoint is one daily observation of a coin's market state.
type SeriesPoint struct {
	Date      time.Time       `json:"date"`
	Price     decimal.Decimal `json:"price"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Volume    decimal.Decimal `json:"volume"`
}

// CoinSeries holds the daily closing series for one coin in one quote
// currency, ordered oldest to newest.
type CoinSeries struct {
	CoinID     string        `json:"coin_id"`
	VsCurrency string        `json:"vs_currency"`
	Days       int           `json:"days"`
	Points     []SeriesPoint `json:"points"`
}

// Dates returns the observation dates in point order.
func (s *CoinSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// Prices returns the closing prices as float64 values in point order.
func (s *CoinSeries) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price.InexactFloat64()
	}
	return prices
}

// Len returns the number of observations in the series.
func (s *CoinSeries) Len() int {
	return len(s.Points)
}
