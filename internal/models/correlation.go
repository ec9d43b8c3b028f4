package models

import (
	"fmt"
	"sort"
	"strings"
)

// CorrelationKind distinguishes which series the coefficients were
// computed over.
type CorrelationKind string

const (
	// PriceCorrelation correlates daily closing price levels.
	PriceCorrelation CorrelationKind = "price"
	// ReturnCorrelation correlates day-over-day percent changes.
	ReturnCorrelation CorrelationKind = "return"
)

// CorrelationPair is the Pearson correlation between two coins' series.
type CorrelationPair struct {
	Coin1       string  `json:"coin1"`
	Coin2       string  `json:"coin2"`
	Correlation float64 `json:"correlation"`
}

// CorrelationTable is the pairwise correlation result of one analysis
// run. Pairs follow the input coin order: for coins [a, b, c] the table
// holds (a,b), (a,c), (b,c).
type CorrelationTable struct {
	Kind  CorrelationKind   `json:"kind"`
	Pairs []CorrelationPair `json:"pairs"`
}

// SortByCorrelation reorders pairs from most to least correlated. Ties
// keep their original relative order.
func (t *CorrelationTable) SortByCorrelation() {
	sort.SliceStable(t.Pairs, func(i, j int) bool {
		return t.Pairs[i].Correlation > t.Pairs[j].Correlation
	})
}

// String renders the table one pair per line with four decimal places.
func (t *CorrelationTable) String() string {
	var b strings.Builder
	for _, p := range t.Pairs {
		fmt.Fprintf(&b, "%s/%s: %.4f\n", p.Coin1, p.Coin2, p.Correlation)
	}
	return b.String()
}
