package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CoinSelection describes which coins an analysis run covers: either an
// explicit list of CoinGecko coin IDs, or the current top N coins by
// market capitalization.
type CoinSelection struct {
	IDs      []string `json:"ids,omitempty"`
	TopLimit int      `json:"top_limit,omitempty"`
}

// ExplicitSelection pins the run to the given coin IDs.
func ExplicitSelection(ids ...string) CoinSelection {
	return CoinSelection{IDs: ids}
}

// TopSelection covers the top n coins by market capitalization at the
// time the selection is resolved.
func TopSelection(n int) CoinSelection {
	return CoinSelection{TopLimit: n}
}

// IsTop reports whether the selection must be resolved against the
// market-cap ranking instead of an explicit ID list.
func (s CoinSelection) IsTop() bool {
	return s.TopLimit > 0
}

// DisplayName renders a CoinGecko coin ID as a human-readable name,
// e.g. "staked-ether" becomes "Staked Ether".
func DisplayName(coinID string) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(coinID, "-", " "))
}
