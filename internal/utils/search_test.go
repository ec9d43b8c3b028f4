package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearch(t *testing.T) {
	coins := []string{"bitcoin", "bitcoin-cash", "ethereum", "wrapped-bitcoin", "solana"}

	tests := []struct {
		name     string
		query    string
		exact    bool
		expected []string
	}{
		{
			name:     "substring match",
			query:    "bitcoin",
			expected: []string{"bitcoin", "bitcoin-cash", "wrapped-bitcoin"},
		},
		{
			name:     "case insensitive",
			query:    "BitCoin",
			expected: []string{"bitcoin", "bitcoin-cash", "wrapped-bitcoin"},
		},
		{
			name:     "exact match",
			query:    "bitcoin",
			exact:    true,
			expected: []string{"bitcoin"},
		},
		{
			name:     "exact match case insensitive",
			query:    "ETHEREUM",
			exact:    true,
			expected: []string{"ethereum"},
		},
		{
			name:     "no match",
			query:    "dogecoin",
			expected: []string{},
		},
		{
			name:     "empty query matches everything",
			query:    "",
			expected: coins,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Search(tt.query, coins, tt.exact))
		})
	}
}

func TestSearch_EmptyItems(t *testing.T) {
	assert.Empty(t, Search("bitcoin", nil, false))
}
