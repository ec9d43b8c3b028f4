package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/irfndi/coincorr-go/internal/models"
	"github.com/irfndi/coincorr-go/internal/utils"
	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

// Selector resolves a coin selection into concrete CoinGecko coin IDs.
// Top-N resolutions hit the markets endpoint and are memoized per UTC
// calendar day and limit, so repeated runs on the same day reuse the
// same ranking.
type Selector struct {
	api        coingecko.API
	vsCurrency string

	mu       sync.Mutex
	topIDs   []string
	topDay   time.Time
	topLimit int
}

// NewSelector creates a selector backed by the given API client.
func NewSelector(api coingecko.API, vsCurrency string) *Selector {
	return &Selector{
		api:        api,
		vsCurrency: vsCurrency,
	}
}

// Resolve returns the coin IDs covered by sel. Explicit selections are
// stripped of blank entries and deduplicated while keeping their order;
// top selections query the market-cap ranking.
func (s *Selector) Resolve(ctx context.Context, sel models.CoinSelection) ([]string, error) {
	if sel.IsTop() {
		return s.resolveTop(ctx, sel.TopLimit)
	}

	seen := make(map[string]bool, len(sel.IDs))
	ids := make([]string, 0, len(sel.IDs))
	for _, id := range sel.IDs {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, utils.NewValidationError("no valid coin IDs provided")
	}
	return ids, nil
}

func (s *Selector) resolveTop(ctx context.Context, limit int) ([]string, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	s.mu.Lock()
	if s.topIDs != nil && s.topLimit == limit && s.topDay.Equal(today) {
		ids := append([]string(nil), s.topIDs...)
		s.mu.Unlock()
		return ids, nil
	}
	s.mu.Unlock()

	markets, err := s.api.ListCoinMarkets(ctx, s.vsCurrency, limit, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to list top %d coins: %w", limit, err)
	}

	ids := make([]string, 0, len(markets))
	for _, market := range markets {
		if market.ID != "" {
			ids = append(ids, market.ID)
		}
	}
	if len(ids) == 0 {
		return nil, utils.NewValidationErrorf("top %d listing returned no coins", limit)
	}

	s.mu.Lock()
	s.topIDs = ids
	s.topDay = today
	s.topLimit = limit
	s.mu.Unlock()

	return append([]string(nil), ids...), nil
}
