// Package marketdata defines the market-data provider contract and its
// implementations: in-memory fixtures, a deterministic simulator, and
// caching and guarding decorators.
package marketdata

import (
	"context"
	"time"

	"options-income/internal/models"
)

// HistoryRange selects how much daily history to fetch.
type HistoryRange string

const (
	Range3Mo HistoryRange = "3mo"
	Range1Y  HistoryRange = "1y"
)

// Bars returns the number of daily bars the range covers.
func (r HistoryRange) Bars() int {
	switch r {
	case Range3Mo:
		return 63
	default:
		return 252
	}
}

// Provider supplies quotes, history, volatility and option chains.
// Implementations must be safe for concurrent use.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error)
	GetHistoricalPrices(ctx context.Context, symbol string, r HistoryRange) ([]models.Candle, error)
	GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error)
	GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*models.OptionChain, error)
	GetVolatilityData(ctx context.Context, symbol string) (*models.VolatilityData, error)
}

// sameDay reports whether a and b fall on the same calendar date.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
