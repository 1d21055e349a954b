// Package ranking selects and orders trade packets. Every function is pure:
// it returns a new slice no longer than its input and never modifies packets.
package ranking

import (
	"sort"

	"options-income/internal/config"
	"options-income/internal/models"
)

// Defaults applied when an option is zero.
const (
	DefaultMinScore       = 40
	DefaultTopPerStrategy = 3
	DefaultMaxPerSymbol   = 2
)

// NoMinScore disables the score floor. A zero MinScore means the default.
const NoMinScore = -1

// Options are the ranking knobs for one run.
type Options struct {
	MinScore       int
	TopPerStrategy int
	MaxPerSymbol   int
}

// DefaultOptions returns the default ranking knobs.
func DefaultOptions() Options {
	return Options{
		MinScore:       DefaultMinScore,
		TopPerStrategy: DefaultTopPerStrategy,
		MaxPerSymbol:   DefaultMaxPerSymbol,
	}
}

// WithDefaults fills zero knobs with defaults. A negative MinScore turns the
// score floor off.
func (o Options) WithDefaults() Options {
	switch {
	case o.MinScore == 0:
		o.MinScore = DefaultMinScore
	case o.MinScore < 0:
		o.MinScore = 0
	}
	if o.TopPerStrategy == 0 {
		o.TopPerStrategy = DefaultTopPerStrategy
	}
	if o.MaxPerSymbol == 0 {
		o.MaxPerSymbol = DefaultMaxPerSymbol
	}
	return o
}

// SortByScore returns a copy of xs ordered by score descending. Equal scores
// keep their input order.
func SortByScore(xs []models.TradePacket) []models.TradePacket {
	out := make([]models.TradePacket, len(xs))
	copy(out, xs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}

// FilterByMinScore drops packets scoring below threshold.
func FilterByMinScore(xs []models.TradePacket, threshold int) []models.TradePacket {
	out := make([]models.TradePacket, 0, len(xs))
	for _, p := range xs {
		if p.Score() >= threshold {
			out = append(out, p)
		}
	}
	return out
}

// TopPerStrategy keeps the n best packets of each strategy and returns them
// merged and sorted by score.
func TopPerStrategy(xs []models.TradePacket, n int) []models.TradePacket {
	kept := make(map[models.StrategyType]int)
	out := make([]models.TradePacket, 0, len(xs))
	for _, p := range SortByScore(xs) {
		if kept[p.Strategy()] >= n {
			continue
		}
		kept[p.Strategy()]++
		out = append(out, p)
	}
	return out
}

// DiversifyBySymbol walks packets in score order keeping at most k per symbol.
func DiversifyBySymbol(xs []models.TradePacket, k int) []models.TradePacket {
	kept := make(map[string]int)
	out := make([]models.TradePacket, 0, len(xs))
	for _, p := range SortByScore(xs) {
		if kept[p.Symbol()] >= k {
			continue
		}
		kept[p.Symbol()]++
		out = append(out, p)
	}
	return out
}

// FilterByRiskBudget walks packets in score order, adding each whose max
// loss still fits the account's total risk budget and skipping the rest.
// This is a first-fit heuristic, not an optimal allocation.
func FilterByRiskBudget(xs []models.TradePacket, settings *config.TradingSettings) []models.TradePacket {
	budget := settings.MaxTotalRisk()
	var used float64
	out := make([]models.TradePacket, 0, len(xs))
	for _, p := range SortByScore(xs) {
		if used+p.MaxLoss() > budget {
			continue
		}
		used += p.MaxLoss()
		out = append(out, p)
	}
	return out
}

// ApplyAllFilters runs min score, top per strategy, symbol diversification
// and risk budget in that order, then assigns 1-based ranks.
func ApplyAllFilters(xs []models.TradePacket, opts Options, settings *config.TradingSettings) []models.TradePacket {
	opts = opts.WithDefaults()

	out := FilterByMinScore(xs, opts.MinScore)
	out = TopPerStrategy(out, opts.TopPerStrategy)
	out = DiversifyBySymbol(out, opts.MaxPerSymbol)
	out = FilterByRiskBudget(out, settings)

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
