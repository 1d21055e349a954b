// Package strategy generates scored options-income candidates for one
// symbol and one expiration.
package strategy

import (
	"slices"
	"time"

	"options-income/internal/config"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// Strategy is one candidate generator.
type Strategy interface {
	// Type returns the strategy's identifier.
	Type() models.StrategyType

	// ShouldConsider reports whether the strategy applies to the context at all.
	ShouldConsider(ctx *Context) bool

	// FindCandidates returns scored candidates. It assumes ShouldConsider
	// returned true and never returns an error; unusable contracts are skipped.
	FindCandidates(ctx *Context) []models.StrategyCandidate
}

// Context bundles the inputs for one symbol and one expiration.
// All fields are read-only.
type Context struct {
	Quote       *models.Quote
	Chain       *models.OptionChain
	Signals     *models.SymbolSignals
	Regime      *models.MarketRegime
	Settings    *config.TradingSettings
	RiskProfile models.RiskProfile
	AsOf        time.Time
}

// Underlying returns the last trade, falling back to the chain's reference price.
func (c *Context) Underlying() float64 {
	if c.Quote != nil && c.Quote.Last > 0 {
		return c.Quote.Last
	}
	return c.Chain.UnderlyingPrice
}

// DTE returns calendar days from AsOf to the chain's expiration.
func (c *Context) DTE() int {
	return utils.DaysToExpiration(c.AsOf, c.Chain.Expiration)
}

// All returns every strategy in evaluation order.
func All() []Strategy {
	return []Strategy{
		NewCashSecuredPut(),
		NewCoveredCall(),
		NewPutCreditSpread(),
		NewCallCreditSpread(),
	}
}

// ByType returns the strategy for t.
func ByType(t models.StrategyType) (Strategy, bool) {
	for _, s := range All() {
		if s.Type() == t {
			return s, true
		}
	}
	return nil, false
}

// passesCommonGates applies the checks every strategy shares: enabled,
// liquidity gate, earnings window, DTE range and the configured allow-lists.
func passesCommonGates(ctx *Context, t models.StrategyType) bool {
	st := ctx.Settings.Strategy(t)
	if !st.Enabled {
		return false
	}
	if !ctx.Signals.Liquidity.MeetsMinimum {
		return false
	}
	if ctx.Signals.Earnings.WithinExclusionWindow {
		return false
	}
	dte := ctx.DTE()
	if dte < st.MinDTE || dte > st.MaxDTE {
		return false
	}
	if len(st.PreferredTrends) > 0 && !slices.Contains(st.PreferredTrends, ctx.Signals.Trend) {
		return false
	}
	if len(st.PreferredVolatility) > 0 && !slices.Contains(st.PreferredVolatility, ctx.Signals.Volatility) {
		return false
	}
	return true
}
