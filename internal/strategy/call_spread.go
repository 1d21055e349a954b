package strategy

import "options-income/internal/models"

// CallCreditSpread sells an OTM call and buys a higher-strike call.
type CallCreditSpread struct{}

// NewCallCreditSpread creates the call credit spread generator.
func NewCallCreditSpread() *CallCreditSpread { return &CallCreditSpread{} }

// Type implements Strategy.
func (s *CallCreditSpread) Type() models.StrategyType { return models.StrategyCallCreditSpread }

// ShouldConsider skips strong uptrends.
func (s *CallCreditSpread) ShouldConsider(ctx *Context) bool {
	return spreadShouldConsider(ctx, s.Type(), models.TrendStrongUp)
}

// FindCandidates returns the three best-scoring call spreads.
func (s *CallCreditSpread) FindCandidates(ctx *Context) []models.StrategyCandidate {
	return findCreditSpreads(ctx, s.Type(), models.OptionCall)
}
