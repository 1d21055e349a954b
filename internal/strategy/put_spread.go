package strategy

import "options-income/internal/models"

// PutCreditSpread sells an OTM put and buys a lower-strike put.
type PutCreditSpread struct{}

// NewPutCreditSpread creates the put credit spread generator.
func NewPutCreditSpread() *PutCreditSpread { return &PutCreditSpread{} }

// Type implements Strategy.
func (s *PutCreditSpread) Type() models.StrategyType { return models.StrategyPutCreditSpread }

// ShouldConsider skips strong downtrends.
func (s *PutCreditSpread) ShouldConsider(ctx *Context) bool {
	return spreadShouldConsider(ctx, s.Type(), models.TrendStrongDown)
}

// FindCandidates returns the three best-scoring put spreads.
func (s *PutCreditSpread) FindCandidates(ctx *Context) []models.StrategyCandidate {
	return findCreditSpreads(ctx, s.Type(), models.OptionPut)
}
