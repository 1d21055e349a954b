package strategy

import (
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// CoveredCall sells an OTM call against 100 shares held.
type CoveredCall struct{}

// NewCoveredCall creates the covered call generator.
func NewCoveredCall() *CoveredCall { return &CoveredCall{} }

// Type implements Strategy.
func (s *CoveredCall) Type() models.StrategyType { return models.StrategyCoveredCall }

// ShouldConsider skips strong uptrends for conservative profiles, where
// capping the upside costs the most.
func (s *CoveredCall) ShouldConsider(ctx *Context) bool {
	if !passesCommonGates(ctx, s.Type()) {
		return false
	}
	if ctx.Signals.Trend == models.TrendStrongUp && ctx.RiskProfile == models.ProfileConservative {
		return false
	}
	return true
}

// FindCandidates implements Strategy. Max loss assumes the stock goes to zero.
func (s *CoveredCall) FindCandidates(ctx *Context) []models.StrategyCandidate {
	st := ctx.Settings.Strategy(s.Type())
	underlying := ctx.Underlying()
	dte := ctx.DTE()

	var out []models.StrategyCandidate
	for _, call := range selectSingleLeg(ctx, models.OptionCall, st) {
		mid := call.Mid()
		credit := mid * 100
		maxProfit := (call.Strike-underlying)*100 + credit
		maxLoss := underlying*100 - credit
		capital := underlying * 100
		annualized := utils.Annualize(credit, maxLoss, dte)

		pop := defaultPOP
		if call.Greeks.Delta != nil {
			pop = 100 - *call.Greeks.Delta*100
		}

		c := models.StrategyCandidate{
			Strategy:        s.Type(),
			Symbol:          ctx.Chain.Underlying,
			Legs:            []models.OptionLeg{{Contract: call, Side: models.LegSell, Quantity: 1}},
			NetCredit:       utils.RoundTo(credit, 2),
			DTE:             dte,
			Expiration:      ctx.Chain.Expiration,
			UnderlyingPrice: underlying,
			RiskBox: models.RiskBox{
				MaxProfit:           utils.RoundTo(maxProfit, 2),
				MaxLoss:             utils.RoundTo(maxLoss, 2),
				Breakevens:          []float64{utils.RoundTo(underlying-mid, 4)},
				CapitalRequired:     utils.RoundTo(capital, 2),
				AnnualizedReturn:    utils.RoundTo(annualized, 2),
				ReturnOnCapital:     utils.RoundTo(utils.SafeDiv(credit, capital)*100, 2),
				ProbabilityOfProfit: utils.RoundTo(pop, 2),
			},
		}

		buffer := otmPct(underlying, call.Strike)
		alignment := TrendAlignment(s.Type(), ctx.Signals.Trend)
		components := []models.ScoreComponent{
			component("premium_yield", annualized, 25, 0.25),
			component("liquidity", ctx.Signals.Liquidity.OverallScore, 100, 0.15),
			component("iv_rank", ivRankOr(ctx.Signals.IVRank, defaultIVRank), 100, 0.15),
			component("trend_alignment", alignment, 100, 0.15),
			component("assignment_safety", pop, 100, 0.15),
			component("upside_buffer", buffer, 8, 0.15),
		}
		finish(ctx, &c, components, reasonInput{
			short:       &c.Legs[0].Contract,
			annualized:  annualized,
			minReturn:   minSingleLegReturn,
			alignment:   alignment,
			maxLoss:     maxLoss,
			bufferPct:   buffer,
			minBuffer:   minUpsideBufferPct,
			bufferLabel: "upside_buffer",
		})
		out = append(out, c)
	}
	return out
}
