package strategy

import (
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// CashSecuredPut sells an OTM put secured by cash for assignment.
type CashSecuredPut struct{}

// NewCashSecuredPut creates the cash-secured put generator.
func NewCashSecuredPut() *CashSecuredPut { return &CashSecuredPut{} }

// Type implements Strategy.
func (s *CashSecuredPut) Type() models.StrategyType { return models.StrategyCashSecuredPut }

// ShouldConsider skips strong downtrends unless the profile is aggressive.
func (s *CashSecuredPut) ShouldConsider(ctx *Context) bool {
	if !passesCommonGates(ctx, s.Type()) {
		return false
	}
	if ctx.Signals.Trend == models.TrendStrongDown && ctx.RiskProfile != models.ProfileAggressive {
		return false
	}
	return true
}

// FindCandidates implements Strategy.
func (s *CashSecuredPut) FindCandidates(ctx *Context) []models.StrategyCandidate {
	st := ctx.Settings.Strategy(s.Type())
	underlying := ctx.Underlying()
	dte := ctx.DTE()

	var out []models.StrategyCandidate
	for _, put := range selectSingleLeg(ctx, models.OptionPut, st) {
		mid := put.Mid()
		credit := mid * 100
		maxLoss := (put.Strike - mid) * 100
		if exceedsRiskCap(ctx.Settings, maxLoss) {
			continue
		}
		capital := put.Strike * 100
		annualized := utils.Annualize(credit, maxLoss, dte)

		pop := defaultPOP
		if d, ok := put.AbsDelta(); ok {
			pop = (1 - d) * 100
		}

		c := models.StrategyCandidate{
			Strategy:        s.Type(),
			Symbol:          ctx.Chain.Underlying,
			Legs:            []models.OptionLeg{{Contract: put, Side: models.LegSell, Quantity: 1}},
			NetCredit:       utils.RoundTo(credit, 2),
			DTE:             dte,
			Expiration:      ctx.Chain.Expiration,
			UnderlyingPrice: underlying,
			RiskBox: models.RiskBox{
				MaxProfit:           utils.RoundTo(credit, 2),
				MaxLoss:             utils.RoundTo(maxLoss, 2),
				Breakevens:          []float64{utils.RoundTo(put.Strike-mid, 4)},
				CapitalRequired:     utils.RoundTo(capital, 2),
				AnnualizedReturn:    utils.RoundTo(annualized, 2),
				ReturnOnCapital:     utils.RoundTo(credit/capital*100, 2),
				ProbabilityOfProfit: utils.RoundTo(pop, 2),
			},
		}

		buffer := otmPct(underlying, put.Strike)
		alignment := TrendAlignment(s.Type(), ctx.Signals.Trend)
		components := []models.ScoreComponent{
			component("premium_yield", annualized, 30, 0.25),
			component("liquidity", ctx.Signals.Liquidity.OverallScore, 100, 0.15),
			component("iv_rank", ivRankOr(ctx.Signals.IVRank, defaultIVRank), 100, 0.15),
			component("trend_alignment", alignment, 100, 0.15),
			component("assignment_safety", pop, 100, 0.15),
			component("strike_buffer", buffer, 10, 0.15),
		}
		finish(ctx, &c, components, reasonInput{
			short:       &c.Legs[0].Contract,
			annualized:  annualized,
			minReturn:   minSingleLegReturn,
			alignment:   alignment,
			maxLoss:     maxLoss,
			bufferPct:   buffer,
			minBuffer:   minStrikeBufferPct,
			bufferLabel: "strike_buffer",
		})
		out = append(out, c)
	}
	return out
}
