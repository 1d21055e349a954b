package strategy

import (
	"math"

	"options-income/internal/models"
	"options-income/pkg/utils"
)

// Long-leg tolerances relative to the short-leg liquidity filters.
const (
	strikeTolerance    = 0.5
	longLegSpreadMult  = 1.5
	longLegOIMult      = 0.5
	shortLegSpreadMult = 1.0
)

// findCreditSpreads builds vertical credit spreads of option type t for
// strategy st. Put spreads buy the lower strike, call spreads the higher.
func findCreditSpreads(ctx *Context, st models.StrategyType, t models.OptionType) []models.StrategyCandidate {
	settings := ctx.Settings.Strategy(st)
	f := ctx.Settings.Liquidity
	underlying := ctx.Underlying()
	dte := ctx.DTE()
	side := ctx.Chain.Side(t)

	direction := -1.0
	if t == models.OptionCall {
		direction = 1.0
	}

	var out []models.StrategyCandidate
	for _, short := range side {
		if !short.IsOTM(underlying) || !inDeltaBand(&short, settings) {
			continue
		}
		if !passesLiquidity(&short, f, shortLegSpreadMult, 1, true) {
			continue
		}

		long := findLongLeg(side, short.Strike, direction, settings.SpreadWidth)
		if long == nil || !passesLiquidity(long, f, longLegSpreadMult, longLegOIMult, false) {
			continue
		}

		width := math.Abs(short.Strike - long.Strike)
		credit := (short.Mid() - long.Mid()) * 100
		if credit <= 0 || credit < settings.MinCredit || credit >= width*100 {
			continue
		}
		maxLoss := width*100 - credit
		if exceedsRiskCap(ctx.Settings, maxLoss) {
			continue
		}
		breakeven := short.Strike + direction*credit/100
		annualized := utils.Annualize(credit, maxLoss, dte)

		pop := defaultPOP
		if short.Greeks.Delta != nil {
			if t == models.OptionPut {
				pop = (1 - math.Abs(*short.Greeks.Delta)) * 100
			} else {
				pop = 100 - *short.Greeks.Delta*100
			}
		}

		c := models.StrategyCandidate{
			Strategy: st,
			Symbol:   ctx.Chain.Underlying,
			Legs: []models.OptionLeg{
				{Contract: short, Side: models.LegSell, Quantity: 1},
				{Contract: *long, Side: models.LegBuy, Quantity: 1},
			},
			NetCredit:       utils.RoundTo(credit, 2),
			DTE:             dte,
			Expiration:      ctx.Chain.Expiration,
			UnderlyingPrice: underlying,
			RiskBox: models.RiskBox{
				MaxProfit:           utils.RoundTo(credit, 2),
				MaxLoss:             utils.RoundTo(maxLoss, 2),
				Breakevens:          []float64{utils.RoundTo(breakeven, 4)},
				CapitalRequired:     utils.RoundTo(maxLoss, 2),
				AnnualizedReturn:    utils.RoundTo(annualized, 2),
				ReturnOnCapital:     utils.RoundTo(credit/maxLoss*100, 2),
				ProbabilityOfProfit: utils.RoundTo(pop, 2),
			},
		}

		buffer := otmPct(underlying, short.Strike)
		alignment := TrendAlignment(st, ctx.Signals.Trend)
		components := []models.ScoreComponent{
			component("premium_yield", annualized, 100, 0.20),
			component("liquidity", ctx.Signals.Liquidity.OverallScore, 100, 0.15),
			component("iv_rank", ivRankOr(ctx.Signals.IVRank, defaultIVRank), 100, 0.20),
			component("trend_alignment", alignment, 100, 0.15),
			component("strike_buffer", buffer, 10, 0.10),
			component("risk_reward", credit/maxLoss*100, 50, 0.20),
		}
		finish(ctx, &c, components, reasonInput{
			short:       &c.Legs[0].Contract,
			annualized:  annualized,
			minReturn:   minSpreadReturn,
			alignment:   alignment,
			maxLoss:     maxLoss,
			bufferPct:   buffer,
			minBuffer:   minStrikeBufferPct,
			bufferLabel: "strike_buffer",
		})
		out = append(out, c)
	}

	sortByScore(out)
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

// findLongLeg returns the contract nearest short+direction*width within
// strikeTolerance. Only strikes strictly beyond the short strike in the
// protective direction qualify.
func findLongLeg(side []models.OptionContract, short, direction, width float64) *models.OptionContract {
	target := short + direction*width
	var best *models.OptionContract
	bestDist := math.Inf(1)
	for i := range side {
		if (side[i].Strike-short)*direction <= 0 {
			continue
		}
		d := math.Abs(side[i].Strike - target)
		if d <= strikeTolerance && d < bestDist {
			best = &side[i]
			bestDist = d
		}
	}
	return best
}

// spreadShouldConsider applies the common gates and skips the trend that
// runs directly against the spread.
func spreadShouldConsider(ctx *Context, st models.StrategyType, avoid models.TrendCategory) bool {
	if !passesCommonGates(ctx, st) {
		return false
	}
	return ctx.Signals.Trend != avoid
}
