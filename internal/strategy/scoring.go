package strategy

import (
	"fmt"
	"math"
	"sort"

	"options-income/internal/config"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// Reason thresholds.
const (
	minAlignment       = 60.0
	minIVRank          = 30.0
	minStrikeBufferPct = 3.0
	minUpsideBufferPct = 2.0
	minSingleLegReturn = 10.0
	minSpreadReturn    = 25.0
	defaultIVRank      = 50.0
	defaultPOP         = 70.0
	managementDTE      = 21
	stopLossMultiple   = 2.0
)

// maxCandidates is the number of candidates each generator keeps.
const maxCandidates = 3

// trendAlignment scores 0-100 how well a trend suits each strategy's bias.
var trendAlignment = map[models.StrategyType]map[models.TrendCategory]float64{
	models.StrategyCashSecuredPut: {
		models.TrendStrongUp: 90, models.TrendUp: 100, models.TrendNeutral: 75,
		models.TrendDown: 35, models.TrendStrongDown: 10,
	},
	models.StrategyCoveredCall: {
		models.TrendStrongUp: 40, models.TrendUp: 80, models.TrendNeutral: 100,
		models.TrendDown: 55, models.TrendStrongDown: 25,
	},
	models.StrategyPutCreditSpread: {
		models.TrendStrongUp: 100, models.TrendUp: 100, models.TrendNeutral: 70,
		models.TrendDown: 30, models.TrendStrongDown: 0,
	},
	models.StrategyCallCreditSpread: {
		models.TrendStrongUp: 0, models.TrendUp: 30, models.TrendNeutral: 70,
		models.TrendDown: 100, models.TrendStrongDown: 100,
	},
}

// TrendAlignment returns the 0-100 alignment of trend with strategy t.
func TrendAlignment(t models.StrategyType, trend models.TrendCategory) float64 {
	return trendAlignment[t][trend]
}

func component(name string, raw, denominator, weight float64) models.ScoreComponent {
	normalized := utils.Normalize(raw, denominator)
	return models.ScoreComponent{
		Name:            name,
		RawValue:        utils.RoundTo(raw, 4),
		Denominator:     denominator,
		NormalizedScore: normalized,
		Weight:          weight,
		WeightedScore:   normalized * weight,
	}
}

// FinalScore sums weighted component scores and rounds to an integer in [0,100].
func FinalScore(components []models.ScoreComponent) int {
	var total float64
	for _, c := range components {
		total += c.NormalizedScore * c.Weight
	}
	return int(utils.Clamp(float64(utils.Round(total)), 0, 100))
}

func ivRankOr(ivRank *float64, fallback float64) float64 {
	if ivRank == nil {
		return fallback
	}
	return *ivRank
}

// reasonInput carries the figures the audit trail checks.
type reasonInput struct {
	short       *models.OptionContract
	annualized  float64
	minReturn   float64
	alignment   float64
	maxLoss     float64
	bufferPct   float64
	minBuffer   float64
	bufferLabel string
}

func buildReasons(ctx *Context, st config.StrategySettings, in reasonInput) []models.Reason {
	f := ctx.Settings.Liquidity
	delta, hasDelta := in.short.AbsDelta()
	spread := in.short.SpreadPct()
	riskPct := utils.SafeDiv(in.maxLoss, ctx.Settings.AccountSize) * 100

	reasons := []models.Reason{
		reason(models.ReasonLiquidity, "open_interest", 0.15,
			in.short.OpenInterest >= f.MinOptionOI,
			fmt.Sprintf("%d", in.short.OpenInterest), fmt.Sprintf(">= %d", f.MinOptionOI)),
		reason(models.ReasonLiquidity, "bid_ask_spread", 0.10,
			spread <= f.MaxBidAskSpreadPct,
			fmt.Sprintf("%.1f%%", spread), fmt.Sprintf("<= %.1f%%", f.MaxBidAskSpreadPct)),
		reason(models.ReasonSelection, "delta_target", 0.15,
			hasDelta && delta >= st.MinDelta && delta <= st.MaxDelta,
			deltaObserved(delta, hasDelta), fmt.Sprintf("%.2f-%.2f", st.MinDelta, st.MaxDelta)),
		reason(models.ReasonReturn, "annualized_return", 0.15,
			in.annualized >= in.minReturn,
			fmt.Sprintf("%.1f%%", in.annualized), fmt.Sprintf(">= %.1f%%", in.minReturn)),
		reason(models.ReasonMarket, "trend_alignment", 0.15,
			in.alignment >= minAlignment,
			fmt.Sprintf("%s (%.0f)", ctx.Signals.Trend, in.alignment), fmt.Sprintf(">= %.0f", minAlignment)),
		reason(models.ReasonMarket, "iv_rank", 0.10,
			ctx.Signals.IVRank != nil && *ctx.Signals.IVRank >= minIVRank,
			ivRankObserved(ctx.Signals.IVRank), fmt.Sprintf(">= %.0f", minIVRank)),
		reason(models.ReasonRisk, "per_trade_risk", 0.10,
			riskPct <= ctx.Settings.MaxRiskPerTradePct,
			fmt.Sprintf("%.1f%%", riskPct), fmt.Sprintf("<= %.1f%%", ctx.Settings.MaxRiskPerTradePct)),
		reason(models.ReasonRisk, in.bufferLabel, 0.10,
			in.bufferPct >= in.minBuffer,
			fmt.Sprintf("%.1f%%", in.bufferPct), fmt.Sprintf(">= %.1f%%", in.minBuffer)),
	}
	return reasons
}

func reason(cat models.ReasonCategory, check string, weight float64, passed bool, observed, threshold string) models.Reason {
	r := models.Reason{
		Category:  cat,
		Check:     check,
		Passed:    passed,
		Observed:  observed,
		Threshold: threshold,
		Weight:    weight,
	}
	if passed {
		r.Contribution = weight
	}
	return r
}

func deltaObserved(delta float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", delta)
}

func ivRankObserved(ivRank *float64) string {
	if ivRank == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *ivRank)
}

// earningsBeforeExpiration reports whether known earnings fall inside the
// trade's life.
func earningsBeforeExpiration(ctx *Context, dte int) bool {
	d := ctx.Signals.Earnings.DaysToEarnings
	return d != nil && *d >= 0 && *d <= dte
}

// buildConviction blends pass rate, liquidity and IV rank into confidence.
// Earnings add uncertainty when the symbol is inside the exclusion window or
// reports before expiration; after the common gates only the second can
// still be true.
func buildConviction(ctx *Context, reasons []models.Reason, pop float64, dte int) models.ConvictionMeter {
	passed := 0
	for _, r := range reasons {
		if r.Passed {
			passed++
		}
	}
	passRate := utils.SafeDiv(float64(passed), float64(len(reasons)))
	liquidity := ctx.Signals.Liquidity.OverallScore
	ivRank := ivRankOr(ctx.Signals.IVRank, defaultIVRank)

	confidence := utils.Clamp(float64(utils.Round(0.5*passRate*100+0.3*liquidity+0.2*ivRank)), 0, 100)

	earnings := ctx.Signals.Earnings.WithinExclusionWindow || earningsBeforeExpiration(ctx, dte)
	uncertainty := 0
	if earnings {
		uncertainty += 20
	}
	if ctx.Signals.Volatility.IsStressed() {
		uncertainty += 20
	}
	if liquidity < 50 {
		uncertainty += 15
	}
	if ctx.Regime != nil && ctx.Regime.Breadth.Assessment.IsWeak() {
		uncertainty += 15
	}
	if uncertainty > 100 {
		uncertainty = 100
	}

	factors := []string{}
	if r := ctx.Signals.IVRank; r != nil {
		switch {
		case *r >= 50:
			factors = append(factors, "elevated IV rank supports premium")
		case *r < 20:
			factors = append(factors, "low IV rank limits premium")
		}
	} else {
		factors = append(factors, "IV rank unavailable")
	}
	switch {
	case liquidity >= 80:
		factors = append(factors, "deep option liquidity")
	case liquidity < 50:
		factors = append(factors, "thin option liquidity")
	}
	if pop >= 75 {
		factors = append(factors, "high probability of profit")
	}
	if earnings {
		factors = append(factors, "earnings before expiration")
	}
	if ctx.Regime != nil {
		switch ctx.Regime.RiskPosture {
		case models.RiskOn:
			factors = append(factors, "market risk-on")
		case models.RiskOff:
			factors = append(factors, "market risk-off")
		}
		if ctx.Regime.Breadth.Assessment.IsWeak() {
			factors = append(factors, "weak market breadth")
		}
	}

	return models.ConvictionMeter{
		Confidence:  int(confidence),
		Uncertainty: uncertainty,
		Factors:     factors,
	}
}

func exitRules(t models.StrategyType, st config.StrategySettings, credit float64) []string {
	rules := []string{
		fmt.Sprintf("Take profit at %.0f%% of credit (%s)", st.ProfitTargetPct, utils.FormatCurrency(credit*st.ProfitTargetPct/100)),
		fmt.Sprintf("Close or roll at %d DTE", managementDTE),
	}
	switch t {
	case models.StrategyCashSecuredPut:
		rules = append(rules, "Roll down and out if the underlying closes below the short strike")
	case models.StrategyCoveredCall:
		rules = append(rules, "Roll up and out if the underlying closes above the call strike")
	default:
		rules = append(rules, fmt.Sprintf("Stop out if the spread costs %.0fx the credit (%s) to close",
			stopLossMultiple, utils.FormatCurrency(credit*stopLossMultiple)))
	}
	return rules
}

func invalidations(ctx *Context, t models.StrategyType, breakeven float64, dte int) []string {
	var out []string
	switch t {
	case models.StrategyCallCreditSpread:
		out = append(out,
			fmt.Sprintf("Underlying closes above breakeven %s", utils.FormatCurrency(breakeven)),
			fmt.Sprintf("Trend turns %s", models.TrendStrongUp))
	case models.StrategyCoveredCall:
		out = append(out,
			fmt.Sprintf("Underlying closes below breakeven %s", utils.FormatCurrency(breakeven)),
			fmt.Sprintf("Trend turns %s", models.TrendStrongDown))
	default:
		out = append(out,
			fmt.Sprintf("Underlying closes below breakeven %s", utils.FormatCurrency(breakeven)),
			fmt.Sprintf("Trend turns %s", models.TrendStrongDown))
	}
	if earningsBeforeExpiration(ctx, dte) {
		out = append(out, fmt.Sprintf("Earnings in %d days, before expiration", *ctx.Signals.Earnings.DaysToEarnings))
	} else {
		out = append(out, "Earnings announced before expiration")
	}
	return out
}

// finish fills scoring, reasons, conviction and trade management on c.
func finish(ctx *Context, c *models.StrategyCandidate, components []models.ScoreComponent, in reasonInput) {
	st := ctx.Settings.Strategy(c.Strategy)
	c.ScoreComponents = components
	c.Score = FinalScore(components)
	c.Reasons = buildReasons(ctx, st, in)
	c.Conviction = buildConviction(ctx, c.Reasons, c.RiskBox.ProbabilityOfProfit, c.DTE)
	c.ExitRules = exitRules(c.Strategy, st, c.NetCredit)
	c.Invalidations = invalidations(ctx, c.Strategy, c.RiskBox.Breakevens[0], c.DTE)
}

// exceedsRiskCap reports whether maxLoss breaches the per-trade risk cap.
func exceedsRiskCap(s *config.TradingSettings, maxLoss float64) bool {
	return maxLoss/s.AccountSize*100 > s.MaxRiskPerTradePct
}

// inDeltaBand reports whether c has a delta whose magnitude lies in the band.
func inDeltaBand(c *models.OptionContract, st config.StrategySettings) bool {
	d, ok := c.AbsDelta()
	return ok && d >= st.MinDelta && d <= st.MaxDelta
}

// passesLiquidity applies per-contract liquidity thresholds scaled by
// spreadMult and oiMult. Volume is only required when requireVolume is set.
func passesLiquidity(c *models.OptionContract, f config.LiquidityFilters, spreadMult, oiMult float64, requireVolume bool) bool {
	if c.SpreadPct() > f.MaxBidAskSpreadPct*spreadMult {
		return false
	}
	if float64(c.OpenInterest) < float64(f.MinOptionOI)*oiMult {
		return false
	}
	if requireVolume && c.Volume < f.MinOptionVolume {
		return false
	}
	return true
}

// sortByScore orders candidates by score descending, keeping input order on ties.
func sortByScore(xs []models.StrategyCandidate) {
	sort.SliceStable(xs, func(i, j int) bool { return xs[i].Score > xs[j].Score })
}

func otmPct(underlying, strike float64) float64 {
	if underlying <= 0 {
		return 0
	}
	return math.Abs(underlying-strike) / underlying * 100
}
