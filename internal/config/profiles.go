package config

import (
	"math"

	"options-income/internal/models"
)

// profileAdjustment scales the risk caps and delta bands of a base settings block.
type profileAdjustment struct {
	riskScale     float64
	maxDeltaCap   float64
	maxDeltaShift float64
	minScale      float64
}

var profileAdjustments = map[models.RiskProfile]profileAdjustment{
	models.ProfileConservative: {riskScale: 0.6, maxDeltaCap: 0.25, minScale: 0.8},
	models.ProfileModerate:     {riskScale: 1.0},
	models.ProfileAggressive:   {riskScale: 1.5, maxDeltaCap: 0.50, maxDeltaShift: 0.10},
}

// SettingsForProfile returns a copy of base adjusted for the risk profile.
// Conservative tightens per-trade risk and delta bands; aggressive widens them.
// Unknown profiles return an unmodified copy.
func SettingsForProfile(base TradingSettings, profile models.RiskProfile) TradingSettings {
	out := base.Clone()
	adj, ok := profileAdjustments[profile]
	if !ok || profile == models.ProfileModerate {
		return out
	}

	out.MaxRiskPerTradePct = math.Min(100, base.MaxRiskPerTradePct*adj.riskScale)
	out.MaxTotalRiskPct = math.Min(100, base.MaxTotalRiskPct*adj.riskScale)

	for _, t := range []models.StrategyType{
		models.StrategyCashSecuredPut, models.StrategyCoveredCall,
		models.StrategyPutCreditSpread, models.StrategyCallCreditSpread,
	} {
		st := out.StrategyRef(t)
		maxDelta := st.MaxDelta + adj.maxDeltaShift
		if adj.maxDeltaCap > 0 {
			maxDelta = math.Min(maxDelta, adj.maxDeltaCap)
		}
		if adj.minScale > 0 {
			st.MinDelta *= adj.minScale
		}
		if maxDelta > st.MinDelta {
			st.MaxDelta = maxDelta
		}
	}
	return out
}
