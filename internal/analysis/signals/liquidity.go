package signals

import (
	"time"

	"options-income/internal/config"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// DefaultSpreadPct is assumed when no at-the-money contract is quoted.
const DefaultSpreadPct = 10.0

// Liquidity expiration window in days.
const (
	liquidityMinDTE = 21
	liquidityMaxDTE = 45
)

// LiquidityInput holds averaged at-the-money liquidity figures.
type LiquidityInput struct {
	OptionVolume     float64
	OpenInterest     float64
	SpreadPct        float64
	UnderlyingVolume float64
}

// ScoreLiquidity scores liquidity against the configured filters. Volume and
// open interest reach 100 at twice their minimum; spread loses 50 points per
// multiple of the maximum spread. A zero threshold scores 100.
func ScoreLiquidity(in LiquidityInput, f config.LiquidityFilters) models.LiquidityScores {
	volume := utils.CapScore(in.OptionVolume, 2*float64(f.MinOptionVolume))
	oi := utils.CapScore(in.OpenInterest, 2*float64(f.MinOptionOI))

	spread := 100.0
	if f.MaxBidAskSpreadPct > 0 {
		spread = utils.Clamp(100-in.SpreadPct/f.MaxBidAskSpreadPct*50, 0, 100)
	}

	return models.LiquidityScores{
		VolumeScore:           utils.RoundTo(volume, 2),
		OIScore:               utils.RoundTo(oi, 2),
		SpreadScore:           utils.RoundTo(spread, 2),
		OverallScore:          utils.RoundTo(0.3*volume+0.3*oi+0.4*spread, 2),
		UnderlyingVolumeScore: utils.RoundTo(utils.CapScore(in.UnderlyingVolume, float64(f.MinUnderlyingVolume)), 2),
		MeetsMinimum: in.OptionVolume >= float64(f.MinOptionVolume) &&
			in.OpenInterest >= float64(f.MinOptionOI) &&
			in.SpreadPct <= f.MaxBidAskSpreadPct,
	}
}

// LiquidityExpiration picks the first expiration with DTE in [21,45],
// falling back to the earliest one. ok is false for an empty list.
func LiquidityExpiration(asOf time.Time, expirations []time.Time) (exp time.Time, ok bool) {
	for _, e := range expirations {
		dte := utils.DaysToExpiration(asOf, e)
		if dte >= liquidityMinDTE && dte <= liquidityMaxDTE {
			return e, true
		}
	}
	for i, e := range expirations {
		if i == 0 || e.Before(exp) {
			exp = e
		}
	}
	return exp, len(expirations) > 0
}

// ATMLiquidity averages volume, open interest and spread of the put and call
// strikes nearest the underlying. A missing side uses the other side alone;
// a nil chain or empty chain yields zero volume and OI with the default spread.
func ATMLiquidity(chain *models.OptionChain, underlying float64) LiquidityInput {
	in := LiquidityInput{SpreadPct: DefaultSpreadPct}
	if chain == nil {
		return in
	}

	var atm []*models.OptionContract
	if put := chain.NearestStrike(models.OptionPut, underlying); put != nil {
		atm = append(atm, put)
	}
	if call := chain.NearestStrike(models.OptionCall, underlying); call != nil {
		atm = append(atm, call)
	}
	if len(atm) == 0 {
		return in
	}

	var vol, oi, spread float64
	for _, c := range atm {
		vol += float64(c.Volume)
		oi += float64(c.OpenInterest)
		spread += c.SpreadPct()
	}
	n := float64(len(atm))
	in.OptionVolume = vol / n
	in.OpenInterest = oi / n
	in.SpreadPct = spread / n
	return in
}

// EarningsProximity reports days until earningsDate and whether that falls in
// the exclusion window. A nil date yields the zero value.
func EarningsProximity(asOf time.Time, earningsDate *time.Time, windowDays int) models.EarningsProximity {
	if earningsDate == nil {
		return models.EarningsProximity{}
	}
	days := utils.DaysBetween(asOf, *earningsDate)
	return models.EarningsProximity{
		DaysToEarnings:        models.Int(days),
		WithinExclusionWindow: days >= 0 && days <= windowDays,
	}
}
