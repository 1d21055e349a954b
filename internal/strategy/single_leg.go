package strategy

import (
	"sort"

	"options-income/internal/config"
	"options-income/internal/models"
)

// minSingleLegMid is the smallest mid price worth selling.
const minSingleLegMid = 0.10

// selectSingleLeg returns up to three OTM contracts of type t in the delta
// band that pass liquidity, richest mid first, one per strike.
func selectSingleLeg(ctx *Context, t models.OptionType, st config.StrategySettings) []models.OptionContract {
	underlying := ctx.Underlying()
	f := ctx.Settings.Liquidity

	var pool []models.OptionContract
	for _, c := range ctx.Chain.Side(t) {
		if !c.IsOTM(underlying) || !inDeltaBand(&c, st) {
			continue
		}
		if !passesLiquidity(&c, f, 1, 1, true) {
			continue
		}
		if c.Mid() < minSingleLegMid {
			continue
		}
		pool = append(pool, c)
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Mid() > pool[j].Mid() })

	out := make([]models.OptionContract, 0, maxCandidates)
	seen := make(map[float64]bool, maxCandidates)
	for _, c := range pool {
		if seen[c.Strike] {
			continue
		}
		seen[c.Strike] = true
		out = append(out, c)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}
