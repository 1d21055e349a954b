package strategy

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-income/internal/marketdata/mdtest"
	"options-income/internal/models"
)

func cents(n int) float64 { return float64(n) / 100 }

func scoreMatchesComponents(c models.StrategyCandidate) bool {
	var total float64
	for _, sc := range c.ScoreComponents {
		total += sc.NormalizedScore * sc.Weight
	}
	return c.Score >= 0 && c.Score <= 100 && c.Score == int(math.Round(total))
}

// Property: every candidate's score is the rounded weighted component sum.
func TestProperty_ScoreIsWeightedSum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("single-leg score in [0,100] and equal to component sum", prop.ForAll(
		func(otm, bidCents, deltaPct, ivRank, dte int) bool {
			price := 100.0
			bid := cents(bidCents)
			ctx := newContext(t, price, dte,
				mdtest.Contract(models.OptionPut, price-float64(otm), bid, bid+0.05, -float64(deltaPct)/100, 500, 50),
				mdtest.Contract(models.OptionCall, price+float64(otm), bid, bid+0.05, float64(deltaPct)/100, 500, 50),
			)
			ctx.Signals.IVRank = models.Float(float64(ivRank))

			var all []models.StrategyCandidate
			all = append(all, NewCashSecuredPut().FindCandidates(ctx)...)
			all = append(all, NewCoveredCall().FindCandidates(ctx)...)
			for _, c := range all {
				if !scoreMatchesComponents(c) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(10, 800),
		gen.IntRange(15, 35),
		gen.IntRange(0, 100),
		gen.IntRange(21, 45),
	))

	properties.TestingRun(t)
}

// Property: credit spreads have positive max loss and a breakeven strictly
// between the strikes.
func TestProperty_SpreadRiskBox(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("put and call spreads are defined-risk", prop.ForAll(
		func(otm, shortBidCents, longBidCents int) bool {
			price := 100.0
			shortBid := cents(shortBidCents)
			longBid := cents(longBidCents)
			ctx := newContext(t, price, 32,
				mdtest.Contract(models.OptionPut, price-float64(otm), shortBid, shortBid+0.04, -0.25, 500, 50),
				mdtest.Contract(models.OptionPut, price-float64(otm)-5, longBid, longBid+0.04, -0.10, 500, 50),
				mdtest.Contract(models.OptionCall, price+float64(otm), shortBid, shortBid+0.04, 0.25, 500, 50),
				mdtest.Contract(models.OptionCall, price+float64(otm)+5, longBid, longBid+0.04, 0.10, 500, 50),
			)

			var all []models.StrategyCandidate
			all = append(all, NewPutCreditSpread().FindCandidates(ctx)...)
			all = append(all, NewCallCreditSpread().FindCandidates(ctx)...)
			for _, c := range all {
				if c.RiskBox.MaxLoss <= 0 || !scoreMatchesComponents(c) {
					return false
				}
				lo := math.Min(c.ShortLeg().Contract.Strike, c.LongLeg().Contract.Strike)
				hi := math.Max(c.ShortLeg().Contract.Strike, c.LongLeg().Contract.Strike)
				be := c.RiskBox.Breakevens[0]
				if be <= lo || be >= hi {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 15),
		gen.IntRange(50, 600),
		gen.IntRange(5, 300),
	))

	properties.TestingRun(t)
}
