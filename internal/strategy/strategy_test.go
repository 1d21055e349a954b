package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-income/internal/config"
	"options-income/internal/marketdata/mdtest"
	"options-income/internal/models"
)

var asOf = time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC)

func testSettings(t *testing.T) *config.TradingSettings {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return &cfg.Trading
}

func testSignals(symbol string, price float64) *models.SymbolSignals {
	return &models.SymbolSignals{
		Symbol:     symbol,
		Price:      price,
		Trend:      models.TrendUp,
		TrendScore: 35,
		Volatility: models.VolElevated,
		IVRank:     models.Float(45),
		Liquidity: models.LiquidityScores{
			VolumeScore:  75,
			OIScore:      100,
			SpreadScore:  75,
			OverallScore: 82.5,
			MeetsMinimum: true,
		},
	}
}

func testRegime() *models.MarketRegime {
	return &models.MarketRegime{
		Trend:       models.TrendUp,
		Volatility:  models.VolNormal,
		RiskPosture: models.RiskOn,
		Breadth:     models.BreadthData{Assessment: models.BreadthHealthy},
	}
}

func newContext(t *testing.T, price float64, dte int, contracts ...models.OptionContract) *Context {
	t.Helper()
	chain := mdtest.Chain("AAPL", price, asOf.AddDate(0, 0, dte), contracts...)
	return &Context{
		Quote:       &models.Quote{Symbol: "AAPL", Last: price, PreviousClose: price},
		Chain:       &chain,
		Signals:     testSignals("AAPL", price),
		Regime:      testRegime(),
		Settings:    testSettings(t),
		RiskProfile: models.ProfileModerate,
		AsOf:        asOf,
	}
}

func TestAllOrder(t *testing.T) {
	var types []models.StrategyType
	for _, s := range All() {
		types = append(types, s.Type())
	}
	assert.Equal(t, []models.StrategyType{
		models.StrategyCashSecuredPut,
		models.StrategyCoveredCall,
		models.StrategyPutCreditSpread,
		models.StrategyCallCreditSpread,
	}, types)

	s, ok := ByType(models.StrategyCallCreditSpread)
	require.True(t, ok)
	assert.IsType(t, &CallCreditSpread{}, s)
}

func TestCashSecuredPutExample(t *testing.T) {
	ctx := newContext(t, 242.85, 32,
		mdtest.Contract(models.OptionPut, 235, 2.10, 2.20, -0.25, 500, 50),
	)
	csp := NewCashSecuredPut()
	require.True(t, csp.ShouldConsider(ctx))

	got := csp.FindCandidates(ctx)
	require.Len(t, got, 1)
	c := got[0]

	assert.Equal(t, models.StrategyCashSecuredPut, c.Strategy)
	assert.Equal(t, "AAPL", c.Symbol)
	assert.Equal(t, 32, c.DTE)
	assert.InDelta(t, 215.0, c.NetCredit, 1e-9)
	assert.InDelta(t, 23285.0, c.RiskBox.MaxLoss, 1e-9)
	assert.InDelta(t, 215.0, c.RiskBox.MaxProfit, 1e-9)
	require.Len(t, c.RiskBox.Breakevens, 1)
	assert.InDelta(t, 232.85, c.RiskBox.Breakevens[0], 1e-9)
	assert.InDelta(t, 23500.0, c.RiskBox.CapitalRequired, 1e-9)
	assert.InDelta(t, 10.5, c.RiskBox.AnnualizedReturn, 0.05)
	assert.InDelta(t, 75.0, c.RiskBox.ProbabilityOfProfit, 1e-9)

	require.Len(t, c.ScoreComponents, 6)
	assert.Equal(t, 59, c.Score)
	assert.Equal(t, FinalScore(c.ScoreComponents), c.Score)

	require.Len(t, c.Reasons, 8)
	for _, r := range c.Reasons {
		assert.True(t, r.Passed, r.Check)
		assert.Equal(t, r.Weight, r.Contribution)
	}
	assert.Equal(t, 84, c.Conviction.Confidence)
	assert.Equal(t, 0, c.Conviction.Uncertainty)
	assert.Contains(t, c.Conviction.Factors, "deep option liquidity")
	assert.Contains(t, c.Conviction.Factors, "market risk-on")

	assert.Contains(t, c.ExitRules[0], "50%")
	assert.Contains(t, c.Invalidations[0], "$232.85")
}

func TestCashSecuredPutRiskCap(t *testing.T) {
	ctx := newContext(t, 242.85, 32,
		mdtest.Contract(models.OptionPut, 235, 2.10, 2.20, -0.25, 500, 50),
	)
	ctx.Settings.AccountSize = 50000

	assert.Empty(t, NewCashSecuredPut().FindCandidates(ctx))
}

func TestCashSecuredPutSelection(t *testing.T) {
	ctx := newContext(t, 100, 30,
		mdtest.Contract(models.OptionPut, 99, 2.50, 2.60, -0.45, 500, 50), // delta out of band
		mdtest.Contract(models.OptionPut, 97, 1.80, 1.90, -0.33, 500, 50),
		mdtest.Contract(models.OptionPut, 96, 1.50, 1.60, -0.30, 500, 50),
		mdtest.Contract(models.OptionPut, 95, 1.20, 1.30, -0.25, 500, 50),
		mdtest.Contract(models.OptionPut, 94, 1.00, 1.10, -0.22, 20, 50),   // thin OI
		mdtest.Contract(models.OptionPut, 93, 0.80, 0.90, -0.18, 500, 50),
		mdtest.Contract(models.OptionPut, 92, 0.40, 0.80, -0.16, 500, 50),  // wide spread
		mdtest.Contract(models.OptionPut, 105, 5.50, 5.60, -0.30, 500, 50), // ITM
	)

	got := NewCashSecuredPut().FindCandidates(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, 97.0, got[0].Legs[0].Contract.Strike)
	assert.Equal(t, 96.0, got[1].Legs[0].Contract.Strike)
	assert.Equal(t, 95.0, got[2].Legs[0].Contract.Strike)
}

func TestCoveredCall(t *testing.T) {
	ctx := newContext(t, 100, 32,
		mdtest.Contract(models.OptionCall, 105, 1.00, 1.10, 0.25, 500, 50),
	)
	cc := NewCoveredCall()
	require.True(t, cc.ShouldConsider(ctx))

	got := cc.FindCandidates(ctx)
	require.Len(t, got, 1)
	c := got[0]
	assert.InDelta(t, 105.0, c.NetCredit, 1e-9)
	assert.InDelta(t, 605.0, c.RiskBox.MaxProfit, 1e-9)
	assert.InDelta(t, 9895.0, c.RiskBox.MaxLoss, 1e-9)
	assert.InDelta(t, 98.95, c.RiskBox.Breakevens[0], 1e-9)
	assert.InDelta(t, 10000.0, c.RiskBox.CapitalRequired, 1e-9)
	assert.InDelta(t, 75.0, c.RiskBox.ProbabilityOfProfit, 1e-9)
	assert.Equal(t, "upside_buffer", c.ScoreComponents[5].Name)
	assert.Equal(t, FinalScore(c.ScoreComponents), c.Score)
}

func TestPutCreditSpread(t *testing.T) {
	ctx := newContext(t, 100, 32,
		mdtest.Contract(models.OptionPut, 95, 1.48, 1.52, -0.25, 500, 50),
		mdtest.Contract(models.OptionPut, 90, 0.48, 0.52, -0.10, 60, 0),
	)
	pcs := NewPutCreditSpread()
	require.True(t, pcs.ShouldConsider(ctx))

	got := pcs.FindCandidates(ctx)
	require.Len(t, got, 1)
	c := got[0]

	require.Len(t, c.Legs, 2)
	assert.Equal(t, models.LegSell, c.ShortLeg().Side)
	assert.Equal(t, 95.0, c.ShortLeg().Contract.Strike)
	assert.Equal(t, 90.0, c.LongLeg().Contract.Strike)
	assert.InDelta(t, 100.0, c.NetCredit, 1e-9)
	assert.InDelta(t, 400.0, c.RiskBox.MaxLoss, 1e-9)
	assert.InDelta(t, 400.0, c.RiskBox.CapitalRequired, 1e-9)
	assert.InDelta(t, 94.0, c.RiskBox.Breakevens[0], 1e-9)
	assert.InDelta(t, 75.0, c.RiskBox.ProbabilityOfProfit, 1e-9)
	assert.Equal(t, "risk_reward", c.ScoreComponents[5].Name)
	assert.InDelta(t, 25.0, c.ScoreComponents[5].RawValue, 1e-9)
	assert.Contains(t, c.ExitRules[2], "$200.00")
}

func TestCallCreditSpread(t *testing.T) {
	ctx := newContext(t, 100, 32,
		mdtest.Contract(models.OptionCall, 105, 1.48, 1.52, 0.25, 500, 50),
		mdtest.Contract(models.OptionCall, 110, 0.48, 0.52, 0.10, 60, 0),
	)
	ctx.Signals.Trend = models.TrendDown

	ccs := NewCallCreditSpread()
	require.True(t, ccs.ShouldConsider(ctx))

	got := ccs.FindCandidates(ctx)
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, 110.0, c.LongLeg().Contract.Strike)
	assert.InDelta(t, 106.0, c.RiskBox.Breakevens[0], 1e-9)
	assert.InDelta(t, 400.0, c.RiskBox.MaxLoss, 1e-9)
	assert.InDelta(t, 75.0, c.RiskBox.ProbabilityOfProfit, 1e-9)
	assert.Contains(t, c.Invalidations[0], "above breakeven")
}

func TestCreditSpreadDiscards(t *testing.T) {
	t.Run("below minimum credit", func(t *testing.T) {
		ctx := newContext(t, 100, 32,
			mdtest.Contract(models.OptionPut, 95, 1.50, 1.60, -0.25, 500, 50),
			mdtest.Contract(models.OptionPut, 90, 1.10, 1.20, -0.18, 500, 50),
		)
		assert.Empty(t, NewPutCreditSpread().FindCandidates(ctx))
	})

	t.Run("no long leg at width", func(t *testing.T) {
		ctx := newContext(t, 100, 32,
			mdtest.Contract(models.OptionPut, 95, 1.50, 1.60, -0.25, 500, 50),
			mdtest.Contract(models.OptionPut, 92, 0.50, 0.60, -0.12, 500, 50),
		)
		assert.Empty(t, NewPutCreditSpread().FindCandidates(ctx))
	})

	t.Run("long leg too thin", func(t *testing.T) {
		ctx := newContext(t, 100, 32,
			mdtest.Contract(models.OptionPut, 95, 1.50, 1.60, -0.25, 500, 50),
			mdtest.Contract(models.OptionPut, 90, 0.48, 0.52, -0.10, 40, 0),
		)
		assert.Empty(t, NewPutCreditSpread().FindCandidates(ctx))
	})

	t.Run("long leg within tolerance", func(t *testing.T) {
		ctx := newContext(t, 100, 32,
			mdtest.Contract(models.OptionPut, 95, 1.50, 1.60, -0.25, 500, 50),
			mdtest.Contract(models.OptionPut, 89.5, 0.48, 0.52, -0.10, 500, 50),
		)
		got := NewPutCreditSpread().FindCandidates(ctx)
		require.Len(t, got, 1)
		assert.Equal(t, 89.5, got[0].LongLeg().Contract.Strike)
		assert.InDelta(t, 445.0, got[0].RiskBox.MaxLoss, 1e-9)
	})

	t.Run("risk cap", func(t *testing.T) {
		ctx := newContext(t, 100, 32,
			mdtest.Contract(models.OptionPut, 95, 1.50, 1.60, -0.25, 500, 50),
			mdtest.Contract(models.OptionPut, 90, 0.48, 0.52, -0.10, 60, 0),
		)
		ctx.Settings.AccountSize = 1000
		assert.Empty(t, NewPutCreditSpread().FindCandidates(ctx))
	})
}

func TestCreditSpreadKeepsTopThreeByScore(t *testing.T) {
	var contracts []models.OptionContract
	for i, strike := range []float64{80, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92, 93, 94} {
		delta := -0.05 - 0.02*float64(i)
		bid := 0.20 + 0.15*float64(i)
		contracts = append(contracts, mdtest.Contract(models.OptionPut, strike, bid, bid+0.05, delta, 500, 50))
	}
	ctx := newContext(t, 100, 32, contracts...)

	got := NewPutCreditSpread().FindCandidates(ctx)
	require.Len(t, got, 3)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
	assert.GreaterOrEqual(t, got[1].Score, got[2].Score)
}

func TestShouldConsiderGates(t *testing.T) {
	base := func(t *testing.T) *Context { return newContext(t, 100, 32) }

	tests := []struct {
		name   string
		mutate func(*Context)
		typ    models.StrategyType
		want   bool
	}{
		{"all pass", func(*Context) {}, models.StrategyCashSecuredPut, true},
		{"disabled", func(c *Context) { c.Settings.Strategies.CashSecuredPut.Enabled = false }, models.StrategyCashSecuredPut, false},
		{"illiquid", func(c *Context) { c.Signals.Liquidity.MeetsMinimum = false }, models.StrategyCoveredCall, false},
		{"earnings window", func(c *Context) { c.Signals.Earnings.WithinExclusionWindow = true }, models.StrategyPutCreditSpread, false},
		{"dte outside range", func(c *Context) { c.AsOf = asOf.AddDate(0, 0, 20) }, models.StrategyCashSecuredPut, false},
		{"trend not preferred", func(c *Context) {
			c.Settings.Strategies.CashSecuredPut.PreferredTrends = []models.TrendCategory{models.TrendNeutral}
		}, models.StrategyCashSecuredPut, false},
		{"csp strong downtrend moderate", func(c *Context) { c.Signals.Trend = models.TrendStrongDown }, models.StrategyCashSecuredPut, false},
		{"csp strong downtrend aggressive", func(c *Context) {
			c.Signals.Trend = models.TrendStrongDown
			c.RiskProfile = models.ProfileAggressive
		}, models.StrategyCashSecuredPut, true},
		{"cc strong uptrend conservative", func(c *Context) {
			c.Signals.Trend = models.TrendStrongUp
			c.RiskProfile = models.ProfileConservative
		}, models.StrategyCoveredCall, false},
		{"cc strong uptrend moderate", func(c *Context) { c.Signals.Trend = models.TrendStrongUp }, models.StrategyCoveredCall, true},
		{"pcs strong downtrend", func(c *Context) { c.Signals.Trend = models.TrendStrongDown }, models.StrategyPutCreditSpread, false},
		{"ccs strong uptrend", func(c *Context) { c.Signals.Trend = models.TrendStrongUp }, models.StrategyCallCreditSpread, false},
		{"spread low volatility", func(c *Context) { c.Signals.Volatility = models.VolLow }, models.StrategyCallCreditSpread, false},
		{"spread panic volatility", func(c *Context) { c.Signals.Volatility = models.VolPanic }, models.StrategyPutCreditSpread, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := base(t)
			tt.mutate(ctx)
			s, ok := ByType(tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.ShouldConsider(ctx))
		})
	}
}

func TestConvictionUncertainty(t *testing.T) {
	ctx := newContext(t, 242.85, 32,
		mdtest.Contract(models.OptionPut, 235, 2.10, 2.20, -0.25, 500, 50),
	)
	ctx.Signals.Volatility = models.VolPanic
	ctx.Signals.Liquidity.OverallScore = 40
	ctx.Signals.Earnings = models.EarningsProximity{DaysToEarnings: models.Int(20)}
	ctx.Signals.IVRank = nil
	ctx.Regime.Breadth.Assessment = models.BreadthVeryWeak

	got := NewCashSecuredPut().FindCandidates(ctx)
	require.Len(t, got, 1)
	conv := got[0].Conviction

	assert.Equal(t, 70, conv.Uncertainty)
	assert.Contains(t, conv.Factors, "thin option liquidity")
	assert.Contains(t, conv.Factors, "earnings before expiration")
	assert.Contains(t, conv.Factors, "weak market breadth")
	assert.Contains(t, conv.Factors, "IV rank unavailable")

	// The IV rank check fails without data and the default of 50 feeds confidence.
	passed := 0
	for _, r := range got[0].Reasons {
		if r.Passed {
			passed++
		}
	}
	assert.Equal(t, 7, passed)
	want := int(0.5*float64(passed)/8*100 + 0.3*40 + 0.2*50 + 0.5)
	assert.Equal(t, want, conv.Confidence)
	assert.Contains(t, got[0].Invalidations[2], "Earnings in 20 days")
}

func TestFindLongLegSkipsShortStrike(t *testing.T) {
	side := []models.OptionContract{
		mdtest.Contract(models.OptionPut, 94.5, 1.00, 1.10, -0.22, 500, 50),
		mdtest.Contract(models.OptionPut, 95, 1.50, 1.60, -0.25, 500, 50),
		mdtest.Contract(models.OptionPut, 95.5, 1.80, 1.90, -0.28, 500, 50),
	}

	assert.Nil(t, findLongLeg(side[1:2], 95, -1, 0.25))

	long := findLongLeg(side, 95, -1, 0.25)
	require.NotNil(t, long)
	assert.Equal(t, 94.5, long.Strike)

	long = findLongLeg(side, 95, 1, 0.25)
	require.NotNil(t, long)
	assert.Equal(t, 95.5, long.Strike)
}
