package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-income/internal/models"
)

// closesToCandles builds a daily series from closing prices.
func closesToCandles(closes []float64) []models.Candle {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1_000_000,
		}
	}
	return candles
}

func flatSeries(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestSMA(t *testing.T) {
	candles := closesToCandles([]float64{1, 2, 3, 4, 5})

	got, err := NewSMA(3).Calculate(candles)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2, 3, 4}, got)

	_, err = NewSMA(10).Calculate(candles)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = NewSMA(0).Calculate(candles)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	assert.Nil(t, NewSMA(10).Last(candles))
	assert.InDelta(t, 4.0, *NewSMA(3).Last(candles), 1e-9)
}

func TestTrendScoreCaps(t *testing.T) {
	// Price 20% over both averages, 50-day 20% over 200-day: every term saturates.
	score := TrendScore(120, models.Float(100), models.Float(100))
	assert.InDelta(t, 60.0, score, 1e-9)

	score = TrendScore(144, models.Float(120), models.Float(100))
	assert.InDelta(t, 100.0, score, 1e-9)
	assert.Equal(t, models.TrendStrongUp, ClassifyTrend(score))

	// Missing averages contribute nothing.
	assert.Equal(t, 0.0, TrendScore(100, nil, nil))
	assert.InDelta(t, 6.0, TrendScore(102, models.Float(100), nil), 1e-9)
}

func TestClassifyTrendCutoffs(t *testing.T) {
	cases := []struct {
		score float64
		want  models.TrendCategory
	}{
		{51, models.TrendStrongUp},
		{50, models.TrendUp},
		{20.5, models.TrendUp},
		{20, models.TrendNeutral},
		{-19.9, models.TrendNeutral},
		{-20, models.TrendDown},
		{-50, models.TrendStrongDown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyTrend(tc.score), "score %v", tc.score)
	}
}

func TestReadTrendShortHistory(t *testing.T) {
	r := ReadTrend(105, closesToCandles(flatSeries(60, 100)))

	require.NotNil(t, r.MA50)
	assert.Nil(t, r.MA200)
	assert.InDelta(t, 5.0, *r.PctFromMA50, 1e-9)
	assert.Nil(t, r.PctFromMA200)
	assert.InDelta(t, 15.0, r.Score, 1e-9)
	assert.Equal(t, models.TrendNeutral, r.Category)
}

func TestClassifyVolatility(t *testing.T) {
	assert.Equal(t, models.VolPanic, ClassifyVolatility(&models.VolatilityData{IVRank: models.Float(80)}))
	assert.Equal(t, models.VolHigh, ClassifyVolatility(&models.VolatilityData{IVRank: models.Float(60)}))
	assert.Equal(t, models.VolElevated, ClassifyVolatility(&models.VolatilityData{IVRank: models.Float(45)}))
	assert.Equal(t, models.VolNormal, ClassifyVolatility(&models.VolatilityData{IVRank: models.Float(20)}))
	assert.Equal(t, models.VolLow, ClassifyVolatility(&models.VolatilityData{IVRank: models.Float(5)}))

	// Ratio fallback.
	assert.Equal(t, models.VolHigh, ClassifyVolatility(&models.VolatilityData{CurrentIV: 26, HV20: models.Float(20)}))
	assert.Equal(t, models.VolLow, ClassifyVolatility(&models.VolatilityData{CurrentIV: 17, HV20: models.Float(20)}))

	assert.Equal(t, models.VolNormal, ClassifyVolatility(&models.VolatilityData{CurrentIV: 30}))
	assert.Equal(t, models.VolNormal, ClassifyVolatility(nil))
}

func TestHistoricalVolatilityFlatSeries(t *testing.T) {
	hv := NewHistoricalVolatility(20, TradingDaysPerYear).Last(closesToCandles(flatSeries(30, 50)))
	require.NotNil(t, hv)
	assert.Equal(t, 0.0, *hv)
}

// Property: the trend score is bounded by the sum of the contribution caps.
func TestProperty_TrendScoreBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("trend score within [-100, 100]", prop.ForAll(
		func(price, ma50, ma200 float64) bool {
			s := TrendScore(price, &ma50, &ma200)
			return s >= -100 && s <= 100 && !math.IsNaN(s)
		},
		gen.Float64Range(1, 2000),
		gen.Float64Range(1, 2000),
		gen.Float64Range(1, 2000),
	))

	properties.Property("score and category agree", prop.ForAll(
		func(price, ma50, ma200 float64) bool {
			s := TrendScore(price, &ma50, &ma200)
			c := ClassifyTrend(s)
			if s > 20 {
				return c.IsUp()
			}
			if s <= -20 {
				return c.IsDown()
			}
			return c == models.TrendNeutral
		},
		gen.Float64Range(1, 2000),
		gen.Float64Range(1, 2000),
		gen.Float64Range(1, 2000),
	))

	properties.TestingRun(t)
}

// Property: historical volatility is never negative.
func TestProperty_HistoricalVolatilityNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("hv >= 0", prop.ForAll(
		func(closes []float64) bool {
			values, err := NewHistoricalVolatility(20, TradingDaysPerYear).Calculate(closesToCandles(closes))
			if err != nil {
				return len(closes) < 21
			}
			for _, v := range values {
				if v < 0 || math.IsNaN(v) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(10, 500)),
	))

	properties.TestingRun(t)
}
