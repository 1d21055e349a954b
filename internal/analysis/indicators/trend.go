package indicators

import (
	"fmt"
	"math"

	"options-income/internal/models"
	"options-income/pkg/utils"
)

// SMA calculates Simple Moving Average of closes.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

// Calculate returns a series aligned with candles; values before the first
// full window are zero.
func (s *SMA) Calculate(candles []models.Candle) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(candles))
	closes := closePrices(candles)

	for i := s.period - 1; i < len(candles); i++ {
		result[i] = utils.Mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// Last returns the most recent SMA value, or nil with insufficient history.
func (s *SMA) Last(candles []models.Candle) *float64 {
	return LastValue(s, candles)
}

// Trend score contribution caps.
const (
	priceVsMA50Cap  = 30.0
	priceVsMA200Cap = 30.0
	ma50VsMA200Cap  = 40.0
)

// TrendScore combines price position against the 50- and 200-day averages
// and the 50/200 cross into a score in [-100, 100]. A missing average
// contributes zero to every term that needs it.
func TrendScore(price float64, ma50, ma200 *float64) float64 {
	var score float64
	if ma50 != nil && *ma50 > 0 {
		score += utils.Clamp(utils.PctDiff(price, *ma50)*3, -priceVsMA50Cap, priceVsMA50Cap)
	}
	if ma200 != nil && *ma200 > 0 {
		score += utils.Clamp(utils.PctDiff(price, *ma200)*2, -priceVsMA200Cap, priceVsMA200Cap)
	}
	if ma50 != nil && ma200 != nil && *ma200 > 0 {
		score += utils.Clamp(utils.PctDiff(*ma50, *ma200)*4, -ma50VsMA200Cap, ma50VsMA200Cap)
	}
	return math.Round(score*100) / 100
}

// ClassifyTrend maps a trend score to a category.
func ClassifyTrend(score float64) models.TrendCategory {
	switch {
	case score > 50:
		return models.TrendStrongUp
	case score > 20:
		return models.TrendUp
	case score > -20:
		return models.TrendNeutral
	case score > -50:
		return models.TrendDown
	default:
		return models.TrendStrongDown
	}
}

// TrendReading is the trend state of one instrument.
type TrendReading struct {
	Price        float64
	MA50         *float64
	MA200        *float64
	PctFromMA50  *float64
	PctFromMA200 *float64
	Score        float64
	Category     models.TrendCategory
}

// ReadTrend computes moving averages, distances and the trend score for a
// price against its daily history.
func ReadTrend(price float64, history []models.Candle) TrendReading {
	r := TrendReading{
		Price: price,
		MA50:  NewSMA(50).Last(history),
		MA200: NewSMA(200).Last(history),
	}
	if r.MA50 != nil && *r.MA50 > 0 {
		r.PctFromMA50 = models.Float(utils.RoundTo(utils.PctDiff(price, *r.MA50), 2))
	}
	if r.MA200 != nil && *r.MA200 > 0 {
		r.PctFromMA200 = models.Float(utils.RoundTo(utils.PctDiff(price, *r.MA200), 2))
	}
	r.Score = TrendScore(price, r.MA50, r.MA200)
	r.Category = ClassifyTrend(r.Score)
	return r
}
