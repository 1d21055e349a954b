package indicators

import (
	"fmt"
	"math"

	"options-income/internal/models"
	"options-income/pkg/utils"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// HistoricalVolatility calculates annualized close-to-close volatility in percent.
type HistoricalVolatility struct {
	period      int
	tradingDays int
}

// NewHistoricalVolatility creates a new Historical Volatility indicator.
func NewHistoricalVolatility(period, tradingDays int) *HistoricalVolatility {
	return &HistoricalVolatility{
		period:      period,
		tradingDays: tradingDays,
	}
}

func (h *HistoricalVolatility) Name() string {
	return fmt.Sprintf("HistoricalVolatility_%d", h.period)
}

func (h *HistoricalVolatility) Period() int {
	return h.period
}

func (h *HistoricalVolatility) Calculate(candles []models.Candle) ([]float64, error) {
	if h.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < h.period+1 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	result := make([]float64, n)
	closes := closePrices(candles)

	logReturns := make([]float64, n)
	for i := 1; i < n; i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			logReturns[i] = math.Log(closes[i] / closes[i-1])
		}
	}

	annualizationFactor := math.Sqrt(float64(h.tradingDays))
	for i := h.period; i < n; i++ {
		window := logReturns[i-h.period+1 : i+1]
		result[i] = utils.StdDev(window) * annualizationFactor * 100
	}

	return result, nil
}

// Last returns the most recent value, or nil with insufficient history.
func (h *HistoricalVolatility) Last(candles []models.Candle) *float64 {
	return LastValue(h, candles)
}

// ClassifyVolatility maps volatility data to a category. IV rank wins when
// present; otherwise the IV/HV20 ratio is used; otherwise normal.
func ClassifyVolatility(v *models.VolatilityData) models.VolatilityCategory {
	if v == nil {
		return models.VolNormal
	}
	if v.IVRank != nil {
		rank := *v.IVRank
		switch {
		case rank >= 80:
			return models.VolPanic
		case rank >= 60:
			return models.VolHigh
		case rank >= 40:
			return models.VolElevated
		case rank >= 20:
			return models.VolNormal
		default:
			return models.VolLow
		}
	}
	if v.HV20 != nil && *v.HV20 > 0 && v.CurrentIV > 0 {
		ratio := v.CurrentIV / *v.HV20
		switch {
		case ratio >= 1.5:
			return models.VolPanic
		case ratio >= 1.3:
			return models.VolHigh
		case ratio >= 1.1:
			return models.VolElevated
		case ratio >= 0.9:
			return models.VolNormal
		default:
			return models.VolLow
		}
	}
	return models.VolNormal
}
