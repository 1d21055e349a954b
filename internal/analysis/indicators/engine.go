// Package indicators provides technical indicator calculations over daily candles.
package indicators

import (
	"options-income/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

var (
	_ Indicator = (*SMA)(nil)
	_ Indicator = (*HistoricalVolatility)(nil)
)

// LastValue returns the most recent value of ind over candles, or nil when
// the history is too short.
func LastValue(ind Indicator, candles []models.Candle) *float64 {
	return last(ind.Calculate(candles))
}

// Snapshot holds the indicator readings the pipeline needs for one symbol.
type Snapshot struct {
	Trend TrendReading
	HV20  *float64
	HV50  *float64
}

// Compute reads trend and realized volatility for price against history.
func Compute(price float64, history []models.Candle) Snapshot {
	return Snapshot{
		Trend: ReadTrend(price, history),
		HV20:  LastValue(NewHistoricalVolatility(20, TradingDaysPerYear), history),
		HV50:  LastValue(NewHistoricalVolatility(50, TradingDaysPerYear), history),
	}
}
