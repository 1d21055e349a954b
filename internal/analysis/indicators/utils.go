package indicators

import (
	"errors"

	"options-income/internal/models"
)

var (
	// ErrInsufficientData is returned when there's not enough data for calculation.
	ErrInsufficientData = errors.New("insufficient data for calculation")
	// ErrInvalidPeriod is returned when the period is invalid.
	ErrInvalidPeriod = errors.New("invalid period")
)

// closePrices extracts close prices from candles.
func closePrices(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// last returns the final element of a calculated series, or nil when the
// series could not be computed.
func last(values []float64, err error) *float64 {
	if err != nil || len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	return &v
}
