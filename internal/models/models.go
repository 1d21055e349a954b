// Package models provides domain models for the options-income recommendation pipeline.
package models

import (
	"time"
)

// Candle represents one daily OHLCV record.
type Candle struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    int64     `json:"volume" yaml:"volume"`
}

// Quote represents a market quote snapshot for an underlying.
type Quote struct {
	Symbol        string    `json:"symbol" yaml:"symbol"`
	Last          float64   `json:"last" yaml:"last"`
	Bid           float64   `json:"bid" yaml:"bid"`
	Ask           float64   `json:"ask" yaml:"ask"`
	Open          float64   `json:"open" yaml:"open"`
	High          float64   `json:"high" yaml:"high"`
	Low           float64   `json:"low" yaml:"low"`
	Close         float64   `json:"close" yaml:"close"`
	PreviousClose float64   `json:"previous_close" yaml:"previous_close"`
	Volume        int64     `json:"volume" yaml:"volume"`
	AvgVolume     int64     `json:"avg_volume" yaml:"avg_volume"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
}

// IsAdvancing reports whether the last price is above the previous close.
func (q *Quote) IsAdvancing() bool {
	return q.PreviousClose > 0 && q.Last > q.PreviousClose
}

// IsDeclining reports whether the last price is below the previous close.
func (q *Quote) IsDeclining() bool {
	return q.PreviousClose > 0 && q.Last < q.PreviousClose
}

// VolatilityData holds implied and realized volatility metrics for a symbol.
// IV and HV figures are annualized percentages (28.5 means 28.5%).
// Optional figures are nil when the provider could not supply them.
type VolatilityData struct {
	Symbol       string   `json:"symbol" yaml:"symbol"`
	CurrentIV    float64  `json:"current_iv" yaml:"current_iv"`
	IVRank       *float64 `json:"iv_rank,omitempty" yaml:"iv_rank,omitempty"`
	IVPercentile *float64 `json:"iv_percentile,omitempty" yaml:"iv_percentile,omitempty"`
	HV20         *float64 `json:"hv20,omitempty" yaml:"hv20,omitempty"`
	HV50         *float64 `json:"hv50,omitempty" yaml:"hv50,omitempty"`
	VIX          *float64 `json:"vix,omitempty" yaml:"vix,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
