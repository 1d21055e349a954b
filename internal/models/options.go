package models

import (
	"math"
	"time"
)

// OptionType is the right of an option contract.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// LegSide is the side of an option leg.
type LegSide string

const (
	LegSell LegSide = "sell"
	LegBuy  LegSide = "buy"
)

// Greeks represents option Greeks. Each value is optional.
type Greeks struct {
	Delta *float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	Theta *float64 `json:"theta,omitempty" yaml:"theta,omitempty"`
	Vega  *float64 `json:"vega,omitempty" yaml:"vega,omitempty"`
}

// OptionContract represents a single listed option.
type OptionContract struct {
	Symbol            string     `json:"symbol" yaml:"symbol"`
	Underlying        string     `json:"underlying" yaml:"underlying"`
	Expiration        time.Time  `json:"expiration" yaml:"expiration"`
	Strike            float64    `json:"strike" yaml:"strike"`
	Type              OptionType `json:"type" yaml:"type"`
	Bid               float64    `json:"bid" yaml:"bid"`
	Ask               float64    `json:"ask" yaml:"ask"`
	Last              float64    `json:"last" yaml:"last"`
	Volume            int64      `json:"volume" yaml:"volume"`
	OpenInterest      int64      `json:"open_interest" yaml:"open_interest"`
	ImpliedVolatility float64    `json:"implied_volatility" yaml:"implied_volatility"` // decimal, 0.28 = 28%
	Greeks            Greeks     `json:"greeks" yaml:"greeks"`
	InTheMoney        bool       `json:"in_the_money" yaml:"in_the_money"`
}

// Mid returns the bid/ask midpoint, falling back to whichever side is quoted.
func (c *OptionContract) Mid() float64 {
	switch {
	case c.Bid > 0 && c.Ask > 0:
		return (c.Bid + c.Ask) / 2
	case c.Ask > 0:
		return c.Ask
	case c.Bid > 0:
		return c.Bid
	default:
		return c.Last
	}
}

// SpreadPct returns the bid/ask spread as a percentage of the midpoint.
// An unquoted contract reports 100.
func (c *OptionContract) SpreadPct() float64 {
	mid := c.Mid()
	if mid <= 0 || c.Ask <= 0 || c.Bid <= 0 {
		return 100
	}
	return (c.Ask - c.Bid) / mid * 100
}

// AbsDelta returns |delta| and whether delta was available.
func (c *OptionContract) AbsDelta() (float64, bool) {
	if c.Greeks.Delta == nil {
		return 0, false
	}
	return math.Abs(*c.Greeks.Delta), true
}

// IsOTM reports whether the contract is out of the money against price.
func (c *OptionContract) IsOTM(underlying float64) bool {
	if c.Type == OptionPut {
		return c.Strike < underlying
	}
	return c.Strike > underlying
}

// OptionChain holds one expiration of an underlying's chain.
// Calls and Puts are sorted by strike ascending.
type OptionChain struct {
	Underlying      string           `json:"underlying" yaml:"underlying"`
	Expiration      time.Time        `json:"expiration" yaml:"expiration"`
	UnderlyingPrice float64          `json:"underlying_price" yaml:"underlying_price"`
	Calls           []OptionContract `json:"calls" yaml:"calls"`
	Puts            []OptionContract `json:"puts" yaml:"puts"`
}

// Side returns the contracts of the given type.
func (oc *OptionChain) Side(t OptionType) []OptionContract {
	if t == OptionPut {
		return oc.Puts
	}
	return oc.Calls
}

// NearestStrike returns the contract on side t whose strike is closest to
// target, or nil if the side is empty. Ties keep the lower strike.
func (oc *OptionChain) NearestStrike(t OptionType, target float64) *OptionContract {
	side := oc.Side(t)
	var best *OptionContract
	bestDist := math.Inf(1)
	for i := range side {
		d := math.Abs(side[i].Strike - target)
		if d < bestDist {
			bestDist = d
			best = &side[i]
		}
	}
	return best
}

// OptionLeg represents a leg of a candidate position.
type OptionLeg struct {
	Contract OptionContract `json:"contract"`
	Side     LegSide        `json:"side"`
	Quantity int            `json:"quantity"`
}
