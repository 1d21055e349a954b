package models

import "time"

// StrategyType identifies one of the options-income strategies.
type StrategyType string

const (
	StrategyCashSecuredPut   StrategyType = "cash_secured_put"
	StrategyCoveredCall      StrategyType = "covered_call"
	StrategyPutCreditSpread  StrategyType = "put_credit_spread"
	StrategyCallCreditSpread StrategyType = "call_credit_spread"
)

// Valid reports whether s is a known strategy.
func (s StrategyType) Valid() bool {
	switch s {
	case StrategyCashSecuredPut, StrategyCoveredCall, StrategyPutCreditSpread, StrategyCallCreditSpread:
		return true
	}
	return false
}

// IsSpread reports whether s is a two-leg credit spread.
func (s StrategyType) IsSpread() bool {
	return s == StrategyPutCreditSpread || s == StrategyCallCreditSpread
}

// RiskProfile is the risk-profile preset applied to a run.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "conservative"
	ProfileModerate     RiskProfile = "moderate"
	ProfileAggressive   RiskProfile = "aggressive"
)

// Valid reports whether p is a known risk profile.
func (p RiskProfile) Valid() bool {
	switch p {
	case ProfileConservative, ProfileModerate, ProfileAggressive:
		return true
	}
	return false
}

// RiskBox summarizes the profit/loss envelope of a candidate.
type RiskBox struct {
	MaxProfit           float64   `json:"max_profit"`
	MaxLoss             float64   `json:"max_loss"`
	Breakevens          []float64 `json:"breakevens"`
	CapitalRequired     float64   `json:"capital_required"`
	AnnualizedReturn    float64   `json:"annualized_return"`
	ReturnOnCapital     float64   `json:"return_on_capital"`
	ProbabilityOfProfit float64   `json:"probability_of_profit"`
}

// ReasonCategory groups audit-trail checks.
type ReasonCategory string

const (
	ReasonLiquidity ReasonCategory = "liquidity"
	ReasonSelection ReasonCategory = "selection"
	ReasonReturn    ReasonCategory = "return"
	ReasonMarket    ReasonCategory = "market"
	ReasonRisk      ReasonCategory = "risk"
)

// Reason is one weighted pass/fail check in a candidate's audit trail.
type Reason struct {
	Category     ReasonCategory `json:"category"`
	Check        string         `json:"check"`
	Passed       bool           `json:"passed"`
	Observed     string         `json:"observed"`
	Threshold    string         `json:"threshold"`
	Weight       float64        `json:"weight"`
	Contribution float64        `json:"contribution"`
}

// ScoreComponent is one named, normalized, weighted factor of a score.
type ScoreComponent struct {
	Name            string  `json:"name"`
	RawValue        float64 `json:"raw_value"`
	Denominator     float64 `json:"denominator"`
	NormalizedScore float64 `json:"normalized_score"`
	Weight          float64 `json:"weight"`
	WeightedScore   float64 `json:"weighted_score"`
}

// ConvictionMeter pairs confidence with uncertainty for a candidate.
type ConvictionMeter struct {
	Confidence  int      `json:"confidence"`
	Uncertainty int      `json:"uncertainty"`
	Factors     []string `json:"factors"`
}

// StrategyCandidate is a scored trade idea produced by one strategy generator.
type StrategyCandidate struct {
	Strategy        StrategyType     `json:"strategy"`
	Symbol          string           `json:"symbol"`
	Legs            []OptionLeg      `json:"legs"`
	NetCredit       float64          `json:"net_credit"`
	DTE             int              `json:"dte"`
	Expiration      time.Time        `json:"expiration"`
	UnderlyingPrice float64          `json:"underlying_price"`
	RiskBox         RiskBox          `json:"risk_box"`
	ExitRules       []string         `json:"exit_rules"`
	Invalidations   []string         `json:"invalidations"`
	Reasons         []Reason         `json:"reasons"`
	ScoreComponents []ScoreComponent `json:"score_components"`
	Score           int              `json:"score"`
	Conviction      ConvictionMeter  `json:"conviction"`
}

// ShortLeg returns the first sold leg, or nil.
func (c *StrategyCandidate) ShortLeg() *OptionLeg {
	for i := range c.Legs {
		if c.Legs[i].Side == LegSell {
			return &c.Legs[i]
		}
	}
	return nil
}

// LongLeg returns the first bought leg, or nil.
func (c *StrategyCandidate) LongLeg() *OptionLeg {
	for i := range c.Legs {
		if c.Legs[i].Side == LegBuy {
			return &c.Legs[i]
		}
	}
	return nil
}
