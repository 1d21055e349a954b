package models

import "time"

// TrendCategory classifies a trend score.
type TrendCategory string

const (
	TrendStrongUp   TrendCategory = "strong_uptrend"
	TrendUp         TrendCategory = "uptrend"
	TrendNeutral    TrendCategory = "neutral"
	TrendDown       TrendCategory = "downtrend"
	TrendStrongDown TrendCategory = "strong_downtrend"
)

// Valid reports whether t is a known trend category.
func (t TrendCategory) Valid() bool {
	switch t {
	case TrendStrongUp, TrendUp, TrendNeutral, TrendDown, TrendStrongDown:
		return true
	}
	return false
}

// IsUp reports whether t is an uptrend category.
func (t TrendCategory) IsUp() bool {
	return t == TrendUp || t == TrendStrongUp
}

// IsDown reports whether t is a downtrend category.
func (t TrendCategory) IsDown() bool {
	return t == TrendDown || t == TrendStrongDown
}

// VolatilityCategory classifies the volatility environment.
type VolatilityCategory string

const (
	VolLow      VolatilityCategory = "low"
	VolNormal   VolatilityCategory = "normal"
	VolElevated VolatilityCategory = "elevated"
	VolHigh     VolatilityCategory = "high"
	VolPanic    VolatilityCategory = "panic"
)

// Valid reports whether v is a known volatility category.
func (v VolatilityCategory) Valid() bool {
	switch v {
	case VolLow, VolNormal, VolElevated, VolHigh, VolPanic:
		return true
	}
	return false
}

// IsStressed reports whether v is high or panic.
func (v VolatilityCategory) IsStressed() bool {
	return v == VolHigh || v == VolPanic
}

// RiskPosture is the overall market risk posture.
type RiskPosture string

const (
	RiskOn      RiskPosture = "risk_on"
	RiskNeutral RiskPosture = "neutral"
	RiskOff     RiskPosture = "risk_off"
)

// BreadthAssessment classifies market participation.
type BreadthAssessment string

const (
	BreadthStrong   BreadthAssessment = "strong"
	BreadthHealthy  BreadthAssessment = "healthy"
	BreadthMixed    BreadthAssessment = "mixed"
	BreadthWeak     BreadthAssessment = "weak"
	BreadthVeryWeak BreadthAssessment = "very_weak"
)

// Valid reports whether b is a known breadth assessment.
func (b BreadthAssessment) Valid() bool {
	switch b {
	case BreadthStrong, BreadthHealthy, BreadthMixed, BreadthWeak, BreadthVeryWeak:
		return true
	}
	return false
}

// IsWeak reports whether b is weak or very weak.
func (b BreadthAssessment) IsWeak() bool {
	return b == BreadthWeak || b == BreadthVeryWeak
}

// BreadthData holds the breadth assessment and its underlying ratios.
type BreadthData struct {
	Assessment          BreadthAssessment `json:"assessment"`
	Advancing           int               `json:"advancing"`
	Declining           int               `json:"declining"`
	AdvanceDeclineRatio *float64          `json:"advance_decline_ratio,omitempty"`
	AboveMA50           int               `json:"above_ma50"`
	PercentAbove50MA    *float64          `json:"percent_above_50ma,omitempty"`
	Sampled             int               `json:"sampled"`
}

// SectorLeadership is one sector proxy's trend score.
type SectorLeadership struct {
	Symbol     string        `json:"symbol"`
	TrendScore float64       `json:"trend_score"`
	Trend      TrendCategory `json:"trend"`
}

// DataQuality records missing inputs behind a regime snapshot.
type DataQuality struct {
	IVRankMissing bool `json:"iv_rank_missing"`
}

// MarketRegime is the market-state snapshot shared by every symbol in a run.
// It is computed once per run and never mutated afterwards.
type MarketRegime struct {
	RunID       string             `json:"run_id"`
	Benchmark   string             `json:"benchmark"`
	AsOf        time.Time          `json:"as_of"`
	Trend       TrendCategory      `json:"trend"`
	TrendScore  float64            `json:"trend_score"`
	Volatility  VolatilityCategory `json:"volatility"`
	IVRank      *float64           `json:"iv_rank,omitempty"`
	RiskPosture RiskPosture        `json:"risk_posture"`
	Breadth     BreadthData        `json:"breadth"`
	Leadership  []SectorLeadership `json:"leadership,omitempty"`
	DataQuality DataQuality        `json:"data_quality"`
}

// LiquidityScores holds independent 0-100 liquidity sub-scores.
type LiquidityScores struct {
	VolumeScore           float64 `json:"volume_score"`
	OIScore               float64 `json:"oi_score"`
	SpreadScore           float64 `json:"spread_score"`
	OverallScore          float64 `json:"overall_score"`
	UnderlyingVolumeScore float64 `json:"underlying_volume_score"`
	MeetsMinimum          bool    `json:"meets_minimum"`
}

// EarningsProximity describes how close a symbol is to its next earnings.
type EarningsProximity struct {
	DaysToEarnings        *int `json:"days_to_earnings,omitempty"`
	WithinExclusionWindow bool `json:"within_exclusion_window"`
}

// SymbolSignals is the normalized signal bundle for one symbol.
// MA figures are zero when history was too short to compute them.
type SymbolSignals struct {
	Symbol       string             `json:"symbol"`
	Price        float64            `json:"price"`
	Trend        TrendCategory      `json:"trend"`
	TrendScore   float64            `json:"trend_score"`
	MA50         float64            `json:"ma50"`
	MA200        float64            `json:"ma200"`
	PctFromMA50  float64            `json:"pct_from_ma50"`
	PctFromMA200 float64            `json:"pct_from_ma200"`
	Volatility   VolatilityCategory `json:"volatility"`
	IVRank       *float64           `json:"iv_rank,omitempty"`
	Liquidity    LiquidityScores    `json:"liquidity"`
	Earnings     EarningsProximity  `json:"earnings"`
}
