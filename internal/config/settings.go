package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"options-income/internal/models"
)

// TradingSettings holds global risk limits, liquidity filters and
// per-strategy blocks. It is read-only for the duration of a run.
type TradingSettings struct {
	AccountSize           float64             `mapstructure:"account_size" json:"account_size" default:"100000" validate:"gt=0"`
	MaxRiskPerTradePct    float64             `mapstructure:"max_risk_per_trade_pct" json:"max_risk_per_trade_pct" default:"30" validate:"gt=0,lte=100"`
	MaxTotalRiskPct       float64             `mapstructure:"max_total_risk_pct" json:"max_total_risk_pct" default:"60" validate:"gt=0,lte=100"`
	EarningsExclusionDays int                 `mapstructure:"earnings_exclusion_days" json:"earnings_exclusion_days" default:"7" validate:"gte=0"`
	Liquidity             LiquidityFilters    `mapstructure:"liquidity" json:"liquidity"`
	Strategies            StrategySettingsSet `mapstructure:"strategies" json:"strategies"`
}

// LiquidityFilters are the minimum liquidity requirements.
type LiquidityFilters struct {
	MinUnderlyingVolume int64   `mapstructure:"min_underlying_volume" json:"min_underlying_volume" default:"1000000" validate:"gte=0"`
	MinOptionOI         int64   `mapstructure:"min_option_oi" json:"min_option_oi" default:"100" validate:"gte=0"`
	MinOptionVolume     int64   `mapstructure:"min_option_volume" json:"min_option_volume" default:"10" validate:"gte=0"`
	MaxBidAskSpreadPct  float64 `mapstructure:"max_bid_ask_spread_pct" json:"max_bid_ask_spread_pct" default:"10" validate:"gt=0"`
}

// StrategySettings configures one strategy. SpreadWidth and MinCredit only
// apply to the credit spreads.
type StrategySettings struct {
	Enabled             bool                        `mapstructure:"enabled" json:"enabled"`
	MinDTE              int                         `mapstructure:"min_dte" json:"min_dte" validate:"gte=0,ltefield=MaxDTE"`
	MaxDTE              int                         `mapstructure:"max_dte" json:"max_dte" validate:"gte=1"`
	MinDelta            float64                     `mapstructure:"min_delta" json:"min_delta" validate:"gte=0,ltfield=MaxDelta"`
	MaxDelta            float64                     `mapstructure:"max_delta" json:"max_delta" validate:"gt=0,lt=1"`
	ProfitTargetPct     float64                     `mapstructure:"profit_target_pct" json:"profit_target_pct" validate:"gt=0,lte=100"`
	SpreadWidth         float64                     `mapstructure:"spread_width" json:"spread_width,omitempty" validate:"gte=0"`
	MinCredit           float64                     `mapstructure:"min_credit" json:"min_credit,omitempty" validate:"gte=0"`
	PreferredTrends     []models.TrendCategory      `mapstructure:"preferred_trends" json:"preferred_trends,omitempty" validate:"dive,oneof=strong_uptrend uptrend neutral downtrend strong_downtrend"`
	PreferredVolatility []models.VolatilityCategory `mapstructure:"preferred_volatility" json:"preferred_volatility,omitempty" validate:"dive,oneof=low normal elevated high panic"`
}

// StrategySettingsSet holds one block per strategy.
type StrategySettingsSet struct {
	CashSecuredPut   StrategySettings `mapstructure:"cash_secured_put" json:"cash_secured_put"`
	CoveredCall      StrategySettings `mapstructure:"covered_call" json:"covered_call"`
	PutCreditSpread  StrategySettings `mapstructure:"put_credit_spread" json:"put_credit_spread"`
	CallCreditSpread StrategySettings `mapstructure:"call_credit_spread" json:"call_credit_spread"`
}

// SetDefaults fills per-strategy defaults. It is invoked by defaults.Set.
func (s *StrategySettingsSet) SetDefaults() {
	if s.CashSecuredPut.MaxDTE == 0 {
		s.CashSecuredPut = StrategySettings{
			Enabled: true, MinDTE: 21, MaxDTE: 45,
			MinDelta: 0.15, MaxDelta: 0.35, ProfitTargetPct: 50,
		}
	}
	if s.CoveredCall.MaxDTE == 0 {
		s.CoveredCall = StrategySettings{
			Enabled: true, MinDTE: 21, MaxDTE: 45,
			MinDelta: 0.15, MaxDelta: 0.35, ProfitTargetPct: 50,
		}
	}
	if s.PutCreditSpread.MaxDTE == 0 {
		s.PutCreditSpread = StrategySettings{
			Enabled: true, MinDTE: 21, MaxDTE: 45,
			MinDelta: 0.15, MaxDelta: 0.30, ProfitTargetPct: 50,
			SpreadWidth: 5, MinCredit: 50,
			PreferredVolatility: []models.VolatilityCategory{models.VolNormal, models.VolElevated, models.VolHigh},
		}
	}
	if s.CallCreditSpread.MaxDTE == 0 {
		s.CallCreditSpread = StrategySettings{
			Enabled: true, MinDTE: 21, MaxDTE: 45,
			MinDelta: 0.15, MaxDelta: 0.30, ProfitTargetPct: 50,
			SpreadWidth: 5, MinCredit: 50,
			PreferredVolatility: []models.VolatilityCategory{models.VolNormal, models.VolElevated, models.VolHigh},
		}
	}
}

// Strategy returns the settings block for t.
func (s *TradingSettings) Strategy(t models.StrategyType) StrategySettings {
	switch t {
	case models.StrategyCashSecuredPut:
		return s.Strategies.CashSecuredPut
	case models.StrategyCoveredCall:
		return s.Strategies.CoveredCall
	case models.StrategyPutCreditSpread:
		return s.Strategies.PutCreditSpread
	case models.StrategyCallCreditSpread:
		return s.Strategies.CallCreditSpread
	}
	return StrategySettings{}
}

// StrategyRef returns a pointer to the settings block for t, or nil.
func (s *TradingSettings) StrategyRef(t models.StrategyType) *StrategySettings {
	switch t {
	case models.StrategyCashSecuredPut:
		return &s.Strategies.CashSecuredPut
	case models.StrategyCoveredCall:
		return &s.Strategies.CoveredCall
	case models.StrategyPutCreditSpread:
		return &s.Strategies.PutCreditSpread
	case models.StrategyCallCreditSpread:
		return &s.Strategies.CallCreditSpread
	}
	return nil
}

// MaxTotalRisk returns the dollar risk budget for a run.
func (s *TradingSettings) MaxTotalRisk() float64 {
	return s.AccountSize * s.MaxTotalRiskPct / 100
}

// DTEWindow returns the widest [min,max] DTE range across enabled strategies.
// ok is false when no strategy is enabled.
func (s *TradingSettings) DTEWindow() (minDTE, maxDTE int, ok bool) {
	for _, t := range []models.StrategyType{
		models.StrategyCashSecuredPut, models.StrategyCoveredCall,
		models.StrategyPutCreditSpread, models.StrategyCallCreditSpread,
	} {
		st := s.Strategy(t)
		if !st.Enabled {
			continue
		}
		if !ok || st.MinDTE < minDTE {
			minDTE = st.MinDTE
		}
		if !ok || st.MaxDTE > maxDTE {
			maxDTE = st.MaxDTE
		}
		ok = true
	}
	return minDTE, maxDTE, ok
}

// Clone returns a deep copy of the settings.
func (s TradingSettings) Clone() TradingSettings {
	out := s
	for _, t := range []models.StrategyType{
		models.StrategyCashSecuredPut, models.StrategyCoveredCall,
		models.StrategyPutCreditSpread, models.StrategyCallCreditSpread,
	} {
		ref := out.StrategyRef(t)
		ref.PreferredTrends = append([]models.TrendCategory(nil), ref.PreferredTrends...)
		ref.PreferredVolatility = append([]models.VolatilityCategory(nil), ref.PreferredVolatility...)
	}
	return out
}

// VersionID returns a stable identifier for the settings contents.
func (s *TradingSettings) VersionID() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return "sv_" + hex.EncodeToString(sum[:8])
}
