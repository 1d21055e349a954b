package models

import "time"

// MarketContext snapshots the regime and symbol signals a packet was built from.
type MarketContext struct {
	Regime  MarketRegime  `json:"regime"`
	Signals SymbolSignals `json:"signals"`
}

// TradePacket is the final, persisted form of a candidate.
// Packets are immutable once created; ranking only selects and orders them.
type TradePacket struct {
	ID                string            `json:"id"`
	RunID             string            `json:"run_id"`
	WorkspaceID       string            `json:"workspace_id"`
	SettingsVersionID string            `json:"settings_version_id"`
	RiskProfile       RiskProfile       `json:"risk_profile"`
	CreatedAt         time.Time         `json:"created_at"`
	Candidate         StrategyCandidate `json:"candidate"`
	Context           MarketContext     `json:"context"`
	Explanation       string            `json:"explanation"`
	Rank              int               `json:"rank"`
}

// Symbol returns the packet's underlying symbol.
func (p *TradePacket) Symbol() string { return p.Candidate.Symbol }

// Strategy returns the packet's strategy type.
func (p *TradePacket) Strategy() StrategyType { return p.Candidate.Strategy }

// Score returns the packet's integer score.
func (p *TradePacket) Score() int { return p.Candidate.Score }

// MaxLoss returns the packet's maximum loss in dollars.
func (p *TradePacket) MaxLoss() float64 { return p.Candidate.RiskBox.MaxLoss }

// RunContext carries the run-scoped inputs of one recompute run.
type RunContext struct {
	WorkspaceID       string
	SettingsVersionID string
	RiskProfile       RiskProfile
	RunID             string
	Symbols           []string
	MinScore          int
	TopPerStrategy    int
	MaxPerSymbol      int
	AsOf              time.Time
}

// RankingStats aggregates a ranked packet list.
type RankingStats struct {
	Total             int                  `json:"total"`
	ByStrategy        map[StrategyType]int `json:"by_strategy"`
	BySymbol          map[string]int       `json:"by_symbol"`
	AverageScore      float64              `json:"average_score"`
	AverageConfidence float64              `json:"average_confidence"`
	TotalMaxLoss      float64              `json:"total_max_loss"`
	TotalNetCredit    float64              `json:"total_net_credit"`
	ScoreHistogram    map[string]int       `json:"score_histogram"`
}

// RunStatus is the lifecycle state of a recompute run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// RunResult is the outbound product of a recompute run.
type RunResult struct {
	RunID               string        `json:"run_id"`
	Status              RunStatus     `json:"status"`
	Regime              *MarketRegime `json:"regime,omitempty"`
	Packets             []TradePacket `json:"packets"`
	Stats               RankingStats  `json:"stats"`
	SymbolsRequested    int           `json:"symbols_requested"`
	SymbolsAnalyzed     int           `json:"symbols_analyzed"`
	CandidatesGenerated int           `json:"candidates_generated"`
	StartedAt           time.Time     `json:"started_at"`
	CompletedAt         time.Time     `json:"completed_at"`
}

// RunRecord is the stored summary of a run.
type RunRecord struct {
	ID                  string      `json:"id"`
	WorkspaceID         string      `json:"workspace_id"`
	SettingsVersionID   string      `json:"settings_version_id"`
	RiskProfile         RiskProfile `json:"risk_profile"`
	Status              RunStatus   `json:"status"`
	Error               string      `json:"error,omitempty"`
	SymbolsRequested    int         `json:"symbols_requested"`
	SymbolsAnalyzed     int         `json:"symbols_analyzed"`
	CandidatesGenerated int         `json:"candidates_generated"`
	PacketCount         int         `json:"packet_count"`
	StartedAt           time.Time   `json:"started_at"`
	CompletedAt         time.Time   `json:"completed_at"`
}

// EarningsEvent is a known earnings date for a symbol.
type EarningsEvent struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
}
