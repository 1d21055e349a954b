package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-income/internal/errors"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var started = time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

func newRun(id string) *models.RunRecord {
	return &models.RunRecord{
		ID:                id,
		WorkspaceID:       "default",
		SettingsVersionID: "sv-1",
		RiskProfile:       models.ProfileModerate,
		SymbolsRequested:  3,
		StartedAt:         started,
	}
}

func newPacket(runID string, rank int, symbol string, score int) models.TradePacket {
	exp := time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC)
	return models.TradePacket{
		ID:                fmt.Sprintf("%s-p%d", runID, rank),
		RunID:             runID,
		WorkspaceID:       "default",
		SettingsVersionID: "sv-1",
		RiskProfile:       models.ProfileModerate,
		CreatedAt:         started,
		Rank:              rank,
		Explanation:       "Sell the put.",
		Candidate: models.StrategyCandidate{
			Strategy:   models.StrategyCashSecuredPut,
			Symbol:     symbol,
			DTE:        32,
			Expiration: exp,
			NetCredit:  125,
			Score:      score,
			Legs: []models.OptionLeg{{
				Side:     models.LegSell,
				Quantity: 1,
				Contract: models.OptionContract{
					Symbol: symbol + "250404P00095000", Underlying: symbol, Expiration: exp,
					Strike: 95, Type: models.OptionPut, Bid: 1.2, Ask: 1.3,
					Greeks: models.Greeks{Delta: models.Float(-0.22)},
				},
			}},
			RiskBox: models.RiskBox{MaxProfit: 125, MaxLoss: 9375, Breakevens: []float64{93.75}},
		},
	}
}

func TestSettingsVersionIsWriteOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSettingsVersion(ctx, "sv-1", map[string]int{"min_dte": 21}))
	require.NoError(t, s.SaveSettingsVersion(ctx, "sv-1", map[string]int{"min_dte": 99}))

	data, err := s.GetSettingsVersion(ctx, "sv-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_dte":21}`, string(data))

	_, err = s.GetSettingsVersion(ctx, "missing")
	assert.Error(t, err)
}

func TestCompleteRunStoresPackets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRun(ctx, newRun("run-1")))

	rec, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunPending, rec.Status)
	assert.True(t, rec.CompletedAt.IsZero())

	regime := &models.MarketRegime{RunID: "run-1", Benchmark: "SPY", Trend: models.TrendUp, RiskPosture: models.RiskOn}
	result := &models.RunResult{
		RunID:               "run-1",
		Status:              models.RunCompleted,
		Regime:              regime,
		Packets:             []models.TradePacket{newPacket("run-1", 2, "MSFT", 70), newPacket("run-1", 1, "AAPL", 80)},
		Stats:               models.RankingStats{Total: 2, AverageScore: 75},
		SymbolsRequested:    3,
		SymbolsAnalyzed:     2,
		CandidatesGenerated: 5,
		StartedAt:           started,
		CompletedAt:         started.Add(2 * time.Second),
	}
	require.NoError(t, s.CompleteRun(ctx, result))

	got, err := s.GetRunResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, got.Status)
	assert.Equal(t, 2, got.SymbolsAnalyzed)
	assert.Equal(t, 5, got.CandidatesGenerated)
	assert.True(t, got.CompletedAt.Equal(result.CompletedAt))
	require.NotNil(t, got.Regime)
	assert.Equal(t, models.TrendUp, got.Regime.Trend)
	assert.Equal(t, 75.0, got.Stats.AverageScore)

	require.Len(t, got.Packets, 2)
	assert.Equal(t, "AAPL", got.Packets[0].Symbol())
	assert.Equal(t, 1, got.Packets[0].Rank)
	assert.Equal(t, result.Packets[1], got.Packets[0])

	rec, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.PacketCount)
}

func TestFailRunKeepsReason(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRun(ctx, newRun("run-1")))
	require.NoError(t, s.FailRun(ctx, "run-1", "market regime unavailable", started.Add(time.Second)))

	rec, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, rec.Status)
	assert.Equal(t, "market regime unavailable", rec.Error)

	packets, err := s.GetPackets(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, packets)
}

func TestUnknownRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
	_, err = s.GetRunResult(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
	assert.ErrorIs(t, s.FailRun(ctx, "nope", "x", started), apperrors.ErrRunNotFound)
	assert.ErrorIs(t, s.CompleteRun(ctx, &models.RunResult{RunID: "nope"}), apperrors.ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := newRun(fmt.Sprintf("run-%d", i))
		run.StartedAt = started.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateRun(ctx, run))
	}
	other := newRun("run-x")
	other.WorkspaceID = "other"
	require.NoError(t, s.CreateRun(ctx, other))
	require.NoError(t, s.FailRun(ctx, "run-0", "boom", started))

	runs, err := s.ListRuns(ctx, RunFilter{WorkspaceID: "default"})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-0", runs[2].ID)

	runs, err = s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	runs, err = s.ListRuns(ctx, RunFilter{Status: models.RunFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-0", runs[0].ID)
}

func TestNextEarnings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ny := utils.NewYorkLocation
	require.NoError(t, s.SaveEarnings(ctx, []models.EarningsEvent{
		{Symbol: "aapl", Date: time.Date(2025, 1, 30, 0, 0, 0, 0, ny)},
		{Symbol: "AAPL", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, ny)},
		{Symbol: "AAPL", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, ny)},
		{Symbol: "MSFT", Date: time.Date(2025, 4, 24, 0, 0, 0, 0, ny)},
		{Symbol: "TSLA", Date: time.Date(2025, 1, 22, 0, 0, 0, 0, ny)},
	}))

	all, err := s.ListEarnings(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	aapl, err := s.ListEarnings(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Len(t, aapl, 2)

	next, err := s.NextEarnings(ctx, []string{"AAPL", "MSFT", "TSLA", "NVDA"}, time.Date(2025, 3, 3, 10, 0, 0, 0, ny))
	require.NoError(t, err)
	assert.Len(t, next, 2)
	assert.True(t, next["AAPL"].Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, ny)))
	assert.True(t, next["MSFT"].Equal(time.Date(2025, 4, 24, 0, 0, 0, 0, ny)))
	_, ok := next["TSLA"]
	assert.False(t, ok)

	// Same-day earnings still count.
	next, err = s.NextEarnings(ctx, []string{"MSFT"}, time.Date(2025, 4, 24, 15, 0, 0, 0, ny))
	require.NoError(t, err)
	assert.Contains(t, next, "MSFT")
}

// Property: packets come back in rank order with their payloads intact.
func TestProperty_PacketRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "NVDA", "AMZN", "META"}
	runSeq := 0

	properties.Property("stored packets round-trip", prop.ForAll(
		func(scores []int) bool {
			runSeq++
			runID := fmt.Sprintf("run-%d", runSeq)
			if err := s.CreateRun(ctx, newRun(runID)); err != nil {
				return false
			}

			// Insert in reverse rank order.
			packets := make([]models.TradePacket, len(scores))
			for i, sc := range scores {
				rank := len(scores) - i
				packets[i] = newPacket(runID, rank, symbols[rank%len(symbols)], sc)
			}
			if err := s.CompleteRun(ctx, &models.RunResult{RunID: runID, Packets: packets, CompletedAt: started}); err != nil {
				return false
			}

			got, err := s.GetPackets(ctx, runID)
			if err != nil || len(got) != len(packets) {
				return false
			}
			for i, p := range got {
				want := packets[len(packets)-1-i]
				if p.Rank != i+1 || p.ID != want.ID || p.Score() != want.Score() || p.Symbol() != want.Symbol() {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
