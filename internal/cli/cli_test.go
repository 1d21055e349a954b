package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-income/internal/errors"
	"options-income/internal/marketdata"
	"options-income/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "--config", t.TempDir(), "version", "--json")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestDebugFlagRaisesLogLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	dir := t.TempDir()
	_, err := execute(t, "--config", dir, "version")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	_, err = execute(t, "--config", dir, "--debug", "version")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestConfigPathAndValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "--config", dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))

	out, err = execute(t, "--config", dir, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}

func TestEarningsAddAndList(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "--config", dir, "earnings", "add", "aapl=2026-04-30", "MSFT=2026-04-28")
	require.NoError(t, err)

	out, err := execute(t, "--config", dir, "earnings", "list", "--json")
	require.NoError(t, err)
	var events []models.EarningsEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "MSFT", events[0].Symbol)
	assert.Equal(t, "AAPL", events[1].Symbol)

	_, err = execute(t, "--config", dir, "earnings", "add", "AAPL-2026-04-30")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestRecomputeThenShowRun(t *testing.T) {
	dir := t.TempDir()
	textfile := filepath.Join(dir, "optincome.prom")

	out, err := execute(t, "--config", dir, "recompute", "--json",
		"--symbols", "AAPL,KO,XOM", "--profile", "aggressive", "--metrics-textfile", textfile)
	require.NoError(t, err)

	var result models.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.RunCompleted, result.Status)
	assert.Equal(t, 3, result.SymbolsRequested)
	assert.Equal(t, 3, result.SymbolsAnalyzed)
	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `optincome_breaker_state{breaker="quote"} 0`)

	out, err = execute(t, "--config", dir, "runs", "list", "--json")
	require.NoError(t, err)
	var runs []models.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, models.ProfileAggressive, runs[0].RiskProfile)
	assert.Equal(t, len(result.Packets), runs[0].PacketCount)

	out, err = execute(t, "--config", dir, "runs", "show", result.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, result.RunID)
	assert.Contains(t, out, "Market regime (SPY)")

	_, err = execute(t, "--config", dir, "runs", "show", "missing")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestParseEarningsArg(t *testing.T) {
	e, err := ParseEarningsArg(" ko = 2026-02-10")
	require.NoError(t, err)
	assert.Equal(t, "KO", e.Symbol)
	assert.Equal(t, "2026-02-10", e.Date.Format("2006-01-02"))

	_, err = ParseEarningsArg("KO=10/02/2026")
	assert.Error(t, err)
	_, err = ParseEarningsArg("=2026-02-10")
	assert.Error(t, err)
}

func TestFormatHelpers(t *testing.T) {
	exp := time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC)
	legs := []models.OptionLeg{
		{Side: models.LegSell, Contract: models.OptionContract{Strike: 95, Type: models.OptionPut, Expiration: exp}},
		{Side: models.LegBuy, Contract: models.OptionContract{Strike: 92.5, Type: models.OptionPut, Expiration: exp}},
	}
	assert.Equal(t, "SELL 95P 2026-04-07 / BUY 92.5P 2026-04-07", FormatLegs(legs))
	assert.Equal(t, "$93.75", FormatBreakevens([]float64{93.75}))
	assert.Equal(t, "-", FormatBreakevens(nil))
	assert.Equal(t, "PCS", FormatStrategy(models.StrategyPutCreditSpread))

	start := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "1.5s", FormatDuration(start, start.Add(1500*time.Millisecond)))
	assert.Equal(t, "-", FormatDuration(start, time.Time{}))

	assert.Equal(t, ColorGreen, ScoreColor(70))
	assert.Equal(t, ColorYellow, ScoreColor(50))
	assert.Equal(t, ColorRed, ScoreColor(49))
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{writer: &buf}
	table := NewTable(o, "A", "LONG")
	table.AddRow("xyz", "1")
	table.Render()

	assert.Equal(t, "A    LONG\n---------\nxyz  1\n", buf.String())
}

func TestTableAlignRight(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{writer: &buf}
	table := NewTable(o, "SYM", "SCORE").AlignRight(1)
	table.AddRow("KO", "7")
	table.AddRow("AAPL", "81")
	table.Render()

	assert.Equal(t, "SYM   SCORE\n-----------\nKO        7\nAAPL     81\n", buf.String())
}

func TestFixturesExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")

	_, err := execute(t, "--config", dir, "fixtures", "export", "--symbols", "AAPL,AMD", "--out", path)
	require.NoError(t, err)

	ds, err := marketdata.LoadFixtures(path)
	require.NoError(t, err)
	assert.Contains(t, ds.Symbols, "SPY")
	assert.Contains(t, ds.Symbols, "XLK")
	assert.Contains(t, ds.Symbols, "AMD")
	assert.Len(t, ds.Symbols, 25)
}
