package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-income/internal/errors"
	"options-income/internal/models"
)

func TestDefaults(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 100000.0, cfg.Trading.AccountSize)
	assert.Equal(t, 40, cfg.Ranking.MinScore)
	assert.Equal(t, 3, cfg.Ranking.TopPerStrategy)
	assert.Equal(t, 2, cfg.Ranking.MaxPerSymbol)
	assert.Equal(t, 5, cfg.Pipeline.BatchSize)
	assert.Equal(t, "SPY", cfg.Pipeline.Benchmark)
	assert.Len(t, cfg.Pipeline.SectorProxies, 11)
	assert.True(t, cfg.Trading.Strategies.CashSecuredPut.Enabled)
	assert.Equal(t, 5.0, cfg.Trading.Strategies.PutCreditSpread.SpreadWidth)
	assert.Equal(t,
		[]models.VolatilityCategory{models.VolNormal, models.VolElevated, models.VolHigh},
		cfg.Trading.Strategies.CallCreditSpread.PreferredVolatility)
	assert.NoError(t, cfg.Validate())
}

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Equal(t, filepath.Join(dir, "options-income.db"), cfg.Store.Path)

	// Second load reads the template back.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Trading.VersionID(), again.Trading.VersionID())
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
account_size = 50000.0

[trading.strategies.covered_call]
enabled = false
min_dte = 14
max_dte = 30
min_delta = 0.10
max_delta = 0.30
profit_target_pct = 60.0

[ranking]
min_score = 55
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, cfg.Trading.AccountSize)
	assert.Equal(t, 55, cfg.Ranking.MinScore)
	assert.Equal(t, 3, cfg.Ranking.TopPerStrategy)
	assert.False(t, cfg.Trading.Strategies.CoveredCall.Enabled)
	assert.Equal(t, 14, cfg.Trading.Strategies.CoveredCall.MinDTE)
	assert.True(t, cfg.Trading.Strategies.CashSecuredPut.Enabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	cfg.Trading.MaxRiskPerTradePct = 150
	cfg.Trading.Strategies.CashSecuredPut.MinDTE = 60

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidationFailed))
	assert.Contains(t, err.Error(), "MaxRiskPerTradePct")
	assert.Contains(t, err.Error(), "MinDTE")
}

func TestValidateSpreadWidth(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	cfg.Trading.Strategies.PutCreditSpread.SpreadWidth = 0
	err = cfg.Trading.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put_credit_spread.spread_width")

	cfg.Trading.Strategies.PutCreditSpread.SpreadWidth = 0.5
	err = cfg.Trading.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)

	cfg.Trading.Strategies.PutCreditSpread.SpreadWidth = 1
	assert.NoError(t, cfg.Trading.Validate())
}

func TestSettingsForProfile(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	base := cfg.Trading

	conservative := SettingsForProfile(base, models.ProfileConservative)
	assert.InDelta(t, 18.0, conservative.MaxRiskPerTradePct, 1e-9)
	assert.InDelta(t, 0.25, conservative.Strategies.CashSecuredPut.MaxDelta, 1e-9)
	assert.InDelta(t, 0.12, conservative.Strategies.CashSecuredPut.MinDelta, 1e-9)

	aggressive := SettingsForProfile(base, models.ProfileAggressive)
	assert.InDelta(t, 45.0, aggressive.MaxRiskPerTradePct, 1e-9)
	assert.InDelta(t, 0.45, aggressive.Strategies.CashSecuredPut.MaxDelta, 1e-9)

	moderate := SettingsForProfile(base, models.ProfileModerate)
	assert.Equal(t, base.VersionID(), moderate.VersionID())

	// The base is never mutated.
	assert.InDelta(t, 30.0, base.MaxRiskPerTradePct, 1e-9)
	aggressive.Strategies.PutCreditSpread.PreferredVolatility[0] = models.VolPanic
	assert.Equal(t, models.VolNormal, base.Strategies.PutCreditSpread.PreferredVolatility[0])
}

func TestVersionIDChangesWithSettings(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	a := cfg.Trading.VersionID()
	cfg.Trading.AccountSize = 25000
	b := cfg.Trading.VersionID()

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^sv_[0-9a-f]{16}$`, a)
}

func TestDTEWindow(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	cfg.Trading.Strategies.CoveredCall.MinDTE = 7
	lo, hi, ok := cfg.Trading.DTEWindow()
	assert.True(t, ok)
	assert.Equal(t, 7, lo)
	assert.Equal(t, 45, hi)

	cfg.Trading.Strategies.CashSecuredPut.Enabled = false
	cfg.Trading.Strategies.CoveredCall.Enabled = false
	cfg.Trading.Strategies.PutCreditSpread.Enabled = false
	cfg.Trading.Strategies.CallCreditSpread.Enabled = false
	_, _, ok = cfg.Trading.DTEWindow()
	assert.False(t, ok)
}
