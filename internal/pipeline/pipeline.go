// Package pipeline orchestrates recompute runs: regime, signals, candidates,
// packets, ranking and persistence.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"options-income/internal/analysis/regime"
	"options-income/internal/analysis/signals"
	"options-income/internal/config"
	apperrors "options-income/internal/errors"
	"options-income/internal/logging"
	"options-income/internal/marketdata"
	"options-income/internal/metrics"
	"options-income/internal/models"
	"options-income/internal/narrative"
	"options-income/internal/ranking"
	"options-income/internal/store"
	"options-income/internal/strategy"
	"options-income/pkg/utils"
)

// Config holds the run-independent inputs of the pipeline.
type Config struct {
	Benchmark     string
	Universe      []string
	SectorProxies []string
	BatchSize     int
	Settings      config.TradingSettings
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithExplainer sets the explanation generator.
func WithExplainer(e narrative.Explainer) Option {
	return func(p *Pipeline) { p.explainer = e }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDs replaces the run and packet id generator.
func WithIDs(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// Pipeline runs recompute runs against a provider and a run store.
type Pipeline struct {
	cfg       Config
	provider  marketdata.Provider
	store     store.RunStore
	explainer narrative.Explainer
	metrics   *metrics.Recorder
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// New creates a pipeline.
func New(cfg Config, provider marketdata.Provider, runs store.RunStore, logger zerolog.Logger, opts ...Option) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = signals.DefaultBatchSize
	}
	p := &Pipeline{
		cfg:       cfg,
		provider:  provider,
		store:     runs,
		explainer: narrative.NewTemplateExplainer(),
		logger:    logger.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recompute executes one run. Only a regime failure aborts it: the run is
// then recorded as failed, no packets are stored and a *RunError is
// returned. Symbols whose data cannot be fetched are skipped.
func (p *Pipeline) Recompute(ctx context.Context, rc models.RunContext) (*models.RunResult, error) {
	symbols := normalizeSymbols(rc.Symbols)
	if len(symbols) == 0 {
		return nil, apperrors.NewValidationError("symbols", rc.Symbols, "at least one symbol is required")
	}
	if rc.RiskProfile == "" {
		rc.RiskProfile = models.ProfileModerate
	}
	if !rc.RiskProfile.Valid() {
		return nil, apperrors.NewValidationError("risk_profile", rc.RiskProfile, "must be conservative, moderate or aggressive")
	}
	if rc.WorkspaceID == "" {
		rc.WorkspaceID = "default"
	}
	if rc.RunID == "" {
		rc.RunID = p.newID()
	}

	started := p.now()
	if rc.AsOf.IsZero() {
		rc.AsOf = started
	}
	rc.Symbols = symbols

	settings := config.SettingsForProfile(p.cfg.Settings, rc.RiskProfile)
	rc.SettingsVersionID = settings.VersionID()
	if err := p.store.SaveSettingsVersion(ctx, rc.SettingsVersionID, settings); err != nil {
		return nil, apperrors.Wrap(err, "saving settings version")
	}

	if err := p.store.CreateRun(ctx, &models.RunRecord{
		ID:                rc.RunID,
		WorkspaceID:       rc.WorkspaceID,
		SettingsVersionID: rc.SettingsVersionID,
		RiskProfile:       rc.RiskProfile,
		Status:            models.RunPending,
		SymbolsRequested:  len(symbols),
		StartedAt:         started,
	}); err != nil {
		return nil, apperrors.Wrap(err, "creating run")
	}

	logger := logging.WithRun(p.logger, rc.RunID)
	logger.Info().
		Strs("symbols", symbols).
		Str("profile", string(rc.RiskProfile)).
		Str("settings_version", rc.SettingsVersionID).
		Msg("Recompute run started")

	earnings, err := p.store.NextEarnings(ctx, symbols, rc.AsOf)
	if err != nil {
		logger.Warn().Err(err).Msg("Earnings calendar unavailable")
		earnings = map[string]time.Time{}
	}

	var (
		mr        *models.MarketRegime
		snapshots map[string]*signals.SymbolSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mr, err = regime.NewClassifier(p.provider, logging.WithOperation(logger, "regime"), p.cfg.BatchSize).Classify(gctx, regime.Input{
			RunID:         rc.RunID,
			Benchmark:     p.cfg.Benchmark,
			Universe:      p.cfg.Universe,
			SectorProxies: p.cfg.SectorProxies,
			AsOf:          rc.AsOf,
		})
		return err
	})
	g.Go(func() error {
		snapshots = signals.NewAnalyzer(p.provider, logging.WithOperation(logger, "signals"), rc.AsOf, p.cfg.BatchSize).
			AnalyzeBatch(gctx, symbols, &settings, earnings)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, p.fail(ctx, logger, rc.RunID, started, apperrors.NewRunError(rc.RunID, "regime", err))
	}
	p.metrics.RecordRegime(mr)

	packets := p.generate(ctx, logger, rc, &settings, mr, snapshots)

	opts := ranking.Options{
		MinScore:       rc.MinScore,
		TopPerStrategy: rc.TopPerStrategy,
		MaxPerSymbol:   rc.MaxPerSymbol,
	}.WithDefaults()
	ranked := ranking.ApplyAllFilters(packets, opts, &settings)

	result := &models.RunResult{
		RunID:               rc.RunID,
		Status:              models.RunCompleted,
		Regime:              mr,
		Packets:             ranked,
		Stats:               ranking.CalculateStats(ranked),
		SymbolsRequested:    len(symbols),
		SymbolsAnalyzed:     len(snapshots),
		CandidatesGenerated: len(packets),
		StartedAt:           started,
		CompletedAt:         p.now(),
	}

	if err := p.store.CompleteRun(ctx, result); err != nil {
		return nil, p.fail(ctx, logger, rc.RunID, started, apperrors.NewRunError(rc.RunID, "persist", err))
	}

	duration := result.CompletedAt.Sub(started)
	p.metrics.RecordRun(models.RunCompleted, len(ranked), duration, result.CompletedAt)
	logging.LogRun(logger, rc.RunID, string(models.RunCompleted), len(ranked), duration, nil)

	return result, nil
}

// fail records a failed run and returns runErr.
func (p *Pipeline) fail(ctx context.Context, logger zerolog.Logger, runID string, started time.Time, runErr error) error {
	completed := p.now()
	if err := p.store.FailRun(ctx, runID, runErr.Error(), completed); err != nil {
		logger.Error().Err(err).Msg("Failed to record run failure")
	}
	duration := completed.Sub(started)
	p.metrics.RecordRun(models.RunFailed, 0, duration, completed)
	logging.LogRun(logger, runID, string(models.RunFailed), 0, duration, runErr)
	return runErr
}

// generate builds packets for every analyzed symbol in input order,
// expirations ascending and strategies in registry order.
func (p *Pipeline) generate(
	ctx context.Context,
	logger zerolog.Logger,
	rc models.RunContext,
	settings *config.TradingSettings,
	mr *models.MarketRegime,
	snapshots map[string]*signals.SymbolSnapshot,
) []models.TradePacket {
	minDTE, maxDTE, ok := settings.DTEWindow()
	if !ok {
		logger.Warn().Msg("No strategy enabled")
		return nil
	}

	strategies := strategy.All()
	var packets []models.TradePacket

	for _, symbol := range rc.Symbols {
		snap, ok := snapshots[symbol]
		if !ok {
			continue
		}
		symLogger := logging.WithSymbol(logger, symbol)

		chains := p.fetchChains(ctx, logging.WithOperation(symLogger, "chains"), symbol, eligibleExpirations(rc.AsOf, snap.Expirations, minDTE, maxDTE))
		for _, chain := range chains {
			sctx := &strategy.Context{
				Quote:       snap.Quote,
				Chain:       chain,
				Signals:     &snap.Signals,
				Regime:      mr,
				Settings:    settings,
				RiskProfile: rc.RiskProfile,
				AsOf:        rc.AsOf,
			}
			for _, st := range strategies {
				if !st.ShouldConsider(sctx) {
					continue
				}
				stLogger := logging.WithStrategy(symLogger, string(st.Type()))
				for _, c := range st.FindCandidates(sctx) {
					packets = append(packets, p.packet(stLogger, rc, mr, &snap.Signals, c))
				}
			}
		}
	}

	return packets
}

// fetchChains fetches the chains for exps in batches. Failed expirations are
// dropped; the rest keep ascending order.
func (p *Pipeline) fetchChains(ctx context.Context, logger zerolog.Logger, symbol string, exps []time.Time) []*models.OptionChain {
	fetched := make([]*models.OptionChain, len(exps))
	idx := make([]int, len(exps))
	for i := range idx {
		idx[i] = i
	}

	var mu sync.Mutex
	utils.InBatches(ctx, idx, p.cfg.BatchSize, func(ctx context.Context, i int) {
		chain, err := p.provider.GetOptionChain(ctx, symbol, exps[i])
		if err != nil {
			logger.Warn().Err(err).Time("expiration", exps[i]).Msg("Chain skipped")
			return
		}
		mu.Lock()
		fetched[i] = chain
		mu.Unlock()
	})

	out := make([]*models.OptionChain, 0, len(fetched))
	for _, ch := range fetched {
		if ch != nil {
			out = append(out, ch)
		}
	}
	return out
}

func (p *Pipeline) packet(logger zerolog.Logger, rc models.RunContext, mr *models.MarketRegime, sig *models.SymbolSignals, c models.StrategyCandidate) models.TradePacket {
	pkt := models.TradePacket{
		ID:                p.newID(),
		RunID:             rc.RunID,
		WorkspaceID:       rc.WorkspaceID,
		SettingsVersionID: rc.SettingsVersionID,
		RiskProfile:       rc.RiskProfile,
		CreatedAt:         p.now(),
		Candidate:         c,
		Context:           models.MarketContext{Regime: *mr, Signals: *sig},
	}

	text, err := p.explainer.Explain(&pkt.Candidate, &pkt.Context)
	if err != nil {
		logger.Warn().Err(err).Msg("Explanation failed")
	}
	pkt.Explanation = text

	p.metrics.RecordCandidate(c.Strategy)
	logging.LogCandidate(logger, c.Score, c.NetCredit, c.RiskBox.MaxLoss)
	return pkt
}

// eligibleExpirations returns the expirations with DTE in [minDTE, maxDTE],
// ascending.
func eligibleExpirations(asOf time.Time, exps []time.Time, minDTE, maxDTE int) []time.Time {
	var out []time.Time
	for _, e := range exps {
		dte := utils.DaysToExpiration(asOf, e)
		if dte >= minDTE && dte <= maxDTE {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// normalizeSymbols upper-cases, trims and de-duplicates symbols, keeping the
// first occurrence's position.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
