// Package signals turns per-symbol market data into normalized signal bundles.
package signals

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"options-income/internal/analysis/indicators"
	"options-income/internal/config"
	apperrors "options-income/internal/errors"
	"options-income/internal/marketdata"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// DefaultBatchSize is the number of symbols analyzed concurrently.
const DefaultBatchSize = 5

// SymbolSnapshot is everything fetched and derived for one symbol.
type SymbolSnapshot struct {
	Quote       *models.Quote
	Volatility  *models.VolatilityData
	Expirations []time.Time
	Signals     models.SymbolSignals
}

// Analyzer derives SymbolSignals from a market-data provider.
type Analyzer struct {
	provider  marketdata.Provider
	logger    zerolog.Logger
	asOf      time.Time
	batchSize int
}

// NewAnalyzer creates an analyzer that measures DTE and earnings from asOf.
func NewAnalyzer(provider marketdata.Provider, logger zerolog.Logger, asOf time.Time, batchSize int) *Analyzer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Analyzer{
		provider:  provider,
		logger:    logger.With().Str("component", "signals").Logger(),
		asOf:      asOf,
		batchSize: batchSize,
	}
}

// Analyze fetches quote, history, volatility and expirations concurrently and
// builds the symbol's signals. If any of the four fetches fails no snapshot is
// returned.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, settings *config.TradingSettings, earningsDate *time.Time) (*SymbolSnapshot, error) {
	var (
		quote   *models.Quote
		history []models.Candle
		vol     *models.VolatilityData
		exps    []time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		quote, err = a.provider.GetQuote(gctx, symbol)
		return err
	})
	g.Go(func() (err error) {
		history, err = a.provider.GetHistoricalPrices(gctx, symbol, marketdata.Range1Y)
		return err
	})
	g.Go(func() (err error) {
		vol, err = a.provider.GetVolatilityData(gctx, symbol)
		return err
	})
	g.Go(func() (err error) {
		exps, err = a.provider.GetOptionExpirations(gctx, symbol)
		return err
	})
	if err := g.Wait(); err != nil {
		var de *apperrors.DataError
		if apperrors.As(err, &de) {
			return nil, err
		}
		return nil, apperrors.NewDataError("signals", symbol, "fetch failed", err)
	}
	if len(exps) == 0 {
		return nil, apperrors.NewDataError("expirations", symbol, "no listed expirations", nil)
	}

	trend := indicators.ReadTrend(quote.Last, history)
	sig := models.SymbolSignals{
		Symbol:     symbol,
		Price:      quote.Last,
		Trend:      trend.Category,
		TrendScore: trend.Score,
		MA50:       deref(trend.MA50),
		MA200:      deref(trend.MA200),
		Volatility: indicators.ClassifyVolatility(vol),
		IVRank:     vol.IVRank,
		Earnings:   EarningsProximity(a.asOf, earningsDate, settings.EarningsExclusionDays),
	}
	sig.PctFromMA50 = deref(trend.PctFromMA50)
	sig.PctFromMA200 = deref(trend.PctFromMA200)

	in := LiquidityInput{SpreadPct: DefaultSpreadPct}
	if exp, ok := LiquidityExpiration(a.asOf, exps); ok {
		chain, err := a.provider.GetOptionChain(ctx, symbol, exp)
		if err != nil {
			a.logger.Debug().Err(err).Str("symbol", symbol).Msg("Liquidity chain unavailable")
		}
		in = ATMLiquidity(chain, quote.Last)
	}
	in.UnderlyingVolume = float64(underlyingVolume(quote))
	sig.Liquidity = ScoreLiquidity(in, settings.Liquidity)

	return &SymbolSnapshot{
		Quote:       quote,
		Volatility:  vol,
		Expirations: exps,
		Signals:     sig,
	}, nil
}

// AnalyzeBatch analyzes symbols in sequential groups of the batch size.
// Failed symbols are logged and left out of the result.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, symbols []string, settings *config.TradingSettings, earnings map[string]time.Time) map[string]*SymbolSnapshot {
	var mu sync.Mutex
	out := make(map[string]*SymbolSnapshot, len(symbols))

	utils.InBatches(ctx, symbols, a.batchSize, func(ctx context.Context, symbol string) {
		var earningsDate *time.Time
		if d, ok := earnings[symbol]; ok {
			earningsDate = &d
		}

		snap, err := a.Analyze(ctx, symbol, settings, earningsDate)
		if err != nil {
			a.logger.Warn().Err(err).Str("symbol", symbol).Msg("Symbol excluded from run")
			return
		}

		mu.Lock()
		out[symbol] = snap
		mu.Unlock()
	})

	return out
}

// underlyingVolume prefers average volume over the session's volume.
func underlyingVolume(q *models.Quote) int64 {
	if q.AvgVolume > 0 {
		return q.AvgVolume
	}
	return q.Volume
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
