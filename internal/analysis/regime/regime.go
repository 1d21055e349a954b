// Package regime classifies the overall market state once per run.
package regime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"options-income/internal/analysis/indicators"
	apperrors "options-income/internal/errors"
	"options-income/internal/marketdata"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// defaultConcurrency bounds breadth and leadership fetches.
const defaultConcurrency = 5

// Input names the symbols a regime snapshot is built from.
type Input struct {
	RunID         string
	Benchmark     string
	Universe      []string
	SectorProxies []string
	AsOf          time.Time
}

// Classifier builds MarketRegime snapshots from a market-data provider.
type Classifier struct {
	provider    marketdata.Provider
	logger      zerolog.Logger
	concurrency int
}

// NewClassifier creates a classifier. concurrency <= 0 uses 5.
func NewClassifier(provider marketdata.Provider, logger zerolog.Logger, concurrency int) *Classifier {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Classifier{
		provider:    provider,
		logger:      logger.With().Str("component", "regime").Logger(),
		concurrency: concurrency,
	}
}

type benchmarkData struct {
	quote   *models.Quote
	history []models.Candle
	vol     *models.VolatilityData
}

// Classify computes the regime. Failing to fetch the benchmark's quote,
// history or volatility returns an error matching ErrRegimeUnavailable;
// breadth and leadership failures only shrink their samples.
func (c *Classifier) Classify(ctx context.Context, in Input) (*models.MarketRegime, error) {
	var (
		bench      benchmarkData
		breadth    models.BreadthData
		leadership []models.SectorLeadership
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bench, err = c.fetchBenchmark(gctx, in.Benchmark)
		return err
	})
	g.Go(func() error {
		breadth = c.breadth(gctx, in.Universe)
		return nil
	})
	g.Go(func() error {
		leadership = c.leadership(gctx, in.SectorProxies)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: benchmark %s: %w", apperrors.ErrRegimeUnavailable, in.Benchmark, err)
	}

	trend := indicators.ReadTrend(bench.quote.Last, bench.history)
	vol := indicators.ClassifyVolatility(bench.vol)

	regime := &models.MarketRegime{
		RunID:       in.RunID,
		Benchmark:   in.Benchmark,
		AsOf:        in.AsOf,
		Trend:       trend.Category,
		TrendScore:  trend.Score,
		Volatility:  vol,
		IVRank:      bench.vol.IVRank,
		RiskPosture: DeriveRiskPosture(trend.Category, vol),
		Breadth:     breadth,
		Leadership:  leadership,
		DataQuality: models.DataQuality{IVRankMissing: bench.vol.IVRank == nil},
	}

	c.logger.Info().
		Str("run_id", in.RunID).
		Str("trend", string(regime.Trend)).
		Float64("trend_score", regime.TrendScore).
		Str("volatility", string(regime.Volatility)).
		Str("posture", string(regime.RiskPosture)).
		Str("breadth", string(regime.Breadth.Assessment)).
		Int("breadth_sampled", regime.Breadth.Sampled).
		Msg("Market regime classified")

	return regime, nil
}

func (c *Classifier) fetchBenchmark(ctx context.Context, symbol string) (benchmarkData, error) {
	var out benchmarkData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.provider.GetQuote(gctx, symbol)
		out.quote = q
		return err
	})
	g.Go(func() error {
		h, err := c.provider.GetHistoricalPrices(gctx, symbol, marketdata.Range1Y)
		out.history = h
		return err
	})
	g.Go(func() error {
		v, err := c.provider.GetVolatilityData(gctx, symbol)
		out.vol = v
		return err
	})
	if err := g.Wait(); err != nil {
		return out, err
	}
	if out.quote == nil || out.vol == nil || len(out.history) == 0 {
		return out, apperrors.NewDataError("benchmark", symbol, "incomplete data", nil)
	}
	return out, nil
}

// breadthSample is one universe symbol's contribution to breadth.
type breadthSample struct {
	advancing bool
	declining bool
	ma50      *float64
	price     float64
}

func (c *Classifier) breadth(ctx context.Context, universe []string) models.BreadthData {
	samples := make([]*breadthSample, len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, sym := range universe {
		i, sym := i, sym
		g.Go(func() error {
			q, err := c.provider.GetQuote(gctx, sym)
			if err != nil {
				c.logger.Debug().Err(err).Str("symbol", sym).Msg("Breadth quote skipped")
				return nil
			}
			h, err := c.provider.GetHistoricalPrices(gctx, sym, marketdata.Range3Mo)
			if err != nil {
				c.logger.Debug().Err(err).Str("symbol", sym).Msg("Breadth history skipped")
				return nil
			}
			samples[i] = &breadthSample{
				advancing: q.IsAdvancing(),
				declining: q.IsDeclining(),
				ma50:      indicators.NewSMA(50).Last(h),
				price:     q.Last,
			}
			return nil
		})
	}
	_ = g.Wait()

	return aggregateBreadth(samples)
}

func aggregateBreadth(samples []*breadthSample) models.BreadthData {
	var out models.BreadthData
	withMA := 0
	for _, s := range samples {
		if s == nil {
			continue
		}
		out.Sampled++
		if s.advancing {
			out.Advancing++
		}
		if s.declining {
			out.Declining++
		}
		if s.ma50 != nil {
			withMA++
			if s.price > *s.ma50 {
				out.AboveMA50++
			}
		}
	}

	if withMA > 0 {
		out.PercentAbove50MA = models.Float(utils.RoundTo(float64(out.AboveMA50)/float64(withMA)*100, 1))
	}
	if out.Declining > 0 {
		out.AdvanceDeclineRatio = models.Float(utils.RoundTo(float64(out.Advancing)/float64(out.Declining), 2))
	}
	out.Assessment = ClassifyBreadth(out.PercentAbove50MA, out.Advancing, out.Declining)
	return out
}

// ClassifyBreadth buckets breadth by percent above the 50-day average, falling
// back to the advance/decline ratio, defaulting to mixed.
func ClassifyBreadth(pctAbove50MA *float64, advancing, declining int) models.BreadthAssessment {
	if pctAbove50MA != nil {
		pct := *pctAbove50MA
		switch {
		case pct >= 70:
			return models.BreadthStrong
		case pct >= 55:
			return models.BreadthHealthy
		case pct >= 40:
			return models.BreadthMixed
		case pct >= 25:
			return models.BreadthWeak
		default:
			return models.BreadthVeryWeak
		}
	}

	if declining == 0 {
		if advancing > 0 {
			return models.BreadthStrong
		}
		return models.BreadthMixed
	}

	ratio := float64(advancing) / float64(declining)
	switch {
	case ratio >= 2.0:
		return models.BreadthStrong
	case ratio >= 1.2:
		return models.BreadthHealthy
	case ratio >= 0.8:
		return models.BreadthMixed
	case ratio >= 0.5:
		return models.BreadthWeak
	default:
		return models.BreadthVeryWeak
	}
}

func (c *Classifier) leadership(ctx context.Context, proxies []string) []models.SectorLeadership {
	var (
		mu  sync.Mutex
		out []models.SectorLeadership
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, sym := range proxies {
		sym := sym
		g.Go(func() error {
			q, err := c.provider.GetQuote(gctx, sym)
			if err != nil {
				c.logger.Debug().Err(err).Str("symbol", sym).Msg("Sector quote skipped")
				return nil
			}
			h, err := c.provider.GetHistoricalPrices(gctx, sym, marketdata.Range1Y)
			if err != nil {
				c.logger.Debug().Err(err).Str("symbol", sym).Msg("Sector history skipped")
				return nil
			}
			t := indicators.ReadTrend(q.Last, h)

			mu.Lock()
			out = append(out, models.SectorLeadership{Symbol: sym, TrendScore: t.Score, Trend: t.Category})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TrendScore != out[j].TrendScore {
			return out[i].TrendScore > out[j].TrendScore
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// DeriveRiskPosture maps trend and volatility to a risk posture.
func DeriveRiskPosture(trend models.TrendCategory, vol models.VolatilityCategory) models.RiskPosture {
	switch {
	case trend.IsUp() && (vol == models.VolLow || vol == models.VolNormal):
		return models.RiskOn
	case trend.IsDown():
		return models.RiskOff
	case trend == models.TrendNeutral && vol.IsStressed():
		return models.RiskOff
	default:
		return models.RiskNeutral
	}
}
