package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"options-income/internal/config"
	"options-income/internal/marketdata"
	"options-income/internal/metrics"
	"options-income/internal/resilience"
	"options-income/internal/store"
	"options-income/pkg/utils"
)

// providerStack is the decorated provider used by a run plus the date its
// data is anchored on.
type providerStack struct {
	provider marketdata.Provider
	guarded  *marketdata.GuardedProvider
	asOf     time.Time
	close    func()
}

// buildProvider assembles base provider, optional Redis cache and the
// guarded decorator, innermost first.
func buildProvider(ctx context.Context, cfg *config.Config, logger zerolog.Logger, rec *metrics.Recorder) (*providerStack, error) {
	stack := &providerStack{close: func() {}}

	var base marketdata.Provider
	switch cfg.Data.Provider {
	case "fixtures":
		ds, err := marketdata.LoadFixtures(cfg.Data.FixturesPath)
		if err != nil {
			return nil, err
		}
		base = marketdata.NewFixtureProvider(ds)
		stack.asOf = ds.AsOf
	default:
		sim := marketdata.NewSimulatedProvider(marketdata.SimulatedConfig{Seed: cfg.Data.Seed})
		base = sim
		stack.asOf = sim.AsOf()
	}
	if stack.asOf.IsZero() {
		stack.asOf = time.Now()
	}

	if cfg.Data.Redis.Enabled {
		rdb, err := marketdata.NewRedisClient(ctx, cfg.Data.Redis.Addr, cfg.Data.Redis.Password, cfg.Data.Redis.DB)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis cache disabled")
		} else {
			base = marketdata.NewCachingProvider(rdb, cfg.Data.Redis.TTL, base, cfg.Data.Redis.Namespace)
			stack.close = func() { _ = rdb.Close() }
			logger.Debug().Str("addr", cfg.Data.Redis.Addr).Msg("Redis cache enabled")
		}
	}

	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	breakerCfg.MaxConsecutiveFailures = cfg.Data.Breaker.MaxConsecutiveFailures
	breakerCfg.OpenTimeout = cfg.Data.Breaker.OpenTimeout
	breakerCfg.Interval = cfg.Data.Breaker.Interval
	breakerCfg.IsSuccessful = marketdata.IsUpstreamHealthy
	breakerCfg.OnStateChange = func(name string, from, to resilience.CircuitState) {
		logger.Warn().Str("breaker", name).Str("from", string(from)).Str("to", string(to)).Msg("Circuit breaker state changed")
	}

	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Data.Retry.MaxAttempts
	retry.InitialDelay = cfg.Data.Retry.InitialDelay
	retry.MaxDelay = cfg.Data.Retry.MaxDelay

	stack.guarded = marketdata.NewGuardedProvider(base, marketdata.GuardedConfig{
		Limiter:  resilience.NewLimiter(cfg.Data.RateLimit.RPS, cfg.Data.RateLimit.Burst),
		Breakers: resilience.NewCircuitBreakerRegistry(breakerCfg),
		Retry:    retry,
		Logger:   logger,
		Observer: rec.ObserveFetch,
	})
	stack.provider = stack.guarded
	return stack, nil
}

// reportBreakers exports breaker states to rec and warns about any breaker
// that is not closed after a run.
func (s *providerStack) reportBreakers(logger zerolog.Logger, rec *metrics.Recorder) {
	stats := s.guarded.BreakerStats()
	rec.RecordBreakers(stats)
	for _, st := range stats {
		if st.State != resilience.CircuitClosed {
			logger.Warn().Str("breaker", st.Name).Str("state", string(st.State)).
				Uint32("failures", st.TotalFailures).Msg("Circuit breaker not closed after run")
		}
	}
}

// openStore opens the SQLite store, creating its directory.
func openStore(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return store.NewSQLiteStore(path)
}
