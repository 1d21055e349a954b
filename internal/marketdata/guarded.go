package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "options-income/internal/errors"
	"options-income/internal/logging"
	"options-income/internal/models"
	"options-income/internal/resilience"
	"options-income/pkg/utils"
)

// FetchObserver is notified after every guarded fetch.
type FetchObserver func(dataType string, duration time.Duration, err error)

// GuardedConfig configures a GuardedProvider.
type GuardedConfig struct {
	Limiter  *resilience.Limiter
	Breakers *resilience.CircuitBreakerRegistry
	Retry    utils.RetryConfig
	Logger   zerolog.Logger
	Observer FetchObserver
}

// GuardedProvider paces, retries and circuit-breaks calls to an inner
// provider. Breakers and limiters are keyed by data type.
type GuardedProvider struct {
	inner    Provider
	limiter  *resilience.Limiter
	breakers *resilience.CircuitBreakerRegistry
	retry    utils.RetryConfig
	logger   zerolog.Logger
	observe  FetchObserver
}

// NewGuardedProvider wraps inner.
func NewGuardedProvider(inner Provider, cfg GuardedConfig) *GuardedProvider {
	if cfg.Limiter == nil {
		cfg.Limiter = resilience.NewLimiter(0, 1)
	}
	if cfg.Breakers == nil {
		bc := resilience.DefaultCircuitBreakerConfig()
		bc.IsSuccessful = IsUpstreamHealthy
		cfg.Breakers = resilience.NewCircuitBreakerRegistry(bc)
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = utils.DefaultRetryConfig()
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = IsTransient
	}
	return &GuardedProvider{
		inner:    inner,
		limiter:  cfg.Limiter,
		breakers: cfg.Breakers,
		retry:    cfg.Retry,
		logger:   cfg.Logger,
		observe:  cfg.Observer,
	}
}

// BreakerStats returns the state of every breaker used so far, by data type.
func (g *GuardedProvider) BreakerStats() []resilience.CircuitBreakerStats {
	return g.breakers.AllStats()
}

// IsTransient reports whether a fetch error is worth retrying. Data the
// provider reported as unavailable and open breakers are not.
func IsTransient(err error) bool {
	return !apperrors.Is(err, apperrors.ErrDataUnavailable) &&
		!apperrors.Is(err, apperrors.ErrCircuitOpen) &&
		!apperrors.Is(err, context.Canceled) &&
		!apperrors.Is(err, context.DeadlineExceeded)
}

// IsUpstreamHealthy reports whether err is an answer from a working
// provider, such as an unknown symbol, rather than an outage. Breakers
// should not count these as failures.
func IsUpstreamHealthy(err error) bool {
	return apperrors.Is(err, apperrors.ErrDataUnavailable)
}

// guard runs fn with rate limiting, retries and a breaker for dataType.
func guard[T any](ctx context.Context, g *GuardedProvider, dataType, symbol string, fn func() (T, error)) (T, error) {
	start := time.Now()
	breaker := g.breakers.Get(dataType)

	out, err := utils.RetryWithResult(ctx, g.retry, func() (T, error) {
		var res T
		if err := g.limiter.Wait(ctx, dataType); err != nil {
			return res, err
		}
		err := breaker.Execute(func() error {
			var ferr error
			res, ferr = fn()
			return ferr
		})
		return res, err
	})

	elapsed := time.Since(start)
	logging.LogFetch(g.logger, dataType, symbol, elapsed, err)
	if g.observe != nil {
		g.observe(dataType, elapsed, err)
	}
	if err != nil && !apperrors.Is(err, apperrors.ErrDataUnavailable) {
		var zero T
		return zero, apperrors.NewDataError(dataType, symbol, "fetch failed", err)
	}
	return out, err
}

// GetQuote fetches a quote.
func (g *GuardedProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return guard(ctx, g, "quote", symbol, func() (*models.Quote, error) {
		return g.inner.GetQuote(ctx, symbol)
	})
}

// GetQuotes fetches quotes one guarded call at a time.
func (g *GuardedProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	return collectQuotes(ctx, g, symbols)
}

// GetHistoricalPrices fetches daily history.
func (g *GuardedProvider) GetHistoricalPrices(ctx context.Context, symbol string, r HistoryRange) ([]models.Candle, error) {
	return guard(ctx, g, "history", symbol, func() ([]models.Candle, error) {
		return g.inner.GetHistoricalPrices(ctx, symbol, r)
	})
}

// GetOptionExpirations fetches listed expirations.
func (g *GuardedProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return guard(ctx, g, "expirations", symbol, func() ([]time.Time, error) {
		return g.inner.GetOptionExpirations(ctx, symbol)
	})
}

// GetOptionChain fetches one chain.
func (g *GuardedProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*models.OptionChain, error) {
	return guard(ctx, g, "chain", symbol, func() (*models.OptionChain, error) {
		return g.inner.GetOptionChain(ctx, symbol, expiration)
	})
}

// GetVolatilityData fetches volatility data.
func (g *GuardedProvider) GetVolatilityData(ctx context.Context, symbol string) (*models.VolatilityData, error) {
	return guard(ctx, g, "volatility", symbol, func() (*models.VolatilityData, error) {
		return g.inner.GetVolatilityData(ctx, symbol)
	})
}
