package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"options-income/internal/models"
)

// CachingProvider decorates a Provider with Redis caching. A nil client
// bypasses the cache entirely. Cache failures never fail a fetch.
type CachingProvider struct {
	inner     Provider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingProvider wraps inner. If ttl is 0 it defaults to 5 minutes; an
// empty namespace uses "marketdata".
func NewCachingProvider(rdb *redis.Client, ttl time.Duration, inner Provider, namespace string) *CachingProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "marketdata"
	}
	return &CachingProvider{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// GetQuote returns a cached or fresh quote.
func (c *CachingProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return cached(ctx, c, c.key("quote", symbol), func() (*models.Quote, error) {
		return c.inner.GetQuote(ctx, symbol)
	})
}

// GetQuotes resolves each symbol through the quote cache.
func (c *CachingProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	return collectQuotes(ctx, c, symbols)
}

// GetHistoricalPrices returns cached or fresh history.
func (c *CachingProvider) GetHistoricalPrices(ctx context.Context, symbol string, r HistoryRange) ([]models.Candle, error) {
	return cached(ctx, c, c.key("history", symbol, string(r)), func() ([]models.Candle, error) {
		return c.inner.GetHistoricalPrices(ctx, symbol, r)
	})
}

// GetOptionExpirations returns cached or fresh expirations.
func (c *CachingProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return cached(ctx, c, c.key("expirations", symbol), func() ([]time.Time, error) {
		return c.inner.GetOptionExpirations(ctx, symbol)
	})
}

// GetOptionChain returns a cached or fresh chain.
func (c *CachingProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*models.OptionChain, error) {
	return cached(ctx, c, c.key("chain", symbol, expiration.Format("2006-01-02")), func() (*models.OptionChain, error) {
		return c.inner.GetOptionChain(ctx, symbol, expiration)
	})
}

// GetVolatilityData returns cached or fresh volatility data.
func (c *CachingProvider) GetVolatilityData(ctx context.Context, symbol string) (*models.VolatilityData, error) {
	return cached(ctx, c, c.key("volatility", symbol), func() (*models.VolatilityData, error) {
		return c.inner.GetVolatilityData(ctx, symbol)
	})
}

// cached checks Redis first, then falls back to fetch and stores the result.
func cached[T any](ctx context.Context, c *CachingProvider, key string, fetch func() (T, error)) (T, error) {
	if c.rdb == nil {
		return fetch()
	}

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := fetch()
	if err != nil {
		return out, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingProvider) key(op, symbol string, args ...string) string {
	parts := append([]string{c.namespace, op, safe(strings.ToUpper(symbol))}, args...)
	return strings.Join(parts, ":")
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// NewRedisClient builds a client for addr and verifies it with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}
	return rdb, nil
}
