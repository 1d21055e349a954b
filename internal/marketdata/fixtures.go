package marketdata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "options-income/internal/errors"
	"options-income/internal/models"
)

// SymbolData is everything a provider knows about one symbol.
type SymbolData struct {
	Quote      models.Quote          `yaml:"quote"`
	History    []models.Candle       `yaml:"history"`
	Volatility *models.VolatilityData `yaml:"volatility,omitempty"`
	Chains     []models.OptionChain  `yaml:"chains,omitempty"`
}

// Dataset is a complete offline market snapshot.
type Dataset struct {
	AsOf    time.Time              `yaml:"as_of"`
	Symbols map[string]*SymbolData `yaml:"symbols"`
}

// LoadFixtures reads a YAML dataset from path.
func LoadFixtures(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}
	ds.normalize()
	return &ds, nil
}

// WriteFixtures writes ds to path as YAML.
func WriteFixtures(path string, ds *Dataset) error {
	data, err := yaml.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encoding fixtures: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// normalize upper-cases symbol keys and sorts chains and strikes.
func (d *Dataset) normalize() {
	if d.Symbols == nil {
		d.Symbols = make(map[string]*SymbolData)
		return
	}
	normalized := make(map[string]*SymbolData, len(d.Symbols))
	for sym, sd := range d.Symbols {
		if sd == nil {
			continue
		}
		sym = strings.ToUpper(sym)
		if sd.Quote.Symbol == "" {
			sd.Quote.Symbol = sym
		}
		sort.Slice(sd.Chains, func(i, j int) bool { return sd.Chains[i].Expiration.Before(sd.Chains[j].Expiration) })
		for i := range sd.Chains {
			ch := &sd.Chains[i]
			if ch.Underlying == "" {
				ch.Underlying = sym
			}
			sort.SliceStable(ch.Calls, func(a, b int) bool { return ch.Calls[a].Strike < ch.Calls[b].Strike })
			sort.SliceStable(ch.Puts, func(a, b int) bool { return ch.Puts[a].Strike < ch.Puts[b].Strike })
		}
		normalized[sym] = sd
	}
	d.Symbols = normalized
}

// FixtureProvider serves a fixed Dataset.
type FixtureProvider struct {
	data *Dataset
}

// NewFixtureProvider creates a provider over ds.
func NewFixtureProvider(ds *Dataset) *FixtureProvider {
	ds.normalize()
	return &FixtureProvider{data: ds}
}

func (p *FixtureProvider) lookup(dataType, symbol string) (*SymbolData, error) {
	sd, ok := p.data.Symbols[strings.ToUpper(symbol)]
	if !ok {
		return nil, apperrors.NewDataError(dataType, symbol, "no fixture data", apperrors.ErrSymbolNotFound)
	}
	return sd, nil
}

// GetQuote returns the fixture quote.
func (p *FixtureProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	sd, err := p.lookup("quote", symbol)
	if err != nil {
		return nil, err
	}
	q := sd.Quote
	return &q, nil
}

// GetQuotes returns the quotes that exist; missing symbols are omitted.
func (p *FixtureProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	return collectQuotes(ctx, p, symbols)
}

// GetHistoricalPrices returns the trailing bars for r.
func (p *FixtureProvider) GetHistoricalPrices(ctx context.Context, symbol string, r HistoryRange) ([]models.Candle, error) {
	sd, err := p.lookup("history", symbol)
	if err != nil {
		return nil, err
	}
	return historyOf(sd, symbol, r)
}

// GetOptionExpirations returns the fixture chain dates ascending.
func (p *FixtureProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	sd, err := p.lookup("expirations", symbol)
	if err != nil {
		return nil, err
	}
	return expirationsOf(sd), nil
}

// GetOptionChain returns the chain for expiration.
func (p *FixtureProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*models.OptionChain, error) {
	sd, err := p.lookup("chain", symbol)
	if err != nil {
		return nil, err
	}
	return chainOf(sd, symbol, expiration)
}

// GetVolatilityData returns the fixture volatility block.
func (p *FixtureProvider) GetVolatilityData(ctx context.Context, symbol string) (*models.VolatilityData, error) {
	sd, err := p.lookup("volatility", symbol)
	if err != nil {
		return nil, err
	}
	if sd.Volatility == nil {
		return nil, apperrors.NewDataError("volatility", symbol, "no volatility data", nil)
	}
	v := *sd.Volatility
	return &v, nil
}

func historyOf(sd *SymbolData, symbol string, r HistoryRange) ([]models.Candle, error) {
	if len(sd.History) == 0 {
		return nil, apperrors.NewDataError("history", symbol, "empty history", nil)
	}
	bars := sd.History
	if n := r.Bars(); len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	out := make([]models.Candle, len(bars))
	copy(out, bars)
	return out, nil
}

func expirationsOf(sd *SymbolData) []time.Time {
	out := make([]time.Time, 0, len(sd.Chains))
	for _, ch := range sd.Chains {
		out = append(out, ch.Expiration)
	}
	return out
}

func chainOf(sd *SymbolData, symbol string, expiration time.Time) (*models.OptionChain, error) {
	for _, ch := range sd.Chains {
		if sameDay(ch.Expiration, expiration) {
			out := ch
			out.Calls = append([]models.OptionContract(nil), ch.Calls...)
			out.Puts = append([]models.OptionContract(nil), ch.Puts...)
			return &out, nil
		}
	}
	return nil, apperrors.NewDataError("chain", symbol,
		fmt.Sprintf("no chain for %s", expiration.Format("2006-01-02")), nil)
}

// collectQuotes fetches quotes one by one, skipping failures.
func collectQuotes(ctx context.Context, p Provider, symbols []string) (map[string]*models.Quote, error) {
	out := make(map[string]*models.Quote, len(symbols))
	for _, s := range symbols {
		q, err := p.GetQuote(ctx, s)
		if err != nil {
			continue
		}
		out[s] = q
	}
	return out, nil
}
