package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"options-income/internal/analysis/indicators"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// simulatedBars is the length of the generated daily history.
const simulatedBars = 260

// SimulatedConfig configures the simulated provider.
type SimulatedConfig struct {
	Seed int64
	// AsOf anchors every generated series; zero means today in New York.
	AsOf time.Time
}

// SimulatedProvider generates deterministic synthetic market data per symbol.
// The same seed, as-of date and symbol always produce the same data.
type SimulatedProvider struct {
	seed int64
	asOf time.Time

	mu    sync.Mutex
	cache map[string]*SymbolData
}

// NewSimulatedProvider creates a simulated provider.
func NewSimulatedProvider(cfg SimulatedConfig) *SimulatedProvider {
	asOf := cfg.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return &SimulatedProvider{
		seed:  cfg.Seed,
		asOf:  utils.MarketDate(asOf),
		cache: make(map[string]*SymbolData),
	}
}

// AsOf returns the date the simulation is anchored on.
func (p *SimulatedProvider) AsOf() time.Time {
	return p.asOf
}

// Snapshot generates a full dataset for symbols, suitable for WriteFixtures.
func (p *SimulatedProvider) Snapshot(symbols []string) *Dataset {
	ds := &Dataset{AsOf: p.asOf, Symbols: make(map[string]*SymbolData, len(symbols))}
	for _, s := range symbols {
		ds.Symbols[strings.ToUpper(s)] = p.symbol(s)
	}
	return ds
}

// GetQuote returns the generated quote.
func (p *SimulatedProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	q := p.symbol(symbol).Quote
	return &q, nil
}

// GetQuotes returns generated quotes for every symbol.
func (p *SimulatedProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	return collectQuotes(ctx, p, symbols)
}

// GetHistoricalPrices returns the trailing generated bars for r.
func (p *SimulatedProvider) GetHistoricalPrices(ctx context.Context, symbol string, r HistoryRange) ([]models.Candle, error) {
	return historyOf(p.symbol(symbol), symbol, r)
}

// GetOptionExpirations returns the generated expirations ascending.
func (p *SimulatedProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return expirationsOf(p.symbol(symbol)), nil
}

// GetOptionChain returns the generated chain for expiration.
func (p *SimulatedProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*models.OptionChain, error) {
	return chainOf(p.symbol(symbol), symbol, expiration)
}

// GetVolatilityData returns the generated volatility block.
func (p *SimulatedProvider) GetVolatilityData(ctx context.Context, symbol string) (*models.VolatilityData, error) {
	v := *p.symbol(symbol).Volatility
	return &v, nil
}

func (p *SimulatedProvider) symbol(symbol string) *SymbolData {
	symbol = strings.ToUpper(symbol)

	p.mu.Lock()
	defer p.mu.Unlock()

	if sd, ok := p.cache[symbol]; ok {
		return sd
	}
	sd := p.generate(symbol)
	p.cache[symbol] = sd
	return sd
}

func (p *SimulatedProvider) rng(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, s := range parts {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewSource(int64(h.Sum64()) ^ p.seed))
}

// generate builds a random-walk history, a volatility block and chains for
// weekly expirations 7 to 63 days out.
func (p *SimulatedProvider) generate(symbol string) *SymbolData {
	r := p.rng(symbol)

	start := 20 + r.Float64()*400
	drift := (r.Float64() - 0.4) * 0.003
	dailyVol := 0.008 + r.Float64()*0.017
	avgVolume := int64(1_500_000 + r.Float64()*40_000_000)

	days := utils.TradingDays(p.asOf, simulatedBars)
	history := make([]models.Candle, len(days))
	price := start
	for i, day := range days {
		open := price
		price = price * math.Exp(drift+dailyVol*r.NormFloat64())
		hi := math.Max(open, price) * (1 + math.Abs(r.NormFloat64())*dailyVol/2)
		lo := math.Min(open, price) * (1 - math.Abs(r.NormFloat64())*dailyVol/2)
		history[i] = models.Candle{
			Timestamp: day,
			Open:      utils.RoundTo(open, 2),
			High:      utils.RoundTo(hi, 2),
			Low:       utils.RoundTo(lo, 2),
			Close:     utils.RoundTo(price, 2),
			Volume:    int64(float64(avgVolume) * (0.6 + r.Float64()*0.8)),
		}
	}

	lastBar := history[len(history)-1]
	prevClose := history[len(history)-2].Close
	quote := models.Quote{
		Symbol:        symbol,
		Last:          lastBar.Close,
		Bid:           utils.RoundTo(lastBar.Close-0.01, 2),
		Ask:           utils.RoundTo(lastBar.Close+0.01, 2),
		Open:          lastBar.Open,
		High:          lastBar.High,
		Low:           lastBar.Low,
		Close:         lastBar.Close,
		PreviousClose: prevClose,
		Volume:        lastBar.Volume,
		AvgVolume:     avgVolume,
		Timestamp:     p.asOf,
	}

	snap := indicators.Compute(quote.Last, history)
	hv20 := dailyVol * math.Sqrt(indicators.TradingDaysPerYear) * 100
	if snap.HV20 != nil && *snap.HV20 > 0 {
		hv20 = *snap.HV20
	}
	ivRank := utils.RoundTo(5+r.Float64()*85, 1)
	vol := &models.VolatilityData{
		Symbol:       symbol,
		CurrentIV:    utils.RoundTo(hv20*(0.95+r.Float64()*0.5), 2),
		IVRank:       models.Float(ivRank),
		IVPercentile: models.Float(math.Min(100, utils.RoundTo(ivRank+r.Float64()*10, 1))),
		HV20:         models.Float(utils.RoundTo(hv20, 2)),
		HV50:         snap.HV50,
	}

	sd := &SymbolData{Quote: quote, History: history, Volatility: vol}
	for d := p.asOf.AddDate(0, 0, 1); !d.After(p.asOf.AddDate(0, 0, 63)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Friday || utils.DaysBetween(p.asOf, d) < 7 {
			continue
		}
		sd.Chains = append(sd.Chains, p.chain(symbol, quote.Last, vol.CurrentIV/100, avgVolume, d))
	}
	return sd
}

func strikeIncrement(price float64) float64 {
	switch {
	case price < 50:
		return 1
	case price < 150:
		return 2.5
	default:
		return 5
	}
}

func (p *SimulatedProvider) chain(symbol string, spot, sigma float64, avgVolume int64, exp time.Time) models.OptionChain {
	r := p.rng(symbol, exp.Format("2006-01-02"))
	dte := utils.DaysToExpiration(p.asOf, exp)
	t := float64(dte) / 365

	inc := strikeIncrement(spot)
	lo := math.Ceil(spot*0.75/inc) * inc
	hi := math.Floor(spot*1.25/inc) * inc

	ch := models.OptionChain{Underlying: symbol, Expiration: exp, UnderlyingPrice: spot}
	for k := lo; k <= hi+1e-9; k += inc {
		strike := utils.RoundTo(k, 2)
		moneyness := math.Log(strike / spot)
		// Equity skew: lower strikes carry higher implied volatility.
		iv := utils.Clamp(sigma*(1-0.6*moneyness), sigma*0.5, sigma*2)
		oi := int64(float64(avgVolume) / 2000 * math.Exp(-math.Abs(moneyness)*8) * (0.6 + r.Float64()*0.8))
		for _, typ := range []models.OptionType{models.OptionCall, models.OptionPut} {
			price, greeks := BlackScholes(typ, spot, strike, t, RiskFreeRate, iv)
			c := models.OptionContract{
				Symbol:            occSymbol(symbol, exp, typ, strike),
				Underlying:        symbol,
				Expiration:        exp,
				Strike:            strike,
				Type:              typ,
				Last:              utils.RoundTo(price, 2),
				OpenInterest:      oi,
				Volume:            int64(float64(oi) * (0.05 + r.Float64()*0.25)),
				ImpliedVolatility: utils.RoundTo(iv, 4),
				Greeks:            greeks,
				InTheMoney:        (typ == models.OptionCall && strike < spot) || (typ == models.OptionPut && strike > spot),
			}
			c.Bid, c.Ask = quoteAround(price)
			if typ == models.OptionCall {
				ch.Calls = append(ch.Calls, c)
			} else {
				ch.Puts = append(ch.Puts, c)
			}
		}
	}
	return ch
}

// quoteAround builds a bid/ask pair around a theoretical price.
func quoteAround(price float64) (bid, ask float64) {
	if price < 0.03 {
		return 0, 0.05
	}
	half := (0.03*price + 0.02) / 2
	bid = math.Max(0, utils.RoundTo(price-half, 2))
	ask = utils.RoundTo(price+half, 2)
	return bid, ask
}

// occSymbol formats an OCC-style contract symbol.
func occSymbol(underlying string, exp time.Time, typ models.OptionType, strike float64) string {
	cp := "C"
	if typ == models.OptionPut {
		cp = "P"
	}
	return fmt.Sprintf("%s%s%s%08d", underlying, exp.Format("060102"), cp, int64(math.Round(strike*1000)))
}
