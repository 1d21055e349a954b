// Package mdtest provides builders for market-data fixtures in tests.
package mdtest

import (
	"time"

	"options-income/internal/marketdata"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// FlatHistory returns n weekday candles ending at end, all closing at price.
func FlatHistory(end time.Time, n int, price float64) []models.Candle {
	return RampHistory(end, n, price, price)
}

// RampHistory returns n weekday candles ending at end whose closes move
// linearly from first to last.
func RampHistory(end time.Time, n int, first, last float64) []models.Candle {
	days := utils.TradingDays(end, n)
	out := make([]models.Candle, n)
	for i, d := range days {
		c := first
		if n > 1 {
			c = first + (last-first)*float64(i)/float64(n-1)
		}
		out[i] = models.Candle{Timestamp: d, Open: c, High: c, Low: c, Close: c, Volume: 5_000_000}
	}
	return out
}

// Symbol builds SymbolData with a quote and history.
func Symbol(symbol string, last, prevClose float64, history []models.Candle) *marketdata.SymbolData {
	return &marketdata.SymbolData{
		Quote: models.Quote{
			Symbol:        symbol,
			Last:          last,
			Bid:           last - 0.01,
			Ask:           last + 0.01,
			Close:         last,
			PreviousClose: prevClose,
			Volume:        5_000_000,
			AvgVolume:     5_000_000,
		},
		History: history,
	}
}

// WithIVRank attaches volatility data with the given IV rank.
func WithIVRank(sd *marketdata.SymbolData, ivRank float64) *marketdata.SymbolData {
	sd.Volatility = &models.VolatilityData{
		Symbol:    sd.Quote.Symbol,
		CurrentIV: 30,
		IVRank:    models.Float(ivRank),
		HV20:      models.Float(25),
	}
	return sd
}

// Contract builds an option contract with a delta.
func Contract(typ models.OptionType, strike, bid, ask, delta float64, oi, volume int64) models.OptionContract {
	return models.OptionContract{
		Strike:       strike,
		Type:         typ,
		Bid:          bid,
		Ask:          ask,
		Last:         (bid + ask) / 2,
		OpenInterest: oi,
		Volume:       volume,
		Greeks:       models.Greeks{Delta: models.Float(delta)},
	}
}

// Chain builds a chain for underlying at spot expiring on exp. Contract
// symbols, underlying and expiration are filled in.
func Chain(underlying string, spot float64, exp time.Time, contracts ...models.OptionContract) models.OptionChain {
	ch := models.OptionChain{Underlying: underlying, Expiration: exp, UnderlyingPrice: spot}
	for _, c := range contracts {
		c.Underlying = underlying
		c.Expiration = exp
		if c.Symbol == "" {
			c.Symbol = underlying + exp.Format("060102") + string(c.Type[0]) + utils.FormatStrike(c.Strike)
		}
		if c.Type == models.OptionPut {
			ch.Puts = append(ch.Puts, c)
		} else {
			ch.Calls = append(ch.Calls, c)
		}
	}
	return ch
}

// Provider wraps symbols into a fixture provider.
func Provider(asOf time.Time, symbols ...*marketdata.SymbolData) *marketdata.FixtureProvider {
	ds := &marketdata.Dataset{AsOf: asOf, Symbols: make(map[string]*marketdata.SymbolData, len(symbols))}
	for _, sd := range symbols {
		ds.Symbols[sd.Quote.Symbol] = sd
	}
	return marketdata.NewFixtureProvider(ds)
}
