package marketdata

import (
	"math"

	"options-income/internal/models"
)

// RiskFreeRate is the annual rate used by the simulator's pricing model.
const RiskFreeRate = 0.04

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// BlackScholes prices a European option and its Greeks. t is in years and
// sigma is a decimal volatility. Theta is per calendar day, vega per vol point.
func BlackScholes(optType models.OptionType, spot, strike, t, rate, sigma float64) (float64, models.Greeks) {
	if t <= 0 || sigma <= 0 || spot <= 0 || strike <= 0 {
		intrinsic := math.Max(0, spot-strike)
		delta := 0.0
		if spot > strike {
			delta = 1
		}
		if optType == models.OptionPut {
			intrinsic = math.Max(0, strike-spot)
			delta = 0
			if spot < strike {
				delta = -1
			}
		}
		return intrinsic, models.Greeks{Delta: models.Float(delta)}
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate+sigma*sigma/2)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	disc := strike * math.Exp(-rate*t)

	gamma := normPDF(d1) / (spot * sigma * sqrtT)
	vega := spot * normPDF(d1) * sqrtT / 100
	decay := -spot * normPDF(d1) * sigma / (2 * sqrtT)

	var price, delta, theta float64
	if optType == models.OptionPut {
		price = disc*normCDF(-d2) - spot*normCDF(-d1)
		delta = normCDF(d1) - 1
		theta = (decay + rate*disc*normCDF(-d2)) / 365
	} else {
		price = spot*normCDF(d1) - disc*normCDF(d2)
		delta = normCDF(d1)
		theta = (decay - rate*disc*normCDF(d2)) / 365
	}

	return math.Max(price, 0), models.Greeks{
		Delta: models.Float(round(delta, 4)),
		Gamma: models.Float(round(gamma, 4)),
		Theta: models.Float(round(theta, 4)),
		Vega:  models.Float(round(vega, 4)),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
