// Package utils provides shared utility functions.
package utils

import "math"

// Clamp restricts value to [minVal, maxVal].
func Clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}

// Round rounds half away from zero to the nearest integer.
func Round(value float64) int {
	return int(math.Round(value))
}

// RoundTo rounds value to the given number of decimal places.
func RoundTo(value float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(value*p) / p
}

// SafeDiv returns a/b, or 0 when b is zero.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// PctDiff returns how far value sits from base, in percent of base.
func PctDiff(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (value - base) / base * 100
}

// Mean calculates the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// StdDev calculates the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var variance float64
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// Normalize scales raw against denominator onto 0-100.
// A non-positive denominator yields 0.
func Normalize(raw, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return Clamp(raw/denominator*100, 0, 100)
}

// Annualize converts a credit earned on basis over dte days to an
// annualized percentage. Zero basis or non-positive dte yields 0.
func Annualize(credit, basis float64, dte int) float64 {
	if basis <= 0 || dte <= 0 {
		return 0
	}
	return credit / basis * 100 * 365 / float64(dte)
}

// CapScore scales value against full onto 0-100, where value == full scores 100.
// A non-positive full scores 100.
func CapScore(value, full float64) float64 {
	if full <= 0 {
		return 100
	}
	return Clamp(value/full*100, 0, 100)
}
