package utils

import (
	"math"
	"time"
)

// NewYorkLocation is the timezone for US listed options.
var NewYorkLocation *time.Location

func init() {
	var err error
	NewYorkLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		NewYorkLocation = time.FixedZone("EST", -5*60*60)
	}
}

// MarketDate truncates t to its calendar date in New York.
func MarketDate(t time.Time) time.Time {
	t = t.In(NewYorkLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, NewYorkLocation)
}

// DaysBetween returns the whole calendar days from one market date to another.
// The result is negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	a := MarketDate(from)
	b := MarketDate(to)
	// Round to absorb DST shifts.
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// DaysToExpiration returns calendar days from asOf to expiration, floored at 0.
func DaysToExpiration(asOf, expiration time.Time) int {
	d := DaysBetween(asOf, expiration)
	if d < 0 {
		return 0
	}
	return d
}

// IsWeekend reports whether t falls on a Saturday or Sunday in New York.
func IsWeekend(t time.Time) bool {
	wd := t.In(NewYorkLocation).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ThirdFriday returns the standard monthly expiration date for year/month.
func ThirdFriday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, NewYorkLocation)
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 14)
}

// TradingDays returns the n most recent weekdays up to and including end,
// oldest first.
func TradingDays(end time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	d := MarketDate(end)
	for i := n - 1; i >= 0; {
		if !IsWeekend(d) {
			out[i] = d
			i--
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}
