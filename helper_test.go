package cryptofolio

import (
	"math"
	"time"

	"github.com/etnz/cryptofolio/date"
	"github.com/shopspring/decimal"
)

// ev is a helper for tests to create an event from constants.
// ts uses the "2006-01-02 15:04:05" layout.
func ev(ts, scope, op, asset, delta string) Event {
	t, err := time.Parse(time.DateTime, ts)
	if err != nil {
		panic(err)
	}
	d := decimal.RequireFromString(delta)
	return Event{
		Time:      t,
		Account:   scope,
		Scope:     scope,
		Kind:      ClassifyOperation(op, d),
		Operation: op,
		Asset:     asset,
		Delta:     d,
	}
}

// day is a helper for tests to parse a date.
func day(s string) date.Date { return date.MustParse(s) }

// dec is a helper for tests to create a decimal from a string.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// flatOracle returns an oracle with the same price every day of the range.
func flatOracle(price float64, from, to string) *Oracle {
	s := NewPriceSeries()
	for d := range (date.Range{From: day(from), To: day(to)}).Days() {
		s.Set(d, price)
	}
	return NewOracle(s)
}

// near reports whether a and b are equal within 1e-9, NaN being equal to NaN.
func near(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}
