package cryptofolio

import (
	"sync"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Money is an amount of a currency or stable coin, formatted for reports.
type Money struct {
	value decimal.Decimal // major unit value
	cur   string
}

// M returns an amount of cur.
func M[T float64 | int | int64 | decimal.Decimal](value T, cur string) Money {
	return Money{value: newDecimal(value), cur: cur}
}

var registerMu sync.Mutex

// currency returns the money's currency, registering stable coins and
// other non ISO codes on first use.
func (m Money) currency() *money.Currency {
	registerMu.Lock()
	defer registerMu.Unlock()
	if c := money.GetCurrency(m.cur); c != nil {
		return c
	}
	return money.AddCurrency(m.cur, m.cur+" ", "$1", ".", ",", 2)
}

// String returns the amount rounded to the currency fraction, with its symbol.
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString returns the amount with an explicit sign, "-" for zero.
func (m Money) SignedString() string {
	switch {
	case m.value.IsZero():
		return "-"
	case m.value.IsPositive():
		return "+" + m.String()
	default:
		return m.String()
	}
}
