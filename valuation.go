package cryptofolio

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/cryptofolio/date"
	"github.com/shopspring/decimal"
)

// DailyValue is the portfolio value at the end of one day.
type DailyValue struct {
	Date  date.Date
	Value float64 // total, in valuation currency.
	// Quantities are the balances summed over scopes after clamping negatives to zero.
	Quantities map[string]decimal.Decimal
	// Contributions are the values of each asset, they sum to Value.
	Contributions  map[string]float64
	ReferencePrice float64
	PriceSource    PriceSource
}

// Valuation is the dense daily value series of a portfolio.
type Valuation struct {
	Days   []DailyValue
	Assets []string // assets in summation order.
	Mode   Mode
}

// Len returns the number of days.
func (v *Valuation) Len() int { return len(v.Days) }

// Values returns the daily total values.
func (v *Valuation) Values() []float64 {
	values := make([]float64, len(v.Days))
	for i, d := range v.Days {
		values[i] = d.Value
	}
	return values
}

// Dates returns the days of the series.
func (v *Valuation) Dates() []date.Date {
	dates := make([]date.Date, len(v.Days))
	for i, d := range v.Days {
		dates[i] = d.Date
	}
	return dates
}

// Valuer values balances day by day.
type Valuer struct {
	Oracle  *Oracle
	Options Options
}

// Value computes the portfolio value for every day of the balances span.
//
// Each day uses the balances as of 23:59:59 UTC. Within every scope negative
// balances count as zero before scopes are summed. The reference asset is
// priced by the oracle, the valuation currency at 1, and any other asset from
// the estimate table under the unpriced policy.
//
// Value does not modify b and returns the same result for the same input.
func (v Valuer) Value(b *Balances) (*Valuation, []Warning) {
	opts := v.Options.withDefaults()
	ws := newWarnings(opts.Logger)
	oracle := v.Oracle
	if oracle == nil {
		oracle = NewOracle(nil)
	}

	assets := valuationOrder(b.Assets(), opts)
	out := &Valuation{Assets: assets, Mode: oracle.Mode()}
	span := b.Span()
	if span.IsEmpty() {
		return out, ws.Warnings()
	}
	out.Days = make([]DailyValue, 0, span.Len())
	for day := range span.Days() {
		cutoff := day.EndOfDay()
		q := oracle.Quote(day)
		dv := DailyValue{
			Date:           day,
			Quantities:     make(map[string]decimal.Decimal, len(assets)),
			Contributions:  make(map[string]float64, len(assets)),
			ReferencePrice: q.Price,
			PriceSource:    q.Source,
		}
		for _, scope := range b.Scopes() {
			state := b.StateAsOf(scope, cutoff)
			for _, asset := range slices.Sorted(maps.Keys(state)) {
				bal := state[asset]
				if bal.IsNegative() {
					ws.once("neg/"+scope+"/"+asset, Warning{
						Kind: NegativeBalance, Day: day, Scope: scope, Asset: asset,
						Message: fmt.Sprintf("balance %s clamped to zero, a transfer record is probably missing", bal),
					})
					continue
				}
				dv.Quantities[asset] = dv.Quantities[asset].Add(bal)
			}
		}
		for _, asset := range assets {
			qty := dv.Quantities[asset]
			if qty.IsZero() {
				continue
			}
			price := 1.0
			switch {
			case asset == opts.ReferenceAsset:
				price = q.Price
			case asset == opts.ValuationCurrency:
			default:
				p, known := opts.Estimates.Price(asset, opts.Unpriced)
				if !known {
					ws.once("unpriced/"+asset, Warning{
						Kind: UnpricedAsset, Day: day, Asset: asset,
						Message: fmt.Sprintf("no price for %s, valued at %v per unit", asset, p),
					})
				}
				price = p
			}
			c := qty.InexactFloat64() * price
			dv.Contributions[asset] = c
			dv.Value += c
		}
		out.Days = append(out.Days, dv)
	}
	return out, ws.Warnings()
}

// valuationOrder returns a deterministic summation order: valuation currency,
// reference asset, then the others alphabetically.
func valuationOrder(assets []string, opts Options) []string {
	others := slices.DeleteFunc(slices.Clone(assets), func(a string) bool {
		return a == opts.ValuationCurrency || a == opts.ReferenceAsset
	})
	slices.Sort(others)
	return append([]string{opts.ValuationCurrency, opts.ReferenceAsset}, others...)
}
