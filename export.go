package cryptofolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/etnz/cryptofolio/date"
)

// Epsilon is the magnitude under which exported trade figures count as zero.
const Epsilon = 1e-10

// Table names and columns of the standardized export.
const (
	TransactionsTable = "transactions"
	PositionsTable    = "positions"
	ReturnsTable      = "returns"

	ColTxnVolume = "txn_volume"
	ColTxnShares = "txn_shares"
	ColCash      = "cash"
	ColReturns   = "returns"
)

// Row is one dated row of a Table.
type Row struct {
	Date   date.Date
	Values []float64
}

// Table is a date indexed table of numbers.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the values of a column, nil if it does not exist.
func (t *Table) Column(name string) []float64 {
	j := slices.Index(t.Columns, name)
	if j < 0 {
		return nil
	}
	col := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		col[i] = r.Values[j]
	}
	return col
}

// WriteCSV writes the table with a "date" index column. The header is
// always written, even for an empty table.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, t.Columns...)); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns)+1)
	for _, r := range t.Rows {
		rec[0] = r.Date.String()
		for j, v := range r.Values {
			rec[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing %s row %s: %w", t.Name, r.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Exporter maps pipeline results to the standardized tables.
type Exporter struct {
	Oracle  *Oracle
	Options Options
}

// tradeKey groups trades and their currency legs.
type tradeKey struct {
	day   date.Date
	scope string
}

// Transactions returns the daily reference asset trades.
//
// txn_shares is the reference quantity bought (positive) or sold (negative).
// Within each day and scope, a buy is matched with a spend of valuation
// currency and a sell with a revenue, see matchLegs.
// txn_volume is the negated change of the matched leg: positive cash paid on
// a buy, negative cash received on a sell. Without a matching leg the volume
// is txn_shares times the oracle price and a warning is reported.
func (x Exporter) Transactions(j *Journal) (*Table, []Warning) {
	opts := x.Options.withDefaults()
	ws := newWarnings(opts.Logger)
	oracle := x.Oracle
	if oracle == nil {
		oracle = NewOracle(nil)
	}
	t := &Table{Name: TransactionsTable, Columns: []string{ColTxnVolume, ColTxnShares}}

	type legs struct {
		trades, spends, revenues []Event
		other                    map[time.Time]bool // instants of trades of other assets
	}
	groups := make(map[tradeKey]*legs)
	var order []tradeKey
	for _, e := range j.Events() {
		if !opts.inScope(e.Scope) {
			continue
		}
		k := tradeKey{e.Day(), e.Scope}
		g := groups[k]
		if g == nil {
			g = &legs{other: make(map[time.Time]bool)}
			groups[k] = g
			order = append(order, k)
		}
		switch {
		case e.Asset == opts.ReferenceAsset && (e.Kind == KindBuy || e.Kind == KindSell):
			g.trades = append(g.trades, e)
		case e.Asset == opts.ValuationCurrency && e.Kind == KindSpend:
			g.spends = append(g.spends, e)
		case e.Asset == opts.ValuationCurrency && e.Kind == KindRevenue:
			g.revenues = append(g.revenues, e)
		case e.Asset != opts.ValuationCurrency && (e.Kind == KindBuy || e.Kind == KindSell):
			g.other[e.Time] = true
		}
	}

	type totals struct{ volume, shares float64 }
	daily := make(map[date.Date]*totals)
	var days []date.Date
	for _, k := range order {
		g := groups[k]
		matched := matchLegs(g.trades, g.spends, g.revenues, g.other)
		for i, e := range g.trades {
			shares := e.Delta.Abs()
			if e.Kind == KindSell {
				shares = shares.Neg()
			}
			leg := matched[i]
			s := shares.InexactFloat64()
			var volume float64
			if leg != nil {
				volume = leg.Delta.Neg().InexactFloat64()
			} else {
				price := oracle.PriceOn(k.day)
				volume = s * price
				ws.add(Warning{
					Kind: MatchingLegNotFound, Day: k.day, Scope: k.scope, Asset: opts.ReferenceAsset,
					Message: fmt.Sprintf("%s of %s without %s leg, volume estimated at price %v", e.Kind, shares, opts.ValuationCurrency, price),
				})
			}
			if math.Abs(s) < Epsilon || math.Abs(volume) < Epsilon {
				continue
			}
			d := daily[k.day]
			if d == nil {
				d = new(totals)
				daily[k.day] = d
				days = append(days, k.day)
			}
			d.volume += volume
			d.shares += s
		}
	}

	slices.SortFunc(days, date.Date.Compare)
	for _, day := range days {
		d := daily[day]
		if math.Abs(d.volume) < Epsilon || math.Abs(d.shares) < Epsilon {
			continue
		}
		t.Rows = append(t.Rows, Row{Date: day, Values: []float64{d.volume, d.shares}})
	}
	return t, ws.Warnings()
}

// matchLegs returns the currency leg of every trade, nil when none matches.
//
// A trade first takes an unused leg at the same instant, then the first
// unused leg of the day in event order. Legs at an instant where another
// asset was traded are never used.
func matchLegs(trades, spends, revenues []Event, other map[time.Time]bool) []*Event {
	used := make(map[*Event]bool)
	pick := func(candidates []Event, ok func(Event) bool) *Event {
		for i := range candidates {
			c := &candidates[i]
			if !used[c] && !other[c.Time] && ok(*c) {
				used[c] = true
				return c
			}
		}
		return nil
	}
	candidates := func(e Event) []Event {
		if e.Kind == KindBuy {
			return spends
		}
		return revenues
	}

	matched := make([]*Event, len(trades))
	for i, e := range trades {
		matched[i] = pick(candidates(e), func(c Event) bool { return c.Time.Equal(e.Time) })
	}
	for i, e := range trades {
		if matched[i] == nil {
			matched[i] = pick(candidates(e), func(Event) bool { return true })
		}
	}
	return matched
}

// Positions returns the daily value of the reference asset, of cash, and of
// any other held asset. All values are non-negative.
func (x Exporter) Positions(v *Valuation) *Table {
	opts := x.Options.withDefaults()
	var others []string
	for _, a := range v.Assets {
		if a == opts.ReferenceAsset || opts.isCash(a) {
			continue
		}
		if slices.ContainsFunc(v.Days, func(d DailyValue) bool { return d.Contributions[a] != 0 }) {
			others = append(others, a)
		}
	}
	t := &Table{Name: PositionsTable, Columns: append([]string{opts.ReferenceAsset, ColCash}, others...)}
	for _, d := range v.Days {
		var cash float64
		for _, a := range v.Assets {
			if opts.isCash(a) {
				cash += d.Contributions[a]
			}
		}
		values := []float64{math.Abs(d.Contributions[opts.ReferenceAsset]), math.Abs(cash)}
		for _, a := range others {
			values = append(values, math.Abs(d.Contributions[a]))
		}
		t.Rows = append(t.Rows, Row{Date: d.Date, Values: values})
	}
	return t
}

// Returns returns the defined daily returns; the first day is never present.
func (x Exporter) Returns(p *Performance) *Table {
	t := &Table{Name: ReturnsTable, Columns: []string{ColReturns}}
	for i, r := range p.Daily {
		if IsUndefined(r) {
			continue
		}
		t.Rows = append(t.Rows, Row{Date: p.Dates[i], Values: []float64{r}})
	}
	return t
}

// EmptyTables returns the three tables with their columns and no rows.
func (x Exporter) EmptyTables() (transactions, positions, returns *Table) {
	opts := x.Options.withDefaults()
	return &Table{Name: TransactionsTable, Columns: []string{ColTxnVolume, ColTxnShares}},
		&Table{Name: PositionsTable, Columns: []string{opts.ReferenceAsset, ColCash}},
		&Table{Name: ReturnsTable, Columns: []string{ColReturns}}
}

