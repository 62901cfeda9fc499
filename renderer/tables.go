package renderer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/date"
)

// RenderBalances writes the balance of every tracked asset, per scope, as of the end of a day.
//
// Assets at zero in every scope are omitted. It returns false if nothing was written.
func RenderBalances(w io.Writer, b *cryptofolio.Balances, on date.Date) bool {
	return ConditionalBlock(w, func(w io.Writer) bool {
		scopes := b.Scopes()
		fmt.Fprintf(w, "# Balances on %s\n\n", on)
		fmt.Fprintf(w, "| Asset | %s |\n", strings.Join(scopes, " | "))
		fmt.Fprintf(w, "|:---|%s\n", strings.Repeat("---:|", len(scopes)))

		states := make([]cryptofolio.Holdings, len(scopes))
		for i, scope := range scopes {
			states[i] = b.StateAsOf(scope, on.EndOfDay())
		}
		written := false
		for _, asset := range b.Assets() {
			nonZero := false
			cells := make([]string, len(scopes))
			for i, state := range states {
				q := state.Get(asset)
				nonZero = nonZero || !q.IsZero()
				cells[i] = q.String()
			}
			if !nonZero {
				continue
			}
			written = true
			fmt.Fprintf(w, "| %s | %s |\n", asset, strings.Join(cells, " | "))
		}
		fmt.Fprintln(w)
		return written
	})
}

// RenderValues writes the daily portfolio values within r, all days if r is empty.
func RenderValues(w io.Writer, v *cryptofolio.Valuation, currency string, r date.Range) bool {
	return ConditionalBlock(w, func(w io.Writer) bool {
		fmt.Fprintf(w, "# Daily Values (%s)\n\n", currency)
		fmt.Fprintln(w, "| Date | Value | Reference price | Source |")
		fmt.Fprintln(w, "|:---|---:|---:|:---|")
		written := false
		for _, d := range v.Days {
			if !r.IsEmpty() && !r.Contains(d.Date) {
				continue
			}
			written = true
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", d.Date,
				cryptofolio.M(d.Value, currency), cryptofolio.M(d.ReferencePrice, currency), d.PriceSource)
		}
		fmt.Fprintln(w)
		return written
	})
}

// RenderTable writes an exported table as markdown.
func RenderTable(w io.Writer, t *cryptofolio.Table) {
	fmt.Fprintf(w, "## %s\n\n", t.Name)
	fmt.Fprintf(w, "| date | %s |\n", strings.Join(t.Columns, " | "))
	fmt.Fprintf(w, "|:---|%s\n", strings.Repeat("---:|", len(t.Columns)))
	for _, row := range t.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintf(w, "| %s | %s |\n", row.Date, strings.Join(cells, " | "))
	}
	fmt.Fprintln(w)
}
