package renderer

import (
	"cmp"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/date"
	"github.com/shopspring/decimal"
)

// Now is the current time used in reports.
// FOLIO_TESTING_NOW overrides it to keep rendered outputs stable.
func Now() time.Time {
	if os.Getenv("FOLIO_TESTING_NOW") != "" {
		t, err := time.Parse("2006-01-02 15:04:05", os.Getenv("FOLIO_TESTING_NOW"))
		if err != nil {
			panic(err)
		}
		return t
	}
	return time.Now()
}

// Report is the rendering view of a cryptofolio.Report.
type Report struct {
	AsOf      string     `json:"asOf"`
	Span      date.Range `json:"span"`
	Currency  string     `json:"currency"`
	Reference string     `json:"reference"`
	Mode      string     `json:"mode"`
	Estimated bool       `json:"estimated"`
	Events    int        `json:"events"`
	Dropped   int        `json:"dropped"`

	StartValue       cryptofolio.Money   `json:"-"`
	EndValue         cryptofolio.Money   `json:"-"`
	Change           cryptofolio.Money   `json:"-"`
	TotalReturn      cryptofolio.Percent `json:"totalReturn"`
	AnnualizedReturn cryptofolio.Percent `json:"annualizedReturn"`
	Volatility       cryptofolio.Percent `json:"volatility"`
	MaxDrawdown      cryptofolio.Percent `json:"maxDrawdown"`
	WinRate          cryptofolio.Percent `json:"winRate"`
	Sharpe           string              `json:"sharpe"`
	PositiveDays     int                 `json:"positiveDays"`
	NegativeDays     int                 `json:"negativeDays"`
	FlatDays         int                 `json:"flatDays"`

	Balances      []Balance      `json:"balances"`
	Operations    []Operation    `json:"operations"`
	ProfitSharing []Amount       `json:"profitSharing"`
	Fees          []Amount       `json:"fees"`
	Monthly       []PeriodReturn `json:"monthly"`
	Yearly        []PeriodReturn `json:"yearly"`
	Anomalies     []Anomaly      `json:"anomalies"`
	Tables        []TableInfo    `json:"tables"`
	Warnings      []string       `json:"warnings"`
}

// Balance is a final balance of one asset in one scope.
type Balance struct {
	Scope    string `json:"scope"`
	Asset    string `json:"asset"`
	Quantity string `json:"quantity"`
}

// Operation counts the events of one operation label.
type Operation struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Amount is a signed quantity of an asset.
type Amount struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// PeriodReturn is the compounded return of a calendar period.
type PeriodReturn struct {
	Name   string              `json:"name"`
	Return cryptofolio.Percent `json:"return"`
}

// Anomaly is a daily return beyond the anomaly threshold.
type Anomaly struct {
	Date     date.Date           `json:"date"`
	Return   cryptofolio.Percent `json:"return"`
	Previous cryptofolio.Money   `json:"-"`
	Current  cryptofolio.Money   `json:"-"`
}

// TableInfo describes an exported table.
type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// NewReport builds the rendering view of r.
func NewReport(r *cryptofolio.Report) *Report {
	cur := r.Options.ValuationCurrency
	st := r.Statistics
	v := &Report{
		AsOf:             Now().Format("2006-01-02 15:04:05"),
		Span:             r.Span,
		Currency:         cur,
		Reference:        r.Options.ReferenceAsset,
		Mode:             r.Mode.String(),
		Estimated:        r.Estimated(),
		Events:           r.Events,
		Dropped:          r.Dropped,
		StartValue:       cryptofolio.M(st.StartValue, cur),
		EndValue:         cryptofolio.M(st.EndValue, cur),
		Change:           cryptofolio.M(st.EndValue-st.StartValue, cur),
		TotalReturn:      cryptofolio.Ratio(st.TotalReturn),
		AnnualizedReturn: cryptofolio.Ratio(st.AnnualizedReturn),
		Volatility:       cryptofolio.Ratio(st.Volatility),
		MaxDrawdown:      cryptofolio.Ratio(st.MaxDrawdown),
		WinRate:          cryptofolio.Ratio(st.WinRate),
		Sharpe:           ratio(st.Sharpe),
		PositiveDays:     st.PositiveDays,
		NegativeDays:     st.NegativeDays,
		FlatDays:         st.FlatDays,
	}

	for _, scope := range r.Scopes() {
		h := r.Final[scope]
		for _, asset := range slices.Sorted(maps.Keys(h)) {
			if q := h[asset]; !q.IsZero() {
				v.Balances = append(v.Balances, Balance{Scope: scope, Asset: asset, Quantity: q.String()})
			}
		}
	}

	for label, n := range r.Operations {
		v.Operations = append(v.Operations, Operation{Label: label, Count: n})
	}
	slices.SortFunc(v.Operations, func(a, b Operation) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label))
	})

	v.ProfitSharing = amounts(r.ProfitSharing)
	v.Fees = amounts(r.Fees)

	for _, p := range r.Monthly {
		v.Monthly = append(v.Monthly, PeriodReturn{Name: date.Monthly.Label(p.Range.From), Return: cryptofolio.Ratio(p.Return)})
	}
	for _, p := range r.Yearly {
		v.Yearly = append(v.Yearly, PeriodReturn{Name: date.Yearly.Label(p.Range.From), Return: cryptofolio.Ratio(p.Return)})
	}
	for _, a := range r.Anomalies {
		v.Anomalies = append(v.Anomalies, Anomaly{
			Date:     a.Date,
			Return:   cryptofolio.Ratio(a.Return),
			Previous: cryptofolio.M(a.Previous, cur),
			Current:  cryptofolio.M(a.Current, cur),
		})
	}
	for _, t := range r.Tables() {
		if t != nil {
			v.Tables = append(v.Tables, TableInfo{Name: t.Name, Columns: t.Columns, Rows: t.Len()})
		}
	}
	for _, w := range r.Warnings {
		v.Warnings = append(v.Warnings, w.String())
	}
	return v
}

func amounts(m map[string]decimal.Decimal) []Amount {
	var out []Amount
	for _, asset := range slices.Sorted(maps.Keys(m)) {
		out = append(out, Amount{Asset: asset, Amount: m[asset].String()})
	}
	return out
}

func ratio(x float64) string {
	if cryptofolio.IsUndefined(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(x, 'f', 2, 64)
}
