package cryptofolio

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/cryptofolio/date"
	"github.com/shopspring/decimal"
)

// Report is the result of a full pipeline run.
type Report struct {
	Options Options
	Span    date.Range
	Mode    Mode // pricing mode of the reference asset.
	Events  int
	Dropped int

	// Operations counts events per operation label.
	Operations map[string]int
	// ProfitSharing totals profit-share events per asset.
	ProfitSharing map[string]decimal.Decimal
	// Fees totals fee events per asset, restricted to Options.FeeAccount if set.
	Fees map[string]decimal.Decimal
	// Final holds the last balances of every scope.
	Final map[string]Holdings

	Balances    *Balances
	Valuation   *Valuation
	Performance *Performance
	Statistics  Statistics
	Anomalies   []Anomaly
	Monthly     []PeriodReturn
	Yearly      []PeriodReturn

	Transactions *Table
	Positions    *Table
	Returns      *Table

	Warnings []Warning
}

// Estimated reports whether reference prices came from the estimator.
func (r *Report) Estimated() bool { return r.Mode == ModeEstimate }

// Scopes returns the scopes of the final balances, sorted.
func (r *Report) Scopes() []string { return slices.Sorted(maps.Keys(r.Final)) }

// Tables returns the three standardized tables.
func (r *Report) Tables() []*Table { return []*Table{r.Transactions, r.Positions, r.Returns} }

// NewReport replays, values and analyzes a journal.
//
// It only fails if the journal is not sorted; every other condition is
// recovered with a fallback and reported as a warning.
func NewReport(j *Journal, oracle *Oracle, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	if oracle == nil {
		oracle = NewOracle(nil)
	}
	ws := newWarnings(opts.Logger)
	r := &Report{
		Options:       opts,
		Mode:          oracle.Mode(),
		Events:        j.Len(),
		Operations:    make(map[string]int),
		ProfitSharing: make(map[string]decimal.Decimal),
		Fees:          make(map[string]decimal.Decimal),
		Final:         make(map[string]Holdings),
	}

	if r.Mode == ModeEstimate {
		ws.add(Warning{Kind: PriceUnavailable, Message: fmt.Sprintf("no %s price series, using estimated prices", opts.ReferenceAsset)})
	}

	balances, err := Replayer{Tracked: opts.TrackedAssets, Logger: opts.Logger}.Replay(j.events)
	if err != nil {
		return nil, fmt.Errorf("replaying events: %w", err)
	}
	r.Balances = balances
	r.Span = balances.Span()
	for _, scope := range balances.Scopes() {
		r.Final[scope] = balances.Final(scope)
	}
	ignored := balances.Ignored()
	for _, label := range slices.Sorted(maps.Keys(ignored)) {
		n := ignored[label]
		ws.add(Warning{Kind: UnknownOperation, Message: fmt.Sprintf("%d event(s) with operation %q ignored", n, label)})
	}
	for _, e := range j.events {
		r.Operations[e.Operation]++
		switch e.Kind {
		case KindProfitShare:
			r.ProfitSharing[e.Asset] = r.ProfitSharing[e.Asset].Add(e.Delta)
		case KindFee:
			if opts.FeeAccount == "" || opts.FeeAccount == e.Account {
				r.Fees[e.Asset] = r.Fees[e.Asset].Add(e.Delta)
			}
		}
	}

	valuation, vw := Valuer{Oracle: oracle, Options: opts}.Value(balances)
	r.Valuation = valuation
	r.Performance = NewPerformance(valuation)
	r.Statistics = ComputeStatistics(r.Performance.Values, opts.RiskFree)
	r.Anomalies = FindAnomalies(r.Performance, opts.AnomalyThreshold)
	r.Monthly = PeriodicReturns(r.Performance, date.Monthly)
	r.Yearly = PeriodicReturns(r.Performance, date.Yearly)

	x := Exporter{Oracle: oracle, Options: opts}
	transactions, tw := x.Transactions(j)
	r.Transactions = transactions
	r.Positions = x.Positions(valuation)
	r.Returns = x.Returns(r.Performance)

	r.Warnings = slices.Concat(ws.Warnings(), vw, tw)
	return r, nil
}

// NewReportFromLoad builds a report from a loader result.
//
// An empty source yields an empty report with well-formed tables and the
// ErrEmptySource error, so that callers can still export the tables.
func NewReportFromLoad(res *LoadResult, loadErr error, oracle *Oracle, opts Options) (*Report, error) {
	if errors.Is(loadErr, ErrEmptySource) {
		r := EmptyReport(opts)
		if res != nil {
			r.Dropped = res.Dropped
			r.Warnings = res.Warnings
		}
		return r, loadErr
	}
	if loadErr != nil {
		return nil, loadErr
	}
	r, err := NewReport(res.Journal, oracle, opts)
	if err != nil {
		return nil, err
	}
	r.Dropped = res.Dropped
	r.Warnings = append(slices.Clone(res.Warnings), r.Warnings...)
	return r, nil
}

// EmptyReport returns a report with no data and empty standardized tables.
func EmptyReport(opts Options) *Report {
	opts = opts.withDefaults()
	r := &Report{
		Options:       opts,
		Operations:    make(map[string]int),
		ProfitSharing: make(map[string]decimal.Decimal),
		Fees:          make(map[string]decimal.Decimal),
		Final:         make(map[string]Holdings),
		Valuation:     &Valuation{},
		Performance:   &Performance{},
		Statistics:    ComputeStatistics(nil, opts.RiskFree),
	}
	r.Transactions, r.Positions, r.Returns = Exporter{Options: opts}.EmptyTables()
	return r
}
