package cryptofolio

import (
	"fmt"
	"math"

	"github.com/etnz/cryptofolio/date"
)

// PriceSource tells where a quoted price comes from.
type PriceSource int

const (
	// SourceExact is a price recorded on the requested day.
	SourceExact PriceSource = iota
	// SourceNearest is the price of the closest recorded day.
	SourceNearest
	// SourceEstimate is a non-authoritative price from an Estimator.
	SourceEstimate
)

func (s PriceSource) String() string {
	switch s {
	case SourceExact:
		return "exact"
	case SourceNearest:
		return "nearest"
	case SourceEstimate:
		return "estimate"
	default:
		return fmt.Sprintf("PriceSource(%d)", int(s))
	}
}

// Mode is the pricing mode of an Oracle.
type Mode int

const (
	// ModeSeries answers from a price series.
	ModeSeries Mode = iota
	// ModeEstimate answers from an Estimator only.
	ModeEstimate
)

func (m Mode) String() string {
	if m == ModeEstimate {
		return "estimate"
	}
	return "series"
}

// Quote is a price with its provenance.
type Quote struct {
	Price  float64
	Source PriceSource
	On     date.Date // day the price was recorded, the requested day for estimates.
}

// Estimator produces a price for any day when no series is available.
type Estimator interface {
	Estimate(on date.Date) float64
}

// ConstantEstimator always returns the same price.
type ConstantEstimator float64

func (c ConstantEstimator) Estimate(date.Date) float64 { return float64(c) }

// GrowthEstimator compounds Base by Rate for every day elapsed since Epoch.
type GrowthEstimator struct {
	Base  float64
	Rate  float64
	Epoch date.Date
}

// DefaultGrowthEstimator returns a smooth BTC-like curve starting at 30000 on 2021-01-01.
func DefaultGrowthEstimator() GrowthEstimator {
	return GrowthEstimator{Base: 30000, Rate: 1.001, Epoch: date.New(2021, 1, 1)}
}

func (g GrowthEstimator) Estimate(on date.Date) float64 {
	return g.Base * math.Pow(g.Rate, float64(on.Sub(g.Epoch)))
}

// PriceSeries is a daily series of reference prices. Dates are unique.
type PriceSeries struct {
	h date.History[float64]
}

// NewPriceSeries returns an empty series.
func NewPriceSeries() *PriceSeries { return new(PriceSeries) }

// Set records the price on a day, replacing any previous price for that day.
func (s *PriceSeries) Set(on date.Date, price float64) *PriceSeries {
	s.h.Append(on, price)
	return s
}

// Len returns the number of recorded days.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return s.h.Len()
}

// Span returns the first and last recorded days.
func (s *PriceSeries) Span() date.Range {
	if s.Len() == 0 {
		return date.Range{}
	}
	first, _ := s.h.First()
	last, _ := s.h.Latest()
	return date.Range{From: first, To: last}
}

// Oracle answers the reference asset price on any day.
//
// It never fails: an exact match wins, then the nearest recorded day, then
// the Estimator when the series is empty.
type Oracle struct {
	series    *PriceSeries
	estimator Estimator
	tie       date.Tie
}

// OracleOption customizes an Oracle.
type OracleOption func(*Oracle)

// WithEstimator replaces the estimator used in estimate mode.
func WithEstimator(e Estimator) OracleOption { return func(o *Oracle) { o.estimator = e } }

// WithTie selects how equidistant neighbours are resolved.
func WithTie(t date.Tie) OracleOption { return func(o *Oracle) { o.tie = t } }

// NewOracle returns an oracle over series. A nil or empty series means estimate mode.
func NewOracle(series *PriceSeries, opts ...OracleOption) *Oracle {
	o := &Oracle{series: series, estimator: DefaultGrowthEstimator(), tie: date.TieEarlier}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mode reports whether prices come from the series or from the estimator.
func (o *Oracle) Mode() Mode {
	if o.series.Len() == 0 {
		return ModeEstimate
	}
	return ModeSeries
}

// Quote returns the price on a day with its source.
func (o *Oracle) Quote(on date.Date) Quote {
	if o.Mode() == ModeEstimate {
		return Quote{Price: o.estimator.Estimate(on), Source: SourceEstimate, On: on}
	}
	if p, ok := o.series.h.Get(on); ok {
		return Quote{Price: p, Source: SourceExact, On: on}
	}
	day, p, _ := o.series.h.Nearest(on, o.tie)
	return Quote{Price: p, Source: SourceNearest, On: day}
}

// PriceOn returns the price on a day.
func (o *Oracle) PriceOn(on date.Date) float64 { return o.Quote(on).Price }
