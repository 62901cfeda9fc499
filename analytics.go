package cryptofolio

import (
	"math"

	"github.com/etnz/cryptofolio/date"
	"gonum.org/v1/gonum/stat"
)

// DaysPerYear is the year length used to annualize daily figures.
const DaysPerYear = 365.25

// Undefined is the value of any ratio whose denominator is zero or undefined.
var Undefined = math.NaN()

// IsUndefined reports whether x is the Undefined sentinel.
func IsUndefined(x float64) bool { return math.IsNaN(x) }

// DailyReturns returns V[i]/V[i-1]-1. The first return, and any return
// following a zero value, is Undefined.
func DailyReturns(values []float64) []float64 {
	r := make([]float64, len(values))
	for i := range values {
		if i == 0 || values[i-1] == 0 {
			r[i] = Undefined
			continue
		}
		r[i] = values[i]/values[i-1] - 1
	}
	return r
}

// CumulativeReturns returns (V[i]-V[0])/V[0], all Undefined unless V[0] > 0.
func CumulativeReturns(values []float64) []float64 {
	r := make([]float64, len(values))
	for i, v := range values {
		if values[0] <= 0 {
			r[i] = Undefined
			continue
		}
		r[i] = (v - values[0]) / values[0]
	}
	return r
}

// Performance holds the return columns derived from a value series.
type Performance struct {
	Dates      []date.Date
	Values     []float64
	Daily      []float64
	Cumulative []float64
}

// NewPerformance derives the return columns of a valuation.
func NewPerformance(v *Valuation) *Performance {
	values := v.Values()
	return &Performance{
		Dates:      v.Dates(),
		Values:     values,
		Daily:      DailyReturns(values),
		Cumulative: CumulativeReturns(values),
	}
}

// Statistics summarizes a value series.
type Statistics struct {
	Days             int
	StartValue       float64
	EndValue         float64
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64 // sample standard deviation of daily returns.
	MaxDrawdown      float64 // non-positive.
	Sharpe           float64
	PositiveDays     int
	NegativeDays     int
	FlatDays         int
	MeanReturn       float64
	MinReturn        float64
	MaxReturn        float64
	WinRate          float64
}

// ComputeStatistics computes the summary of a value series. riskFree is the
// annual risk-free rate used by the Sharpe ratio.
//
// Ratios that cannot be computed are Undefined, except TotalReturn which is 0
// when V[0] <= 0 and AnnualizedReturn which is 0 for an empty series.
func ComputeStatistics(values []float64, riskFree float64) Statistics {
	s := Statistics{
		Days:       len(values),
		Volatility: Undefined,
		Sharpe:     Undefined,
		MeanReturn: Undefined,
		MinReturn:  Undefined,
		MaxReturn:  Undefined,
		WinRate:    Undefined,
	}
	n := len(values)
	if n == 0 {
		return s
	}
	s.StartValue, s.EndValue = values[0], values[n-1]
	if values[0] > 0 {
		s.TotalReturn = (values[n-1] - values[0]) / values[0]
	}
	s.AnnualizedReturn = annualize(s.TotalReturn, n)
	s.MaxDrawdown = MaxDrawdown(values)

	returns := defined(DailyReturns(values))
	if len(returns) == 0 {
		return s
	}
	s.MinReturn, s.MaxReturn = returns[0], returns[0]
	for _, r := range returns {
		switch {
		case r > 0:
			s.PositiveDays++
		case r < 0:
			s.NegativeDays++
		default:
			s.FlatDays++
		}
		s.MinReturn = math.Min(s.MinReturn, r)
		s.MaxReturn = math.Max(s.MaxReturn, r)
	}
	s.MeanReturn = stat.Mean(returns, nil)
	s.WinRate = float64(s.PositiveDays) / float64(len(returns))
	if len(returns) > 1 {
		s.Volatility = stat.StdDev(returns, nil)
	}
	s.Sharpe = Sharpe(returns, s.Volatility, riskFree)
	return s
}

func annualize(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	if 1+total < 0 {
		return Undefined
	}
	return math.Pow(1+total, DaysPerYear/float64(n)) - 1
}

// MaxDrawdown returns the lowest (V[i]-peak)/peak where peak is the running
// maximum. Days where the peak is not positive are skipped.
func MaxDrawdown(values []float64) float64 {
	var dd float64
	peak := math.Inf(-1)
	for _, v := range values {
		peak = math.Max(peak, v)
		if peak <= 0 {
			continue
		}
		dd = math.Min(dd, (v-peak)/peak)
	}
	return dd
}

// Sharpe returns the annualized Sharpe ratio of daily returns with the given
// volatility, Undefined if volatility is zero or Undefined.
func Sharpe(returns []float64, volatility, riskFree float64) float64 {
	if len(returns) == 0 || volatility == 0 || IsUndefined(volatility) {
		return Undefined
	}
	daily := math.Pow(1+riskFree, 1/DaysPerYear) - 1
	var excess float64
	for _, r := range returns {
		excess += r - daily
	}
	excess /= float64(len(returns))
	return excess / volatility * math.Sqrt(DaysPerYear)
}

func defined(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !IsUndefined(x) {
			out = append(out, x)
		}
	}
	return out
}

// Anomaly is a daily return whose magnitude exceeds a threshold.
type Anomaly struct {
	Date     date.Date
	Return   float64
	Previous float64
	Current  float64
}

// FindAnomalies lists the days whose absolute daily return is above threshold.
func FindAnomalies(p *Performance, threshold float64) []Anomaly {
	var out []Anomaly
	for i, r := range p.Daily {
		if IsUndefined(r) || math.Abs(r) <= threshold {
			continue
		}
		out = append(out, Anomaly{Date: p.Dates[i], Return: r, Previous: p.Values[i-1], Current: p.Values[i]})
	}
	return out
}

// PeriodReturn is the compounded return over a calendar period.
type PeriodReturn struct {
	Range  date.Range
	Return float64
}

// PeriodicReturns compounds daily returns per calendar period. Periods are
// clipped to the series span; a period with no defined return is Undefined.
func PeriodicReturns(p *Performance, period date.Period) []PeriodReturn {
	if len(p.Dates) == 0 {
		return nil
	}
	ranges := date.Range{From: p.Dates[0], To: p.Dates[len(p.Dates)-1]}.Split(period)
	out := make([]PeriodReturn, 0, len(ranges))
	i := 0
	for _, rng := range ranges {
		growth, seen := 1.0, false
		for ; i < len(p.Dates) && rng.Contains(p.Dates[i]); i++ {
			if r := p.Daily[i]; !IsUndefined(r) {
				growth *= 1 + r
				seen = true
			}
		}
		ret := Undefined
		if seen {
			ret = growth - 1
		}
		out = append(out, PeriodReturn{Range: rng, Return: ret})
	}
	return out
}
