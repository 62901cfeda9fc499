package date

import (
	"fmt"
	"iter"
	"time"
)

// Range represents an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange return the range of the period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// IsEmpty reports whether the range holds no day at all.
func (r Range) IsEmpty() bool { return r.From.IsZero() || r.To.Before(r.From) }

// Len returns the number of days in the range.
func (r Range) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return r.To.Sub(r.From) + 1
}

// Days iterates over every day of the range, in order.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if r.IsEmpty() {
			return
		}
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Split cuts the range into consecutive period ranges, clipped to r.
func (r Range) Split(period Period) []Range {
	var parts []Range
	if r.IsEmpty() {
		return parts
	}
	for d := r.From; !d.After(r.To); {
		end := d.EndOf(period)
		if end.After(r.To) {
			end = r.To
		}
		parts = append(parts, Range{From: d, To: end})
		d = end.Add(1)
	}
	return parts
}

// Period return the period of this range if it's a standard one.
func (r Range) Period() (p Period, ok bool) {
	switch {
	case r.From == r.To:
		return Daily, true
	case r.From.Weekday() == time.Monday && r.From.EndOf(Weekly) == r.To:
		return Weekly, true
	case r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To:
		return Monthly, true
	case r.From.StartOf(Quarterly) == r.From && r.From.EndOf(Quarterly) == r.To:
		return Quarterly, true
	case r.From.StartOf(Yearly) == r.From && r.From.EndOf(Yearly) == r.To:
		return Yearly, true
	default:
		return Daily, false
	}
}

// Identifier compute a unique identifier for the Range.
// If the period is defined, use a short insighful name
func (r Range) Identifier() string {
	p, ok := r.Period()
	if !ok {
		return fmt.Sprintf("%s_%s", r.From, r.To)
	}
	switch p {
	case Daily:
		return r.From.String()
	case Weekly:
		year, week := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return r.From.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", r.From.Year(), (r.From.Month()-1)/3+1)
	case Yearly:
		return r.From.Format("2006")
	default:
		panic("unknown period")
	}
}

// Name the period range
func (r Range) Name() string {
	if p, ok := r.Period(); ok {
		return p.String()
	}
	return "special"
}
