package date

import (
	"fmt"
	"strings"
)

// Period is a standard calendar period used to bucket dates.
type Period int

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

// ParsePeriod parses a period name, case insensitive. Singular forms are accepted.
func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %s", p)
	}
}

// Label names the period that contains d, for display.
func (p Period) Label(d Date) string {
	switch p {
	case Daily:
		return d.String()
	case Weekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return d.Format("Jan 2006")
	case Quarterly:
		return fmt.Sprintf("Q%d %d", (d.Month()-1)/3+1, d.Year())
	default:
		return d.Format("2006")
	}
}
