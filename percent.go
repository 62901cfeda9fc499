package cryptofolio

import (
	"fmt"
	"math"
)

// Percent is a ratio expressed in percent: 12.5 means 12.5%.
type Percent float64

// Ratio converts a ratio (0.125) into a Percent (12.5).
func Ratio(r float64) Percent { return Percent(r * 100) }

// Equal compares with a precision of 1e-4 percent.
func (p Percent) Equal(q Percent) bool {
	const precision = 0.0001
	return math.Abs(float64(p-q)) < precision
}

func (p Percent) String() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}
