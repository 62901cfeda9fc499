package cryptofolio

import (
	"math"
	"testing"
)

func TestMoney_String(t *testing.T) {
	testCases := []struct {
		in         Money
		want       string
		wantSigned string
	}{
		{M(1234.567, "USD"), "$1,234.57", "+$1,234.57"},
		{M(-12.5, "EUR"), "-€12.50", "-€12.50"},
		{M(1234.5, "USDT"), "USDT 1,234.50", "+USDT 1,234.50"},
		{M(0, "USDT"), "USDT 0.00", "-"},
	}
	for _, tc := range testCases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
		if got := tc.in.SignedString(); got != tc.wantSigned {
			t.Errorf("SignedString() = %q, want %q", got, tc.wantSigned)
		}
	}
}

func TestPercent(t *testing.T) {
	testCases := []struct {
		in         Percent
		want       string
		wantSigned string
	}{
		{Ratio(0.1234), "12.34%", "+12.34%"},
		{Ratio(-0.1), "-10.00%", "-10.00%"},
		{Ratio(0), "0.00%", "-"},
		{Percent(math.NaN()), "n/a", "n/a"},
	}
	for _, tc := range testCases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
		if got := tc.in.SignedString(); got != tc.wantSigned {
			t.Errorf("SignedString() = %q, want %q", got, tc.wantSigned)
		}
	}
}
