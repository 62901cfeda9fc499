package date

import (
	"slices"
	"testing"
	"time"
)

func TestNewRange(t *testing.T) {
	testCases := []struct {
		name   string
		in     Date
		period Period
		want   Range
	}{
		{"single day", New(2025, time.September, 8), Daily, Range{New(2025, time.September, 8), New(2025, time.September, 8)}},
		{"a wednesday", New(2025, time.September, 10), Weekly, Range{New(2025, time.September, 8), New(2025, time.September, 14)}},
		{"a sunday", New(2025, time.September, 14), Weekly, Range{New(2025, time.September, 8), New(2025, time.September, 14)}},
		{"leap february", New(2024, time.February, 15), Monthly, Range{New(2024, time.February, 1), New(2024, time.February, 29)}},
		{"Q2", New(2025, time.May, 20), Quarterly, Range{New(2025, time.April, 1), New(2025, time.June, 30)}},
		{"Q4", New(2025, time.December, 31), Quarterly, Range{New(2025, time.October, 1), New(2025, time.December, 31)}},
		{"year", New(2025, time.September, 8), Yearly, Range{New(2025, time.January, 1), New(2025, time.December, 31)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewRange(tc.in, tc.period); got != tc.want {
				t.Errorf("NewRange(%v, %v) = %v, want %v", tc.in, tc.period, got, tc.want)
			}
		})
	}
}

func TestRange_Identifier(t *testing.T) {
	testCases := []struct {
		in       Range
		wantID   string
		wantName string
	}{
		{NewRange(New(2025, time.September, 8), Daily), "2025-09-08", "daily"},
		{NewRange(New(2025, time.September, 8), Weekly), "2025-W37", "weekly"},
		{NewRange(New(2025, time.September, 1), Monthly), "2025-09", "monthly"},
		{NewRange(New(2025, time.July, 1), Quarterly), "2025-Q3", "quarterly"},
		{NewRange(New(2025, time.January, 1), Yearly), "2025", "yearly"},
		{Range{New(2025, time.September, 2), New(2025, time.September, 10)}, "2025-09-02_2025-09-10", "special"},
		{Range{New(2025, time.January, 1), New(2026, time.December, 31)}, "2025-01-01_2026-12-31", "special"},
	}
	for _, tc := range testCases {
		t.Run(tc.wantID, func(t *testing.T) {
			if got := tc.in.Identifier(); got != tc.wantID {
				t.Errorf("Identifier() = %q, want %q", got, tc.wantID)
			}
			if got := tc.in.Name(); got != tc.wantName {
				t.Errorf("Name() = %q, want %q", got, tc.wantName)
			}
		})
	}
}

func TestRange_Days(t *testing.T) {
	r := Range{From: New(2024, time.February, 27), To: New(2024, time.March, 2)}
	got := slices.Collect(r.Days())
	want := []Date{
		New(2024, time.February, 27),
		New(2024, time.February, 28),
		New(2024, time.February, 29),
		New(2024, time.March, 1),
		New(2024, time.March, 2),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Days() = %v, want %v", got, want)
	}
	if r.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", r.Len(), len(want))
	}

	var empty Range
	if n := len(slices.Collect(empty.Days())); n != 0 {
		t.Errorf("empty range yields %d days, want 0", n)
	}
}

func TestRange_Split(t *testing.T) {
	r := Range{From: New(2024, time.January, 20), To: New(2024, time.March, 5)}
	got := r.Split(Monthly)
	want := []Range{
		{New(2024, time.January, 20), New(2024, time.January, 31)},
		{New(2024, time.February, 1), New(2024, time.February, 29)},
		{New(2024, time.March, 1), New(2024, time.March, 5)},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Split(Monthly) = %v, want %v", got, want)
	}
}

func TestParsePeriod(t *testing.T) {
	testCases := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{"week", Weekly, false},
		{"Monthly", Monthly, false},
		{"quarter", Quarterly, false},
		{"year", Yearly, false},
		{"unknown", Daily, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePeriod(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParsePeriod() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParsePeriod() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPeriod_Label(t *testing.T) {
	d := New(2024, time.May, 20)
	testCases := []struct {
		period Period
		want   string
	}{
		{Daily, "2024-05-20"},
		{Weekly, "2024-W21"},
		{Monthly, "May 2024"},
		{Quarterly, "Q2 2024"},
		{Yearly, "2024"},
	}
	for _, tc := range testCases {
		if got := tc.period.Label(d); got != tc.want {
			t.Errorf("%v.Label(%v) = %q, want %q", tc.period, d, got, tc.want)
		}
	}
}
