package cryptofolio

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodePricesCSV(t *testing.T) {
	in := `date,open,close_price
2024-01-01,1,30000
2024-01-03 00:00:00,1,32000
bad,1,1
2024-01-04,1,n/a
`
	s, err := DecodePricesCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodePricesCSV() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if span := s.Span(); span.From != day("2024-01-01") || span.To != day("2024-01-03") {
		t.Errorf("Span() = %v", span)
	}
	if got := NewOracle(s).PriceOn(day("2024-01-03")); got != 32000 {
		t.Errorf("PriceOn(2024-01-03) = %v, want 32000", got)
	}
}

func TestDecodePricesCSV_CloseFallback(t *testing.T) {
	s, err := DecodePricesCSV(strings.NewReader("date,close\n2024-01-01,42\n"))
	if err != nil {
		t.Fatalf("DecodePricesCSV() error = %v", err)
	}
	if got := NewOracle(s).PriceOn(day("2024-01-01")); got != 42 {
		t.Errorf("PriceOn() = %v, want 42", got)
	}
}

func TestDecodePricesCSV_Schema(t *testing.T) {
	_, err := DecodePricesCSV(strings.NewReader("day,price\n2024-01-01,42\n"))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) || len(schemaErr.Missing) != 2 {
		t.Errorf("DecodePricesCSV() error = %v, want a *SchemaError on both columns", err)
	}
}

func TestDecodeKlines(t *testing.T) {
	in := `[
  [1704067200000, "42283.58", "44184.10", "42180.77", "44179.55", "27174.29"],
  [1704153600000, "44179.55", "45879.63", "44148.34", "44946.91", "65146.40"]
]`
	s, err := DecodeKlines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeKlines() error = %v", err)
	}
	o := NewOracle(s)
	if got := o.PriceOn(day("2024-01-01")); got != 44179.55 {
		t.Errorf("PriceOn(2024-01-01) = %v, want 44179.55", got)
	}
	if got := o.PriceOn(day("2024-01-02")); got != 44946.91 {
		t.Errorf("PriceOn(2024-01-02) = %v, want 44946.91", got)
	}
}

func TestDecodePricesJSON(t *testing.T) {
	in := `{"prices": [{"date": "2024-01-01", "close": 1.5}, {"date": "2024-01-02T00:00:00Z", "close": "2.5"}]}`
	s, err := DecodePricesJSON(strings.NewReader(in), "$.prices[*].date", "$.prices[*].close")
	if err != nil {
		t.Fatalf("DecodePricesJSON() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got := NewOracle(s).PriceOn(day("2024-01-02")); got != 2.5 {
		t.Errorf("PriceOn(2024-01-02) = %v, want 2.5", got)
	}

	if _, err := DecodePricesJSON(strings.NewReader(in), "$.prices[*].date", "$.prices[0].close"); err == nil {
		t.Errorf("DecodePricesJSON() with unbalanced paths should fail")
	}
}
