package cryptofolio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/cryptofolio/date"
)

// DecodePricesCSV reads a price table with a "date" column and a
// "close_price" (or "close") column.
//
// Dates may carry a time of day, only the UTC day is kept. Rows that do not
// parse are skipped.
func DecodePricesCSV(r io.Reader) (*PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewPriceSeries(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading price header: %w", err)
	}
	di, ci := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "timestamp", "open_time":
			if di < 0 {
				di = i
			}
		case "close_price":
			ci = i
		case "close":
			if ci < 0 {
				ci = i
			}
		}
	}
	if di < 0 || ci < 0 {
		return nil, &SchemaError{Missing: missingPriceColumns(di, ci)}
	}

	s := NewPriceSeries()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading prices: %w", err)
		}
		if di >= len(rec) || ci >= len(rec) {
			continue
		}
		ts, err := ParseTimestamp(rec[di])
		if err != nil {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(rec[ci]), 64)
		if err != nil {
			continue
		}
		s.Set(date.Of(ts), p)
	}
}

func missingPriceColumns(di, ci int) []string {
	var missing []string
	if di < 0 {
		missing = append(missing, "date")
	}
	if ci < 0 {
		missing = append(missing, "close_price")
	}
	return missing
}

// DecodePricesJSON reads a price series from any JSON document.
//
// datePath and closePath are JSONPath expressions selecting parallel lists of
// dates and closing prices, for instance "$.prices[*].date" and
// "$.prices[*].close". Dates are ISO strings or epoch milliseconds; prices
// are numbers or numeric strings.
func DecodePricesJSON(r io.Reader, datePath, closePath string) (*PriceSeries, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding price document: %w", err)
	}
	dates, err := jsonList(datePath, doc)
	if err != nil {
		return nil, err
	}
	closes, err := jsonList(closePath, doc)
	if err != nil {
		return nil, err
	}
	if len(dates) != len(closes) {
		return nil, fmt.Errorf("price document has %d dates for %d prices", len(dates), len(closes))
	}
	s := NewPriceSeries()
	for i := range dates {
		on, err := jsonDate(dates[i])
		if err != nil {
			return nil, fmt.Errorf("price %d: %w", i, err)
		}
		p, err := jsonFloat(closes[i])
		if err != nil {
			return nil, fmt.Errorf("price %d: %w", i, err)
		}
		s.Set(on, p)
	}
	return s, nil
}

// DecodeKlines reads exchange kline arrays, where each entry starts with the
// open time in milliseconds and holds the close price at index 4.
func DecodeKlines(r io.Reader) (*PriceSeries, error) {
	return DecodePricesJSON(r, "$[*][0]", "$[*][4]")
}

func jsonList(path string, doc any) ([]any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", path, err)
	}
	// jsonpath returns a bare value for non-wildcard paths.
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

func jsonDate(v any) (date.Date, error) {
	switch x := v.(type) {
	case float64:
		return date.Of(time.UnixMilli(int64(x))), nil
	case string:
		ts, err := ParseTimestamp(x)
		if err != nil {
			return date.Date{}, err
		}
		return date.Of(ts), nil
	default:
		return date.Date{}, fmt.Errorf("unsupported date %v", v)
	}
}

func jsonFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("unsupported price %v", v)
	}
}
