package cryptofolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Column names of an exchange statement.
const (
	ColTime      = "UTC_Time"
	ColAccount   = "Account"
	ColOperation = "Operation"
	ColCoin      = "Coin"
	ColChange    = "Change"
	ColRemark    = "Remark"
)

// RequiredColumns lists the columns an event source must provide.
var RequiredColumns = []string{ColTime, ColAccount, ColOperation, ColCoin, ColChange, ColRemark}

// ErrEmptySource is returned when a source holds no valid event.
var ErrEmptySource = errors.New("event source has no valid event")

// SchemaError reports required columns missing from a source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// timeLayouts are tried in order to parse a timestamp.
var timeLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"06-01-02 15:04:05",
	time.DateOnly,
	"20060102",
}

// minEpochMillisDigits is the length under which a number is not read as unix milliseconds.
const minEpochMillisDigits = 12

// ParseTimestamp parses a timestamp and returns it in UTC.
//
// Naive timestamps are interpreted as UTC; timestamps with an offset are
// converted. A number of at least 12 digits is read as unix milliseconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if len(s) >= minEpochMillisDigits {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// DefaultLeadAccount is the exchange account holding the copy-trading book.
const DefaultLeadAccount = "Spot Lead"

// Scope names used by DefaultScopes.
const (
	ScopePrimary = "primary"
	ScopeLead    = "lead"
)

// Scopes maps account names to account scopes.
type Scopes struct {
	Accounts map[string]string // account name -> scope
	Default  string            // scope of any other account, empty keeps the account name.
}

// DefaultScopes puts the lead account in its own scope and every other account in the primary one.
func DefaultScopes() Scopes {
	return Scopes{Accounts: map[string]string{DefaultLeadAccount: ScopeLead}, Default: ScopePrimary}
}

// Of returns the scope of an account.
func (s Scopes) Of(account string) string {
	if scope, ok := s.Accounts[account]; ok {
		return scope
	}
	if s.Default != "" {
		return s.Default
	}
	return account
}

// Loader reads events from an exchange statement in CSV.
type Loader struct {
	Scopes Scopes
	Logger logrus.FieldLogger
}

// LoadResult is the output of a load.
type LoadResult struct {
	Journal  *Journal
	Dropped  int       // number of invalid rows skipped.
	Warnings []Warning // one per dropped row.
}

// LoadEvents reads events with the default scopes.
func LoadEvents(r io.Reader) (*LoadResult, error) {
	return Loader{Scopes: DefaultScopes()}.Load(r)
}

// Load reads every row of r into events.
//
// A missing required column is a *SchemaError. Rows with an unparseable
// timestamp or change are dropped and counted. If no valid row remains the
// error wraps ErrEmptySource, and the partial result is still returned.
func (l Loader) Load(r io.Reader) (*LoadResult, error) {
	ws := newWarnings(l.Logger)
	res := &LoadResult{Journal: NewJournal(nil)}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, fmt.Errorf("reading header: %w", ErrEmptySource)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var events []Event
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.Dropped++
			ws.add(Warning{Kind: InvalidRow, Message: fmt.Sprintf("row %d dropped: %v", row, err)})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row, err)
		}
		e, err := l.parseRow(rec, cols, row)
		if err != nil {
			res.Dropped++
			ws.add(Warning{Kind: InvalidRow, Message: fmt.Sprintf("row %d dropped: %v", row, err)})
			continue
		}
		events = append(events, e)
	}
	res.Journal = NewJournal(events)
	res.Warnings = ws.Warnings()
	if len(events) == 0 {
		return res, fmt.Errorf("%d row(s) dropped: %w", res.Dropped, ErrEmptySource)
	}
	return res, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return cols, nil
}

func (l Loader) parseRow(rec []string, cols map[string]int, row int) (Event, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	ts, err := ParseTimestamp(field(ColTime))
	if err != nil {
		return Event{}, err
	}
	delta, err := decimal.NewFromString(field(ColChange))
	if err != nil {
		return Event{}, fmt.Errorf("invalid change %q: %w", field(ColChange), err)
	}
	op := field(ColOperation)
	return Event{
		Time:      ts,
		Account:   field(ColAccount),
		Scope:     l.Scopes.Of(field(ColAccount)),
		Kind:      ClassifyOperation(op, delta),
		Operation: op,
		Asset:     strings.ToUpper(field(ColCoin)),
		Delta:     delta,
		Memo:      field(ColRemark),
		Seq:       row,
	}, nil
}
