package store

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = `UTC_Time,Account,Operation,Coin,Change,Remark
2024-01-01 08:00:00,Spot,Deposit,USDT,10000,
2024-01-01 09:00:00,Spot,Transaction Spend,USDT,-3000,
2024-01-01 09:00:00,Spot,Transaction Buy,BTC,0.1,
2024-01-03 09:00:00,Spot,Transaction Sold,BTC,-0.05,
2024-01-03 09:00:00,Spot,Transaction Revenue,USDT,1600,
2024-01-03 10:00:00,Spot,Simple Earn Flexible Interest,USDT,0.01,
`

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func newTestReport(t *testing.T) *cryptofolio.Report {
	t.Helper()
	res, err := cryptofolio.LoadEvents(strings.NewReader(statement))
	oracle := cryptofolio.NewOracle(cryptofolio.NewPriceSeries().
		Set(date.New(2024, 1, 1), 30000).
		Set(date.New(2024, 1, 3), 32000))
	r, err := cryptofolio.NewReportFromLoad(res, err, oracle, cryptofolio.DefaultOptions())
	require.NoError(t, err)
	return r
}

func TestSchemaCreated(t *testing.T) {
	t.Parallel()
	s, path := newTestStore(t)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())
	for _, name := range []string{"runs", "daily_values", "export_columns", "export_cells", "statistics", "warnings"} {
		assert.True(t, found[name], name)
	}
}

func TestSaveReport(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()
	r := newTestReport(t)

	runID, err := s.SaveReport(ctx, r)
	require.NoError(t, err)

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, r.Span, run.Span)
	assert.Equal(t, "series", run.Mode)
	assert.Equal(t, "USDT", run.ValuationCurrency)
	assert.Equal(t, r.Events, run.Events)

	values, err := s.Values(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, r.Valuation.Len(), values.Len())
	for _, d := range r.Valuation.Days {
		got, ok := values.Get(d.Date)
		assert.True(t, ok, d.Date)
		assert.InDelta(t, d.Value, got, 1e-9, d.Date)
	}

	for _, want := range r.Tables() {
		got, err := s.Table(ctx, runID, want.Name)
		require.NoError(t, err, want.Name)
		assert.Equal(t, want.Columns, got.Columns, want.Name)
		require.Equal(t, want.Len(), got.Len(), want.Name)
		for i := range want.Rows {
			assert.Equal(t, want.Rows[i].Date, got.Rows[i].Date)
			assert.InDeltaSlice(t, want.Rows[i].Values, got.Rows[i].Values, 1e-9)
		}
	}

	st, err := s.Statistics(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, r.Statistics.Days, st.Days)
	assert.InDelta(t, r.Statistics.TotalReturn, st.TotalReturn, 1e-12)

	warnings, err := s.Warnings(ctx, runID)
	require.NoError(t, err)
	require.Len(t, warnings, len(r.Warnings))
	for i, w := range r.Warnings {
		assert.Equal(t, w.Kind.String(), warnings[i].Kind)
		assert.Equal(t, w.Message, warnings[i].Message)
	}
}

func TestRunsAreOrdered(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()
	r := newTestReport(t)

	first, err := s.SaveReport(ctx, r)
	require.NoError(t, err)
	second, err := s.SaveReport(ctx, r)
	require.NoError(t, err)
	assert.Less(t, first, second)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
}

func TestUnknownRun(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Run(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Statistics(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Table(ctx, "nope", cryptofolio.PositionsTable)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestEmptyReport(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveReport(ctx, cryptofolio.EmptyReport(cryptofolio.DefaultOptions()))
	require.NoError(t, err)
	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	assert.True(t, run.Span.From.IsZero())

	got, err := s.Table(ctx, runID, cryptofolio.TransactionsTable)
	require.NoError(t, err)
	assert.Equal(t, []string{cryptofolio.ColTxnVolume, cryptofolio.ColTxnShares}, got.Columns)
	assert.Equal(t, 0, got.Len())
}

func TestNullable(t *testing.T) {
	assert.False(t, nullable(math.NaN()).Valid)
	assert.True(t, math.IsNaN(fromNullable(nullable(math.NaN()))))
	assert.Equal(t, 1.5, fromNullable(nullable(1.5)))
}

func TestRunID(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b := NewRunID(at), NewRunID(at)
	assert.Less(t, a, b, "ids of the same instant stay ordered")

	got, err := RunTime(a)
	require.NoError(t, err)
	assert.Equal(t, at, got)

	_, err = RunTime("not-an-id")
	assert.Error(t, err)
}
