// Package store keeps the reports of successive runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/date"
	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store is a report database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Run describes a stored report.
type Run struct {
	ID                string
	CreatedAt         time.Time
	Span              date.Range
	Mode              string
	ValuationCurrency string
	ReferenceAsset    string
	Events            int
	Dropped           int
}

// Warning is a stored warning. Kind is the name of the warning kind.
type Warning struct {
	Kind    string
	Day     date.Date
	Scope   string
	Asset   string
	Message string
}

// SaveReport stores r in a single transaction and returns its run id.
func (s *Store) SaveReport(ctx context.Context, r *cryptofolio.Report) (string, error) {
	now := time.Now().UTC()
	runID := NewRunID(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created_at, first_day, last_day, mode, valuation_currency, reference_asset, events, dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, now, dayText(r.Span.From), dayText(r.Span.To), r.Mode.String(),
		r.Options.ValuationCurrency, r.Options.ReferenceAsset, r.Events, r.Dropped,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if r.Valuation != nil {
		for _, d := range r.Valuation.Days {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO daily_values (run_id, day, value, reference_price, price_source)
				VALUES (?, ?, ?, ?, ?)`,
				runID, d.Date.String(), d.Value, d.ReferencePrice, d.PriceSource.String(),
			); err != nil {
				return "", fmt.Errorf("insert daily value %s: %w", d.Date, err)
			}
		}
	}

	for _, t := range r.Tables() {
		if err := insertTable(ctx, tx, runID, t); err != nil {
			return "", err
		}
	}

	st := r.Statistics
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO statistics
		(run_id, days, start_value, end_value, total_return, annualized_return, volatility, max_drawdown, sharpe,
		 positive_days, negative_days, flat_days, mean_return, min_return, max_return, win_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, st.Days, nullable(st.StartValue), nullable(st.EndValue), nullable(st.TotalReturn), nullable(st.AnnualizedReturn),
		nullable(st.Volatility), nullable(st.MaxDrawdown), nullable(st.Sharpe),
		st.PositiveDays, st.NegativeDays, st.FlatDays,
		nullable(st.MeanReturn), nullable(st.MinReturn), nullable(st.MaxReturn), nullable(st.WinRate),
	); err != nil {
		return "", fmt.Errorf("insert statistics: %w", err)
	}

	for i, w := range r.Warnings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO warnings (run_id, seq, kind, day, scope, asset, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, w.Kind.String(), dayText(w.Day), w.Scope, w.Asset, w.Message,
		); err != nil {
			return "", fmt.Errorf("insert warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

func insertTable(ctx context.Context, tx *sql.Tx, runID string, t *cryptofolio.Table) error {
	if t == nil {
		return nil
	}
	for i, name := range t.Columns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO export_columns (run_id, table_name, position, name) VALUES (?, ?, ?, ?)`,
			runID, t.Name, i, name,
		); err != nil {
			return fmt.Errorf("insert %s column: %w", t.Name, err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO export_cells (run_id, table_name, row_index, day, position, value)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, row := range t.Rows {
		for j, v := range row.Values {
			if _, err := stmt.ExecContext(ctx, runID, t.Name, i, row.Date.String(), j, nullable(v)); err != nil {
				return fmt.Errorf("insert %s row %s: %w", t.Name, row.Date, err)
			}
		}
	}
	return nil
}

// nullable maps NaN, which SQLite cannot store, to NULL.
func nullable(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: !math.IsNaN(f)}
}

func fromNullable(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func dayText(d date.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDay(s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, nil
	}
	return date.Parse(s)
}

// Runs lists the stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, first_day, last_day, mode, valuation_currency, reference_asset, events, dropped
		FROM runs
		ORDER BY run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Run returns a stored run.
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, first_day, last_day, mode, valuation_currency, reference_asset, events, dropped
		FROM runs
		WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var first, last string
	if err := sc.Scan(&run.ID, &run.CreatedAt, &first, &last, &run.Mode,
		&run.ValuationCurrency, &run.ReferenceAsset, &run.Events, &run.Dropped); err != nil {
		return Run{}, err
	}
	var err error
	if run.Span.From, err = parseDay(first); err != nil {
		return Run{}, err
	}
	if run.Span.To, err = parseDay(last); err != nil {
		return Run{}, err
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return run, nil
}

// Values returns the daily portfolio values of a run, keyed by day in order.
func (s *Store) Values(ctx context.Context, runID string) (*date.History[float64], error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, value FROM daily_values WHERE run_id = ? ORDER BY day ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	h := new(date.History[float64])
	for rows.Next() {
		var day string
		var v float64
		if err := rows.Scan(&day, &v); err != nil {
			return nil, err
		}
		d, err := date.Parse(day)
		if err != nil {
			return nil, err
		}
		h.Append(d, v)
	}
	return h, rows.Err()
}

// Table rebuilds an exported table of a run.
func (s *Store) Table(ctx context.Context, runID, name string) (*cryptofolio.Table, error) {
	t := &cryptofolio.Table{Name: name}

	cols, err := s.db.QueryContext(ctx, `
		SELECT name FROM export_columns WHERE run_id = ? AND table_name = ? ORDER BY position ASC`, runID, name)
	if err != nil {
		return nil, err
	}
	defer cols.Close()
	for cols.Next() {
		var c string
		if err := cols.Scan(&c); err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, c)
	}
	if err := cols.Err(); err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %q of run %q: %w", name, runID, ErrRunNotFound)
	}

	cells, err := s.db.QueryContext(ctx, `
		SELECT row_index, day, position, value FROM export_cells
		WHERE run_id = ? AND table_name = ?
		ORDER BY row_index ASC, position ASC`, runID, name)
	if err != nil {
		return nil, err
	}
	defer cells.Close()
	for cells.Next() {
		var idx, pos int
		var day string
		var v sql.NullFloat64
		if err := cells.Scan(&idx, &day, &pos, &v); err != nil {
			return nil, err
		}
		if idx >= len(t.Rows) {
			d, err := date.Parse(day)
			if err != nil {
				return nil, err
			}
			t.Rows = append(t.Rows, cryptofolio.Row{Date: d, Values: make([]float64, len(t.Columns))})
		}
		if pos < len(t.Columns) {
			t.Rows[idx].Values[pos] = fromNullable(v)
		}
	}
	return t, cells.Err()
}

// Statistics returns the summary statistics of a run.
func (s *Store) Statistics(ctx context.Context, runID string) (cryptofolio.Statistics, error) {
	var st cryptofolio.Statistics
	var f [11]sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT days, start_value, end_value, total_return, annualized_return, volatility, max_drawdown, sharpe,
		       positive_days, negative_days, flat_days, mean_return, min_return, max_return, win_rate
		FROM statistics WHERE run_id = ?`, runID).Scan(
		&st.Days, &f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6],
		&st.PositiveDays, &st.NegativeDays, &st.FlatDays, &f[7], &f[8], &f[9], &f[10],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	if err != nil {
		return st, err
	}
	st.StartValue, st.EndValue = fromNullable(f[0]), fromNullable(f[1])
	st.TotalReturn, st.AnnualizedReturn = fromNullable(f[2]), fromNullable(f[3])
	st.Volatility, st.MaxDrawdown, st.Sharpe = fromNullable(f[4]), fromNullable(f[5]), fromNullable(f[6])
	st.MeanReturn, st.MinReturn, st.MaxReturn, st.WinRate = fromNullable(f[7]), fromNullable(f[8]), fromNullable(f[9]), fromNullable(f[10])
	return st, nil
}

// Warnings returns the warnings of a run in emission order.
func (s *Store) Warnings(ctx context.Context, runID string) ([]Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, day, scope, asset, message FROM warnings WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warning
	for rows.Next() {
		var w Warning
		var day string
		if err := rows.Scan(&w.Kind, &day, &w.Scope, &w.Asset, &w.Message); err != nil {
			return nil, err
		}
		if w.Day, err = parseDay(day); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
