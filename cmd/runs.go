package cmd

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/renderer"
	"github.com/etnz/cryptofolio/store"
	"github.com/google/subcommands"
)

// runsCmd holds the flags for the 'runs' subcommand.
type runsCmd struct {
	db  string
	csv bool
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list or display the runs recorded in the database" }
func (*runsCmd) Usage() string {
	return `folio runs [-db <file>] [<run-id> [<table>]]

  Without argument, lists the recorded runs.
  With a run id, displays its statistics and warnings.
  With a run id and a table name (transactions, positions or returns), displays that table.
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "", "SQLite database of the runs. Overrides the configured database.")
	f.BoolVar(&c.csv, "csv", false, "Print the table as CSV.")
}

func (c *runsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 2 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	path := cfg.Output.Database
	if c.db != "" {
		path = c.db
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no database configured, use -db or output.database")
		return subcommands.ExitUsageError
	}

	db, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database %q: %v\n", path, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	var b strings.Builder
	switch f.NArg() {
	case 0:
		err = listRuns(ctx, &b, db)
	case 1:
		err = showRun(ctx, &b, db, f.Arg(0))
	default:
		var t *cryptofolio.Table
		if t, err = db.Table(ctx, f.Arg(0), f.Arg(1)); err == nil {
			if c.csv {
				if err := cryptofolio.WriteCSV(os.Stdout, t); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing table: %v\n", err)
					return subcommands.ExitFailure
				}
				return subcommands.ExitSuccess
			}
			renderer.RenderTable(&b, t)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading runs: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

func listRuns(ctx context.Context, b *strings.Builder, db *store.Store) error {
	runs, err := db.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(b, "No run recorded.")
		return nil
	}
	fmt.Fprintln(b, "# Runs")
	fmt.Fprintln(b)
	fmt.Fprintln(b, "| Run | Created | From | To | Mode | Events | Dropped |")
	fmt.Fprintln(b, "|:---|:---|:---|:---|:---|---:|---:|")
	for _, r := range runs {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %d | %d |\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Span.From, r.Span.To, r.Mode, r.Events, r.Dropped)
	}
	return nil
}

func showRun(ctx context.Context, b *strings.Builder, db *store.Store, runID string) error {
	run, err := db.Run(ctx, runID)
	if err != nil {
		return err
	}
	st, err := db.Statistics(ctx, runID)
	if err != nil {
		return err
	}
	warnings, err := db.Warnings(ctx, runID)
	if err != nil {
		return err
	}

	cur := run.ValuationCurrency
	fmt.Fprintf(b, "# Run %s\n\n", run.ID)
	fmt.Fprintf(b, "From %s to %s, %s prices of %s, %d events (%d dropped).\n\n",
		run.Span.From, run.Span.To, run.Mode, run.ReferenceAsset, run.Events, run.Dropped)
	fmt.Fprintln(b, "| Statistic | Value |")
	fmt.Fprintln(b, "|:---|---:|")
	fmt.Fprintf(b, "| Days | %d |\n", st.Days)
	fmt.Fprintf(b, "| Start value | %s |\n", amount(st.StartValue, cur))
	fmt.Fprintf(b, "| End value | %s |\n", amount(st.EndValue, cur))
	fmt.Fprintf(b, "| Total return | %s |\n", cryptofolio.Ratio(st.TotalReturn).SignedString())
	fmt.Fprintf(b, "| Annualized return | %s |\n", cryptofolio.Ratio(st.AnnualizedReturn).SignedString())
	fmt.Fprintf(b, "| Volatility | %s |\n", cryptofolio.Ratio(st.Volatility))
	fmt.Fprintf(b, "| Max drawdown | %s |\n", cryptofolio.Ratio(st.MaxDrawdown))
	fmt.Fprintf(b, "| Sharpe | %s |\n", number(st.Sharpe))
	fmt.Fprintf(b, "| Win rate | %s |\n", cryptofolio.Ratio(st.WinRate))
	fmt.Fprintln(b)

	if len(warnings) > 0 {
		fmt.Fprintf(b, "## Warnings (%d)\n\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(b, "* %s: %s\n", w.Kind, w.Message)
		}
		fmt.Fprintln(b)
	}
	return nil
}

func amount(v float64, cur string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return cryptofolio.M(v, cur).String()
}

func number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
