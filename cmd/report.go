package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/config"
	"github.com/etnz/cryptofolio/renderer"
	"github.com/etnz/cryptofolio/store"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// inputFlags are the pipeline inputs every reporting command can override.
type inputFlags struct {
	ledger   string
	prices   string
	tie      string
	unpriced string
}

func (in *inputFlags) register(f *flag.FlagSet) {
	f.StringVar(&in.ledger, "ledger", "", "Exchange statement CSV. Overrides the configured ledger.")
	f.StringVar(&in.prices, "prices", "", "Reference asset price file (CSV, JSON or klines). Overrides the configured prices.")
	f.StringVar(&in.tie, "tie", "", `Side picked when two prices are equally near: "earlier" or "later".`)
	f.StringVar(&in.unpriced, "unpriced", "", `Value of held assets without a price: "par" or "zero".`)
}

func (in *inputFlags) apply(cfg *config.Config) error {
	if in.ledger != "" {
		cfg.Ledger = in.ledger
	}
	if in.prices != "" {
		cfg.Prices.Path = in.prices
	}
	if in.tie != "" {
		cfg.Valuation.Tie = in.tie
	}
	if in.unpriced != "" {
		cfg.Valuation.Unpriced = in.unpriced
	}
	return cfg.Validate()
}

// configure loads the configuration and applies the input flags on top of it.
func (in *inputFlags) configure() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := in.apply(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	inputFlags
	out      string
	db       string
	raw      bool
	noFiles  bool
	sections renderer.ReportRenderOptions
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "export the transactions, positions and returns tables" }
func (*reportCmd) Usage() string {
	return `folio report [-ledger <statement.csv>] [-prices <prices>] [-out <dir>] [-db <file>]

  Replays the exchange statement, values the portfolio every day and writes
  transactions.csv, positions.csv and returns.csv to the output directory.
  A summary of the run is printed.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.register(f)
	f.StringVar(&c.out, "out", "", "Output directory of the tables. Overrides the configured directory.")
	f.StringVar(&c.db, "db", "", "SQLite database to record the run into. Overrides the configured database.")
	f.BoolVar(&c.raw, "raw", false, "Print the report as markdown source.")
	f.BoolVar(&c.noFiles, "n", false, "Do not write the CSV tables.")
	f.BoolVar(&c.sections.SkipBalances, "skip-balances", false, "Omit the final balances section.")
	f.BoolVar(&c.sections.SkipActivity, "skip-activity", false, "Omit the activity section.")
	f.BoolVar(&c.sections.SkipWarnings, "skip-warnings", false, "Omit the warnings section.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.configure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.out != "" {
		cfg.Output.Dir = c.out
	}
	if c.db != "" {
		cfg.Output.Database = c.db
	}

	r, err := buildReport(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		return subcommands.ExitFailure
	}

	if !c.noFiles {
		if err := writeTables(cfg, r); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing tables: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	if cfg.Output.Database != "" {
		runID, err := saveRun(ctx, cfg.Output.Database, r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving run: %v\n", err)
			return subcommands.ExitFailure
		}
		logrus.WithFields(logrus.Fields{"run": runID, "database": cfg.Output.Database}).Info("run saved")
	}

	md := renderer.RenderReport(r, c.sections)
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}

// writeTables writes every table of r as <name>.csv in the output directory.
func writeTables(cfg *config.Config, r *cryptofolio.Report) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}
	for _, t := range r.Tables() {
		path := cfg.OutputPath(t.Name + ".csv")
		if err := writeTable(path, t); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"table": t.Name, "rows": t.Len(), "path": path}).Debug("table written")
	}
	return nil
}

func writeTable(path string, t *cryptofolio.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := cryptofolio.WriteCSV(f, t); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func saveRun(ctx context.Context, path string, r *cryptofolio.Report) (string, error) {
	db, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.SaveReport(ctx, r)
}
