package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/cryptofolio/date"
	"github.com/etnz/cryptofolio/renderer"
	"github.com/google/subcommands"
)

// valuesCmd holds the flags for the 'values' subcommand.
type valuesCmd struct {
	inputFlags
	from, to string
}

func (*valuesCmd) Name() string     { return "values" }
func (*valuesCmd) Synopsis() string { return "display the daily portfolio values" }
func (*valuesCmd) Usage() string {
	return `folio values [-from <YYYY-MM-DD>] [-to <YYYY-MM-DD>] [-ledger <statement.csv>]

  Displays the value of the portfolio at the end of every day, with the
  reference asset price used and where that price came from.
`
}

func (c *valuesCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.register(f)
	f.StringVar(&c.from, "from", "", "First day to display (YYYY-MM-DD). Defaults to the first day of the statement.")
	f.StringVar(&c.to, "to", "", "Last day to display (YYYY-MM-DD). Defaults to the last day of the statement.")
}

func (c *valuesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.configure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := buildReport(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		return subcommands.ExitFailure
	}

	period := r.Span
	if c.from != "" {
		if period.From, err = date.Parse(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.to != "" {
		if period.To, err = date.Parse(c.to); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	var b strings.Builder
	if !renderer.RenderValues(&b, r.Valuation, cfg.Valuation.Currency, period) {
		fmt.Println("No value in the period.")
		return subcommands.ExitSuccess
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
