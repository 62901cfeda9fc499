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

// balancesCmd holds the flags for the 'balances' subcommand.
type balancesCmd struct {
	inputFlags
	on string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "display the balances per scope at the end of a day" }
func (*balancesCmd) Usage() string {
	return `folio balances [-on <YYYY-MM-DD>] [-ledger <statement.csv>]

  Displays the balance of every asset, per scope, at the end of a day.
  Defaults to the last day of the statement.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.register(f)
	f.StringVar(&c.on, "on", "", "Day of the balances (YYYY-MM-DD). Defaults to the last day of the statement.")
}

func (c *balancesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var on date.Date
	if c.on != "" {
		var err error
		if on, err = date.Parse(c.on); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

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
	if r.Balances == nil {
		fmt.Println("The statement has no event.")
		return subcommands.ExitSuccess
	}
	if on.IsZero() {
		on = r.Span.To
	}

	var b strings.Builder
	if !renderer.RenderBalances(&b, r.Balances, on) {
		fmt.Printf("No balance on %s.\n", on)
		return subcommands.ExitSuccess
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
