package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/cryptofolio/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct {
	inputFlags
	model       string
	interactive bool
}

func (*assistCmd) Name() string { return "assist" }
func (*assistCmd) Synopsis() string {
	return "ask questions about the portfolio to the AI assistant"
}
func (*assistCmd) Usage() string {
	return `folio assist [-model <name>] [-i] [<question> ...]

  Answers the questions given as arguments, then exits. Without question, or
  with -i, starts an interactive session.
  The Gemini API key is read from GEMINI_API_KEY (or GOOGLE_API_KEY).
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.register(f)
	f.StringVar(&c.model, "model", "", "Gemini model. Overrides the configured model.")
	f.BoolVar(&c.interactive, "i", false, "Keep the session open after the questions given as arguments.")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.configure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	model := cfg.Assist.Model
	if c.model != "" {
		model = c.model
	}

	r, err := buildReport(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing Gemini's client: %v\n", err)
		return subcommands.ExitFailure
	}

	a := agent.New(model, os.Stdout, os.Stdin, agent.NewTrader(model), agent.NewAnalyst(model, r))
	a.Print = func(_ io.Writer, md string) { printMarkdown(md) }

	interactive := c.interactive || f.NArg() == 0
	if err := a.Run(ctx, client, interactive, f.Args()...); err != nil {
		fmt.Fprintf(os.Stderr, "Error running the assistant: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
