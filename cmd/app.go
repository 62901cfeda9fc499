// Package cmd implements the folio command line application.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/config"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", os.Getenv("FOLIO_CONFIG"), "Path to the configuration file (YAML or JSON)")
	Verbose    = flag.Bool("v", false, "Log debug messages")
	plain      = flag.Bool("plain", false, "Print markdown as is instead of rendering it for the terminal")
)

// Commands lists the folio subcommands.
var Commands = []subcommands.Command{
	&reportCmd{},
	&balancesCmd{},
	&valuesCmd{},
	&runsCmd{},
	&assistCmd{},
	&topicCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
	c.Register(c.HelpCommand(), "help")
	c.Register(c.FlagsCommand(), "help")
	c.Register(c.CommandsCommand(), "help")
}

// loadConfig reads the configuration and configures the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Logging, *Verbose); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(c config.LoggingConfig, verbose bool) error {
	logrus.SetOutput(os.Stderr)
	if strings.EqualFold(c.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level := logrus.InfoLevel
	if c.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(c.Level); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	return nil
}

// buildReport runs the pipeline on the configured ledger and prices.
//
// An empty ledger is not an error: the empty report is returned with a logged warning.
func buildReport(cfg *config.Config) (*cryptofolio.Report, error) {
	f, err := os.Open(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("could not open ledger %q: %w", cfg.Ledger, err)
	}
	defer f.Close()

	oracle, err := cfg.Oracle()
	if err != nil {
		return nil, fmt.Errorf("could not load prices: %w", err)
	}

	opts := cfg.Options()
	opts.Logger = logrus.StandardLogger()
	loader := cryptofolio.Loader{Scopes: cfg.Scopes(), Logger: opts.Logger}
	res, err := loader.Load(f)
	r, err := cryptofolio.NewReportFromLoad(res, err, oracle, opts)
	if errors.Is(err, cryptofolio.ErrEmptySource) {
		logrus.WithField("ledger", cfg.Ledger).Warn("ledger has no valid event, writing empty tables")
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not build report from %q: %w", cfg.Ledger, err)
	}
	logrus.WithFields(logrus.Fields{
		"events":   r.Events,
		"dropped":  r.Dropped,
		"mode":     r.Mode,
		"warnings": len(r.Warnings),
	}).Debug("report built")
	return r, nil
}

// printMarkdown renders md for the terminal, unless -plain is set.
func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	logrus.WithError(err).Debug("markdown rendering failed")
	fmt.Print(md)
}
