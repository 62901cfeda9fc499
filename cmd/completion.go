package cmd

import (
	"flag"
	"io"

	"github.com/etnz/cryptofolio/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors completes flag values by flag name.
var flagPredictors = map[string]complete.Predictor{
	"config":   predict.Files("*.yaml"),
	"ledger":   predict.Files("*.csv"),
	"prices":   predict.Files("*"),
	"out":      predict.Dirs("*"),
	"db":       predict.Files("*.db"),
	"tie":      predict.Set{"earlier", "later"},
	"unpriced": predict.Set{"par", "zero"},
	"on":       predict.Something,
	"from":     predict.Something,
	"to":       predict.Something,
	"model":    predict.Something,
}

// Completion returns the shell completion tree of the folio commands.
//
// Running the program with COMP_INSTALL=1 installs it in the user's shell.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(flag.CommandLine),
	}
	for _, c := range Commands {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		f.SetOutput(io.Discard)
		c.SetFlags(f)
		sub := &complete.Command{Flags: predictFlags(f)}
		if c.Name() == "topic" {
			topics, _ := docs.GetAllTopics()
			sub.Args = predict.Set(append(topics, "readme"))
		}
		if c.Name() == "runs" {
			sub.Args = predict.Set{"transactions", "positions", "returns"}
		}
		root.Sub[c.Name()] = sub
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{Args: predict.Set(commandNames())}
	}
	return root
}

func predictFlags(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		if p, ok := flagPredictors[fl.Name]; ok {
			flags[fl.Name] = p
			return
		}
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[fl.Name] = predict.Nothing
			return
		}
		flags[fl.Name] = predict.Something
	})
	return flags
}

func commandNames() []string {
	names := make([]string, 0, len(Commands))
	for _, c := range Commands {
		names = append(names, c.Name())
	}
	return names
}
