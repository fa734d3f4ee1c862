package cmd

import (
	"flag"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/price"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Complete handles shell completion requests for bkr. It returns without
// effect unless the shell asked for completions, or COMP_INSTALL=1 asked to
// install them.
func Complete(c *subcommands.Commander) {
	completion(c).Complete(c.Name())
}

// completion describes the commands and flags of c.
func completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{},
	}
	c.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = flagPredictor(f)
	})
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = flagPredictor(f)
		})
		if cmd.Name() == "help" {
			var names predict.Set
			c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
				names = append(names, cmd.Name())
			})
			sub.Args = names
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func flagPredictor(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch f.Name {
	case "s":
		var symbols predict.Set
		for _, a := range price.DefaultAssets() {
			symbols = append(symbols, a.Symbol)
		}
		return symbols
	case "kind":
		return predict.Set{string(brokerage.EWallet), string(brokerage.BankAccount)}
	case "status":
		return predict.Set{string(brokerage.StatusPending), string(brokerage.StatusApproved), string(brokerage.StatusRejected)}
	case "html":
		return predict.Files("*.html")
	case "config":
		return predict.Files("*.yaml")
	}
	return predict.Something
}
