// Command bkr is a brokerage ledger: clients trade, deposit and withdraw,
// administrators review the requests and keep the balances reconciled.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/etnz/brokerage/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "bkr")
	cmd.Register(commander)
	cmd.Complete(commander)

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
