package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/price"
	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
)

type quoteCmd struct {
	symbol string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "display market prices" }
func (*quoteCmd) Usage() string {
	return `bkr quote [-s <symbol>]

  Displays the current price of every asset, or of a single symbol.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol to quote, e.g. BTC/USD.")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if c.symbol == "" {
			a.printMarkdown(renderer.QuotesMarkdown(a.assets, a.board))
			return nil
		}
		p, err := a.board.Quote(ctx, c.symbol)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", c.symbol, p)
		return nil
	})
}

// tradeCmd is both buy and sell.
type tradeCmd struct {
	side     brokerage.Side
	symbol   string
	quantity string
	price    string
}

func (c *tradeCmd) Name() string { return string(c.side) }
func (c *tradeCmd) Synopsis() string {
	return fmt.Sprintf("%s an asset at the market price", c.side)
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`bkr %s -s <symbol> -q <quantity> [-p <price>]

  Executes immediately. Without -p the trade is filled at the current market
  price. The notional, quantity times price, moves the balance at once.
`, c.side)
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol to trade, e.g. BTC/USD.")
	f.StringVar(&c.quantity, "q", "", "Quantity to trade.")
	f.StringVar(&c.price, "p", "", "Fill price. Defaults to the market price.")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if c.symbol == "" || c.quantity == "" {
			return usagef("%s needs -s and -q", c.side)
		}
		u, err := a.currentUser()
		if err != nil {
			return err
		}
		q, err := brokerage.ParseQuantity(c.quantity)
		if err != nil {
			return usagef("%v", err)
		}
		var tx brokerage.Transaction
		if c.price == "" {
			tx, err = a.ledger.PlaceOrder(ctx, u.ID, c.side, q, c.symbol)
		} else {
			p, perr := brokerage.ParseMoney(c.price, a.ledger.Currency())
			if perr != nil {
				return usagef("%v", perr)
			}
			tx, err = a.ledger.SubmitTrade(ctx, u.ID, c.side, q, p, c.symbol)
		}
		if tx != nil {
			fmt.Fprintf(out, "%s (%s)\n", renderer.Transaction(tx), tx.ID())
		}
		return err
	})
}

// alertFlags collects repeated -alert flags.
type alertFlags []string

func (a *alertFlags) String() string     { return strings.Join(*a, ",") }
func (a *alertFlags) Set(s string) error { *a = append(*a, s); return nil }

type watchCmd struct {
	rounds int
	every  time.Duration
	alerts alertFlags
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "follow live market prices" }
func (*watchCmd) Usage() string {
	return `bkr watch [-n <rounds>] [-every <period>] [-alert SYMBOL>PRICE|SYMBOL<PRICE]...

  Prints the market board after every price update and the alerts as they
  trigger. Stops after -n updates, or on interrupt when -n is 0.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.rounds, "n", 5, "Number of updates to print; 0 runs until interrupted.")
	f.DurationVar(&c.every, "every", 0, "Period between updates. Defaults to the configured tick.")
	f.Var(&c.alerts, "alert", "Price alert, e.g. 'BTC/USD>70000'. May be repeated.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		var alerts price.Alerts
		for _, s := range c.alerts {
			symbol, cond, target, err := price.ParseAlert(s)
			if err != nil {
				return usagef("%v", err)
			}
			if _, ok := a.board.Latest(symbol); !ok {
				return usagef("alert %q: %v", s, brokerage.ErrUnknownSymbol)
			}
			if _, err := alerts.Add(symbol, cond, target); err != nil {
				return usagef("%v", err)
			}
		}
		every := c.every
		if every <= 0 {
			every = a.cfg.Tick
		}
		return watch(ctx, a, every, c.rounds, &alerts)
	})
}

// watch runs the price feed and prints the board once per round of ticks.
func watch(ctx context.Context, a *app, every time.Duration, rounds int, alerts *price.Alerts) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	walk := price.NewWalk(uint64(time.Now().UnixNano()), a.assets)
	ticks := make(chan price.Tick, 2*len(a.assets))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ticks)
		return price.Run(ctx, every, walk, ticks)
	})
	g.Go(func() error {
		seen, printed := 0, 0
		for t := range ticks {
			a.board.Observe(t)
			for _, al := range alerts.Observe(t) {
				fmt.Fprintf(out, "ALERT %s reached %s\n", al, t.Price)
			}
			if seen++; seen%len(a.assets) != 0 {
				continue
			}
			a.printMarkdown(renderer.QuotesMarkdown(a.assets, a.board))
			if printed++; rounds > 0 && printed >= rounds {
				cancel()
				return nil
			}
		}
		return nil
	})
	err := g.Wait()
	if len(alerts.List()) > 0 {
		a.printMarkdown(renderer.AlertsMarkdown(alerts.List()))
	}
	return err
}
