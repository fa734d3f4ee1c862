// Package cmd implements the bkr command line: a brokerage ledger with client
// and administrator commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/config"
	"github.com/etnz/brokerage/logging"
	"github.com/etnz/brokerage/price"
	"github.com/etnz/brokerage/sqlstore"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&registerCmd{}, "session")
	c.Register(&loginCmd{}, "session")
	c.Register(&logoutCmd{}, "session")
	c.Register(&whoamiCmd{}, "session")

	c.Register(&quoteCmd{}, "trading")
	c.Register(&tradeCmd{side: brokerage.SideBuy}, "trading")
	c.Register(&tradeCmd{side: brokerage.SideSell}, "trading")
	c.Register(&watchCmd{}, "trading")

	c.Register(&depositCmd{}, "wallet")
	c.Register(&withdrawCmd{}, "wallet")
	c.Register(&statementCmd{}, "wallet")
	c.Register(&txCmd{}, "wallet")

	c.Register(&pendingCmd{}, "admin")
	c.Register(&reviewCmd{status: brokerage.StatusApproved}, "admin")
	c.Register(&reviewCmd{status: brokerage.StatusRejected}, "admin")
	c.Register(&adjustCmd{}, "admin")
	c.Register(&usersCmd{}, "admin")
	c.Register(&reconcileCmd{}, "admin")
	c.Register(&paymentMethodsCmd{}, "admin")
	c.Register(&contactCmd{}, "admin")
	c.Register(&queryCmd{}, "admin")

	c.Register(&topicCmd{}, "help")
	c.Register(c.HelpCommand(), "help")
	c.Register(c.FlagsCommand(), "help")
	c.Register(c.CommandsCommand(), "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the configuration file. Defaults to bkr.yaml in the working directory or in ~/.config/bkr.")
var plainOutput = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal.")
var storeFlag = flag.String("store", "", "Store backend: file, sqlite or memory. Overrides the configuration.")
var dataFlag = flag.String("data", "", "Path of the ledger file or database. Overrides the configuration.")
var verbose = flag.Bool("v", false, "Log debug messages.")

// out and errOut are swapped by tests.
var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

// app is what a command runs against: the configuration, the ledger and the
// market board.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	ledger  *brokerage.Ledger
	board   *price.Board
	assets  []price.Asset
	closers []io.Closer
}

// openApp loads the configuration and opens the ledger.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*configFile, ".env")
	if err != nil {
		return nil, err
	}
	if *plainOutput {
		cfg.Plain = true
	}
	if *storeFlag != "" {
		cfg.Store = *storeFlag
	}
	if *dataFlag != "" {
		cfg.Data = *dataFlag
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	log, logCloser, err := logging.New(cfg.Log, errOut)
	if err != nil {
		return nil, err
	}
	// packages logging through slog's default, like price.Run, follow the
	// configuration until the app is closed.
	prev := slog.Default()
	slog.SetDefault(log)
	restore := closerFunc(func() error { slog.SetDefault(prev); return nil })
	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser, restore}, assets: price.DefaultAssets()}
	a.board = marketBoard(a.assets, time.Now())

	store, closer, err := openStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.ledger, err = brokerage.Open(ctx, store,
		brokerage.WithLogger(log),
		brokerage.WithCurrency(cfg.Currency),
		brokerage.WithHashCost(cfg.HashCost),
		brokerage.WithQuoter(a.board),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openStore returns the store cfg selects, and what closes it if anything.
// Tests swap it.
var openStore = func(cfg *config.Config) (brokerage.Store, io.Closer, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sqlstore.Open(cfg.Data)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreMemory:
		return &brokerage.MemoryStore{}, nil, nil
	default:
		return brokerage.NewFileStore(cfg.Data), nil, nil
	}
}

// marketBoard returns the board a one-shot command trades at: every asset
// moved one random step away from its base price.
func marketBoard(assets []price.Asset, now time.Time) *price.Board {
	board := price.NewBoard(assets...)
	for _, t := range price.NewWalk(uint64(now.UnixNano()), assets).Next(now) {
		board.Observe(t)
	}
	return board
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// currentUser returns the logged in user.
func (a *app) currentUser() (brokerage.User, error) {
	u, ok := a.ledger.CurrentUser()
	if !ok {
		return brokerage.User{}, errors.New("not logged in, run 'bkr login' first")
	}
	return u, nil
}

// admin returns the logged in user if it is an administrator.
func (a *app) admin() (brokerage.User, error) {
	u, err := a.currentUser()
	if err != nil {
		return u, err
	}
	if !u.IsAdmin() {
		return u, fmt.Errorf("%s is not an administrator", u.Email)
	}
	return u, nil
}

// userByEmail finds a user by email. Emails are case sensitive.
func (a *app) userByEmail(email string) (brokerage.User, error) {
	u, ok := a.ledger.UserByEmail(email)
	if !ok {
		return u, fmt.Errorf("%w: %s", brokerage.ErrUserNotFound, email)
	}
	return u, nil
}

// email names a user in reports.
func (a *app) email(userID string) string {
	if u, ok := a.ledger.User(userID); ok {
		return u.Email
	}
	return userID
}

// usageError is returned by commands invoked with bad flags or arguments.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{fmt.Sprintf(format, args...)} }

// run opens the app, calls do and maps its error to an exit status.
func run(ctx context.Context, do func(*app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	err = do(a)
	if err != nil {
		a.log.Info("command failed", "error", err)
	}
	var usage usageError
	var perr *brokerage.PersistenceError
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.As(err, &usage):
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	case errors.As(err, &perr):
		fmt.Fprintf(errOut, "Error: the change was not saved: %v\n", err)
	default:
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return subcommands.ExitFailure
}

// printMarkdown renders md for the terminal, or prints it as is in plain mode.
func (a *app) printMarkdown(md string) { printMarkdown(md, a.cfg.Plain) }

func printMarkdown(md string, plain bool) {
	if plain {
		fmt.Fprint(out, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var rendered string
		if rendered, err = r.Render(md); err == nil {
			fmt.Fprint(out, rendered)
			return
		}
	}
	slog.Debug("cannot render markdown", "error", err)
	fmt.Fprint(out, md)
}
