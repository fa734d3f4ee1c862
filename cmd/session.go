package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type registerCmd struct {
	email    string
	password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "open a client account and log into it" }
func (*registerCmd) Usage() string {
	return `bkr register -e <email> -p <password>

  Creates a client account credited with the starting balance and makes it
  the current session.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "e", "", "Email of the new account.")
	f.StringVar(&c.password, "p", "", "Password of the new account.")
}

func (c *registerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.ledger.Register(ctx, c.email, c.password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Registered %s (%s) with %s\n", u.Email, u.ID, u.Balance)
		return nil
	})
}

type loginCmd struct {
	email    string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "open a session" }
func (*loginCmd) Usage() string {
	return `bkr login -e <email> -p <password>

  Authenticates and makes the account the current session. Every other
  command acts on behalf of that account.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "e", "", "Account email.")
	f.StringVar(&c.password, "p", "", "Account password.")
}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.ledger.Login(ctx, c.email, c.password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Logged in as %s (%s)\n", u.Email, u.Role)
		return nil
	})
}

type logoutCmd struct{}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "close the current session" }
func (*logoutCmd) Usage() string            { return "bkr logout\n" }
func (*logoutCmd) SetFlags(f *flag.FlagSet) {}

func (c *logoutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if err := a.ledger.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")
		return nil
	})
}

type whoamiCmd struct{}

func (*whoamiCmd) Name() string             { return "whoami" }
func (*whoamiCmd) Synopsis() string         { return "print the current session" }
func (*whoamiCmd) Usage() string            { return "bkr whoami\n" }
func (*whoamiCmd) SetFlags(f *flag.FlagSet) {}

func (c *whoamiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.currentUser()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s, %s), balance %s\n", u.Email, u.ID, u.Role, u.Balance)
		return nil
	})
}
