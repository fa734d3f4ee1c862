package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
)

type depositCmd struct {
	amount string
	method string
	proof  string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "request a deposit" }
func (*depositCmd) Usage() string {
	return `bkr deposit -a <amount> -m <payment method id> -proof <reference>

  Files a pending deposit request. The balance is credited only once an
  administrator approves it. -proof references the transfer receipt.
  'bkr payment-methods' lists the payment methods.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount to deposit.")
	f.StringVar(&c.method, "m", "", "Payment method the money was sent to.")
	f.StringVar(&c.proof, "proof", "", "Reference of the transfer receipt.")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.currentUser()
		if err != nil {
			return err
		}
		amount, err := brokerage.ParseMoney(c.amount, a.ledger.Currency())
		if err != nil {
			return usagef("-a: %v", err)
		}
		tx, err := a.ledger.SubmitDepositRequest(ctx, u.ID, amount, c.method, c.proof)
		if tx != nil {
			fmt.Fprintf(out, "%s (%s), awaiting approval\n", renderer.Transaction(tx), tx.ID())
		}
		return err
	})
}

type withdrawCmd struct {
	amount string
	to     string
	kind   string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "request a withdrawal" }
func (*withdrawCmd) Usage() string {
	return `bkr withdraw -a <amount> -to <account> [-kind ewallet|bank]

  Files a pending withdrawal request. The amount is held from the available
  balance at once and debited when an administrator approves it.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount to withdraw.")
	f.StringVar(&c.to, "to", "", "Wallet phone number or bank account to pay.")
	f.StringVar(&c.kind, "kind", string(brokerage.EWallet), "Destination kind: ewallet or bank.")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.currentUser()
		if err != nil {
			return err
		}
		amount, err := brokerage.ParseMoney(c.amount, a.ledger.Currency())
		if err != nil {
			return usagef("-a: %v", err)
		}
		kind, err := brokerage.ParseDestinationKind(c.kind)
		if err != nil {
			return usagef("-kind: %v", err)
		}
		tx, err := a.ledger.SubmitWithdrawalRequest(ctx, u.ID, amount, brokerage.Destination{Kind: kind, Account: c.to})
		if tx != nil {
			fmt.Fprintf(out, "%s (%s), awaiting approval\n", renderer.Transaction(tx), tx.ID())
		}
		return err
	})
}

type statementCmd struct {
	html string
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "display the account statement" }
func (*statementCmd) Usage() string {
	return `bkr statement [-html <file>]

  Displays the balance, the amount available for withdrawal, the positions
  and the transaction history of the current user. With -html the statement
  is written as a web page instead.
`
}

func (c *statementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.html, "html", "", "Write the statement as HTML to this file.")
}

func (c *statementCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.currentUser()
		if err != nil {
			return err
		}
		available, _ := a.ledger.Available(u.ID)
		md := renderer.StatementMarkdown(renderer.Statement{
			User:         u,
			Available:    available,
			Positions:    a.ledger.Positions(u.ID),
			Transactions: a.ledger.UserTransactions(u.ID),
		})
		if c.html == "" {
			a.printMarkdown(md)
			return nil
		}
		body, err := renderer.HTML(md)
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.html, []byte(renderer.Page("Statement of "+u.Email, body)), 0o644); err != nil {
			return fmt.Errorf("cannot write statement: %w", err)
		}
		fmt.Fprintf(out, "Statement written to %s\n", c.html)
		return nil
	})
}

type txCmd struct {
	user   string
	status string
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions" }
func (*txCmd) Usage() string {
	return `bkr tx [-u <email>] [-status pending|approved|rejected] [-tail <n>]

  Lists the current user's transactions. Administrators may list another
  user's with -u, or everyone's with -u all.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "Email of the user to list, or 'all' (administrators only).")
	f.StringVar(&c.status, "status", "", "Only list transactions in this status.")
	f.IntVar(&c.tail, "tail", 0, "Only list the last n transactions.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		u, err := a.currentUser()
		if err != nil {
			return err
		}
		var status brokerage.Status
		if c.status != "" {
			if status, err = brokerage.ParseStatus(c.status); err != nil {
				return usagef("-status: %v", err)
			}
		}

		title := "Transactions of " + u.Email
		txs := a.ledger.UserTransactions(u.ID)
		var owner func(string) string
		if c.user != "" && c.user != u.Email {
			if _, err := a.admin(); err != nil {
				return err
			}
			owner = a.email
			if c.user == "all" {
				title, txs = "All Transactions", a.ledger.Transactions()
			} else {
				target, err := a.userByEmail(c.user)
				if err != nil {
					return err
				}
				title, txs = "Transactions of "+target.Email, a.ledger.UserTransactions(target.ID)
			}
		}

		if status != "" {
			kept := txs[:0]
			for _, tx := range txs {
				if tx.Status() == status {
					kept = append(kept, tx)
				}
			}
			txs = kept
		}
		if c.tail > 0 && len(txs) > c.tail {
			txs = txs[len(txs)-c.tail:]
		}
		a.printMarkdown(renderer.TransactionsMarkdown(title, txs, owner))
		return nil
	})
}
