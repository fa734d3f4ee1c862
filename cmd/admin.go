package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
)

type pendingCmd struct{}

func (*pendingCmd) Name() string     { return "pending" }
func (*pendingCmd) Synopsis() string { return "list the requests waiting for review" }
func (*pendingCmd) Usage() string {
	return `bkr pending

  Lists pending deposits and withdrawals, oldest first, with the balance
  change approving each one would make.
`
}
func (*pendingCmd) SetFlags(f *flag.FlagSet) {}

func (c *pendingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if _, err := a.admin(); err != nil {
			return err
		}
		a.printMarkdown(renderer.ReviewQueueMarkdown(a.ledger.Pending(), a.email))
		return nil
	})
}

// reviewCmd is both approve and reject.
type reviewCmd struct {
	status brokerage.Status
}

func (c *reviewCmd) Name() string {
	if c.status == brokerage.StatusApproved {
		return "approve"
	}
	return "reject"
}
func (c *reviewCmd) Synopsis() string { return c.Name() + " pending requests" }
func (c *reviewCmd) Usage() string {
	return fmt.Sprintf(`bkr %s <transaction id>...

  Moves each pending request to %s. Approving a deposit credits the balance,
  approving a withdrawal debits it if the balance still covers it.
`, c.Name(), c.status)
}
func (*reviewCmd) SetFlags(f *flag.FlagSet) {}

func (c *reviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if f.NArg() == 0 {
			return usagef("%s needs at least one transaction id", c.Name())
		}
		if _, err := a.admin(); err != nil {
			return err
		}
		for _, id := range f.Args() {
			if err := a.ledger.SetTransactionStatus(ctx, id, c.status); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			tx, _ := a.ledger.Transaction(id)
			fmt.Fprintf(out, "%s %s: %s\n", c.status, id, renderer.Transaction(tx))
		}
		return nil
	})
}

type adjustCmd struct {
	user  string
	delta string
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "override a user balance" }
func (*adjustCmd) Usage() string {
	return `bkr adjust -u <email> -a <signed amount>

  Adds the amount to the user's balance without a transaction. The override
  is recorded and shows in 'bkr reconcile'.
`
}

func (c *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "Email of the user to adjust.")
	f.StringVar(&c.delta, "a", "", "Amount to add, negative to remove.")
}

func (c *adjustCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if _, err := a.admin(); err != nil {
			return err
		}
		u, err := a.userByEmail(c.user)
		if err != nil {
			return err
		}
		delta, err := brokerage.ParseMoney(c.delta, a.ledger.Currency())
		if err != nil {
			return usagef("-a: %v", err)
		}
		if err := a.ledger.AdjustBalance(ctx, u.ID, delta); err != nil {
			return err
		}
		u, _ = a.ledger.User(u.ID)
		fmt.Fprintf(out, "%s balance is now %s\n", u.Email, u.Balance)
		return nil
	})
}

type usersCmd struct{}

func (*usersCmd) Name() string             { return "users" }
func (*usersCmd) Synopsis() string         { return "list the accounts" }
func (*usersCmd) Usage() string            { return "bkr users\n" }
func (*usersCmd) SetFlags(f *flag.FlagSet) {}

func (c *usersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if _, err := a.admin(); err != nil {
			return err
		}
		a.printMarkdown(renderer.UsersMarkdown(a.ledger.Users()))
		return nil
	})
}

type reconcileCmd struct {
	user string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "check balances against their history" }
func (*reconcileCmd) Usage() string {
	return `bkr reconcile [-u <email>]

  Recomputes every balance from the opening balance, the approved
  transactions and the overrides, and reports the ones that drift.
  Exits with a failure status when one does.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "Only reconcile this user.")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if _, err := a.admin(); err != nil {
			return err
		}
		var rs []brokerage.Reconciliation
		if c.user == "" {
			rs = a.ledger.ReconcileAll()
		} else {
			u, err := a.userByEmail(c.user)
			if err != nil {
				return err
			}
			r, _ := a.ledger.Reconcile(u.ID)
			rs = append(rs, r)
		}
		a.printMarkdown(renderer.ReconciliationMarkdown(rs, a.email))
		drifting := 0
		for _, r := range rs {
			if !r.Balanced() {
				drifting++
			}
		}
		if drifting > 0 {
			return fmt.Errorf("%d balance(s) drift from their history", drifting)
		}
		return nil
	})
}

type paymentMethodsCmd struct {
	add     bool
	edit    string
	remove  string
	name    string
	details string
}

func (*paymentMethodsCmd) Name() string     { return "payment-methods" }
func (*paymentMethodsCmd) Synopsis() string { return "list or edit the deposit payment methods" }
func (*paymentMethodsCmd) Usage() string {
	return `bkr payment-methods [-add -name <name> -details <details> | -edit <id> [-name <name>] [-details <details>] | -remove <id>]

  Without flags, lists where deposits can be sent and how to reach support.
  Editing requires an administrator.
`
}

func (c *paymentMethodsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.add, "add", false, "Add a payment method.")
	f.StringVar(&c.edit, "edit", "", "ID of the payment method to edit.")
	f.StringVar(&c.remove, "remove", "", "ID of the payment method to remove.")
	f.StringVar(&c.name, "name", "", "Name of the payment method, e.g. 'Vodafone Cash'.")
	f.StringVar(&c.details, "details", "", "Account details clients send money to.")
}

func (c *paymentMethodsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if _, err := a.currentUser(); err != nil {
			return err
		}
		actions := 0
		for _, set := range []bool{c.add, c.edit != "", c.remove != ""} {
			if set {
				actions++
			}
		}
		if actions > 1 {
			return usagef("-add, -edit and -remove are exclusive")
		}
		if actions == 1 {
			if _, err := a.admin(); err != nil {
				return err
			}
		}

		switch {
		case c.add:
			pm, err := a.ledger.AddPaymentMethod(ctx, c.name, c.details)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %s (%s)\n", pm.Name, pm.ID)
			return nil
		case c.edit != "":
			pm, ok := a.ledger.PaymentMethod(c.edit)
			if !ok {
				return fmt.Errorf("%w: %s", brokerage.ErrUnknownPaymentMethod, c.edit)
			}
			if c.name != "" {
				pm.Name = c.name
			}
			if c.details != "" {
				pm.Details = c.details
			}
			if err := a.ledger.UpdatePaymentMethod(ctx, pm); err != nil {
				return err
			}
			fmt.Fprintf(out, "Updated %s\n", pm.ID)
			return nil
		case c.remove != "":
			if err := a.ledger.RemovePaymentMethod(ctx, c.remove); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %s\n", c.remove)
			return nil
		}
		a.printMarkdown(renderer.PaymentMethodsMarkdown(a.ledger.PaymentMethods(), a.ledger.ContactInfo()))
		return nil
	})
}

type contactCmd struct {
	email string
	phone string
}

func (*contactCmd) Name() string     { return "contact" }
func (*contactCmd) Synopsis() string { return "set the support contact" }
func (*contactCmd) Usage() string {
	return `bkr contact [-email <email>] [-phone <phone>]

  Updates the support contact shown to clients. Omitted flags keep their
  current value.
`
}

func (c *contactCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Support email.")
	f.StringVar(&c.phone, "phone", "", "Support phone number.")
}

func (c *contactCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if _, err := a.admin(); err != nil {
			return err
		}
		info := a.ledger.ContactInfo()
		if c.email != "" {
			info.Email = c.email
		}
		if c.phone != "" {
			info.Phone = c.phone
		}
		if err := a.ledger.SetContactInfo(ctx, info); err != nil {
			return err
		}
		fmt.Fprintf(out, "Support contact: %s, %s\n", info.Email, info.Phone)
		return nil
	})
}

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "query the ledger with a JSONPath expression" }
func (*queryCmd) Usage() string {
	return `bkr query <jsonpath>

  Evaluates the expression against the stored ledger and prints the result as
  JSON. Secrets are left out. For instance:

    bkr query '$.transactions[?(@.status=="pending")].id'
    bkr query '$.users[*].balance'
`
}
func (*queryCmd) SetFlags(f *flag.FlagSet) {}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if f.NArg() != 1 {
			return usagef("query needs exactly one expression")
		}
		if _, err := a.admin(); err != nil {
			return err
		}
		doc, err := ledgerDocument(a.ledger)
		if err != nil {
			return err
		}
		val, err := jsonpath.Get(f.Arg(0), doc)
		if err != nil {
			return usagef("cannot evaluate %q: %v", f.Arg(0), err)
		}
		data, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	})
}

// ledgerDocument returns the ledger as generic JSON values, without the
// secret hashes.
func ledgerDocument(l *brokerage.Ledger) (any, error) {
	data, err := brokerage.EncodeSnapshot(l.Snapshot())
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if users, ok := doc["users"].([]any); ok {
		for _, u := range users {
			if u, ok := u.(map[string]any); ok {
				delete(u, "secret")
			}
		}
	}
	return doc, nil
}
