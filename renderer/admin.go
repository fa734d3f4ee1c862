package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/brokerage"
	md "github.com/nao1215/markdown"
)

// ReviewQueueMarkdown lists the requests waiting for an administrator, with
// what approving each one would do.
func ReviewQueueMarkdown(pending []brokerage.Transaction, owner func(userID string) string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Pending Requests")
	if len(pending) == 0 {
		doc.PlainText("Nothing to review.")
		return doc.String()
	}
	table := md.TableSet{
		Header: []string{"ID", "Date", "User", "On Approval", "Request"},
	}
	for _, tx := range pending {
		req := Transaction(tx)
		if d, ok := tx.(brokerage.Deposit); ok {
			req += fmt.Sprintf(" (proof %s)", code(d.ProofRef()))
		}
		table.Rows = append(table.Rows, []string{code(tx.ID()), date(tx.CreatedAt()), owner(tx.UserID()), tx.Effect().SignedString(), req})
	}
	doc.CustomTable(table, tableOptions)
	return doc.String()
}

func UsersMarkdown(users []brokerage.User) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Users")
	table := md.TableSet{
		Header: []string{"ID", "Email", "Role", "Balance"},
	}
	for _, u := range users {
		table.Rows = append(table.Rows, []string{code(u.ID), u.Email, string(u.Role), u.Balance.String()})
	}
	doc.CustomTable(table, tableOptions)
	return doc.String()
}

// ReconciliationMarkdown shows how each balance decomposes, and flags the
// ones that drift from their history.
func ReconciliationMarkdown(rs []brokerage.Reconciliation, owner func(userID string) string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Reconciliation")
	table := md.TableSet{
		Header: []string{"User", "Opening", "Deposits", "Withdrawals", "Buys", "Sells", "Overrides", "Balance", "Drift"},
	}
	var drifting []string
	for _, r := range rs {
		table.Rows = append(table.Rows, []string{
			owner(r.UserID),
			r.Opening.String(),
			r.Deposits.String(),
			r.Withdrawals.String(),
			r.Buys.String(),
			r.Sells.String(),
			r.Adjustments.SignedString(),
			r.Balance.String(),
			r.Drift().SignedString(),
		})
		if !r.Balanced() {
			drifting = append(drifting, owner(r.UserID))
		}
	}
	doc.CustomTable(table, tableOptions)
	if len(drifting) > 0 {
		doc.H2("Drifting Balances")
		doc.OrderedList(drifting...)
	}
	return doc.String()
}

func PaymentMethodsMarkdown(pms []brokerage.PaymentMethod, contact brokerage.ContactInfo) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Payment Methods")
	if len(pms) == 0 {
		doc.PlainText("No payment method configured.")
	} else {
		table := md.TableSet{
			Header: []string{"ID", "Name", "Details"},
		}
		for _, pm := range pms {
			table.Rows = append(table.Rows, []string{code(pm.ID), pm.Name, pm.Details})
		}
		doc.CustomTable(table, tableOptions)
	}
	doc.H2("Support")
	doc.CustomTable(md.TableSet{
		Header: []string{"Email", "Phone"},
		Rows:   [][]string{{contact.Email, contact.Phone}},
	}, tableOptions)
	return doc.String()
}
