package renderer

import (
	"bytes"

	"github.com/etnz/brokerage"
	md "github.com/nao1215/markdown"
)

// Statement is everything a client sees of its own account.
type Statement struct {
	User         brokerage.User
	Available    brokerage.Money
	Positions    []brokerage.Position
	Transactions []brokerage.Transaction
}

func StatementMarkdown(s Statement) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Statement of " + s.User.Email)
	doc.CustomTable(md.TableSet{
		Header: []string{md.Bold("Balance"), md.Bold(s.User.Balance.String())},
		Rows: [][]string{
			{"Available for withdrawal", s.Available.String()},
		},
	}, tableOptions)

	if len(s.Positions) > 0 {
		doc.H2("Positions")
		table := md.TableSet{
			Header: []string{"Symbol", "Net Quantity", "Bought", "Sold"},
		}
		for _, p := range s.Positions {
			table.Rows = append(table.Rows, []string{p.Symbol, p.Quantity.Decimal().StringFixed(4), p.Bought.String(), p.Sold.String()})
		}
		doc.CustomTable(table, tableOptions)
	}

	doc.H2("Transactions")
	if len(s.Transactions) == 0 {
		doc.PlainText("No transactions yet.")
	} else {
		doc.CustomTable(transactionTable(s.Transactions, nil), tableOptions)
	}
	return doc.String()
}

// TransactionsMarkdown lists transactions; owner, when set, adds a column
// naming the owner of each one.
func TransactionsMarkdown(title string, txs []brokerage.Transaction, owner func(userID string) string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	if len(txs) == 0 {
		doc.PlainText("No transactions.")
		return doc.String()
	}
	doc.CustomTable(transactionTable(txs, owner), tableOptions)
	return doc.String()
}

func transactionTable(txs []brokerage.Transaction, owner func(string) string) md.TableSet {
	table := md.TableSet{
		Header: []string{"Date", "ID", "Type", "Status", "Amount", "Details"},
	}
	if owner != nil {
		table.Header = append(table.Header, "User")
	}
	for _, tx := range txs {
		row := []string{
			date(tx.CreatedAt()),
			code(tx.ID()),
			string(tx.Type()),
			string(tx.Status()),
			tx.Effect().SignedString(),
			tx.Details(),
		}
		if owner != nil {
			row = append(row, owner(tx.UserID()))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
