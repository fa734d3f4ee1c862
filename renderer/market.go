package renderer

import (
	"bytes"

	"github.com/etnz/brokerage/price"
	md "github.com/nao1215/markdown"
)

// QuotesMarkdown lists the latest price of every asset on the board.
func QuotesMarkdown(assets []price.Asset, board *price.Board) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Market")
	table := md.TableSet{
		Header: []string{"Symbol", "Name", "Class", "Price", "Change"},
	}
	for _, a := range assets {
		t, ok := board.Latest(a.Symbol)
		if !ok {
			continue
		}
		change := "-"
		if c, ok := board.Change(a.Symbol); ok {
			change = c.StringFixed(2) + "%"
			if c.IsPositive() {
				change = "+" + change
			}
		}
		table.Rows = append(table.Rows, []string{a.Symbol, a.Name, string(a.Class), t.Price.String(), change})
	}
	doc.CustomTable(table, tableOptions)
	return doc.String()
}

// AlertsMarkdown lists price alerts.
func AlertsMarkdown(alerts []price.Alert) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Price Alerts")
	if len(alerts) == 0 {
		doc.PlainText("No alert.")
		return doc.String()
	}
	table := md.TableSet{
		Header: []string{"Alert", "Status"},
	}
	for _, a := range alerts {
		table.Rows = append(table.Rows, []string{a.String(), string(a.Status)})
	}
	doc.CustomTable(table, tableOptions)
	return doc.String()
}
