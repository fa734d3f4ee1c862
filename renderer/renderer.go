// Package renderer renders ledger read models as markdown, and markdown as
// HTML for statements exported to a file.
package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/etnz/brokerage"
	md "github.com/nao1215/markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// tableOptions keeps every row on one line and headers as written, so the
// tables stay valid GFM.
var tableOptions = md.TableOptions{AutoWrapText: false, AutoFormatHeaders: false}

// HTML converts markdown produced by this package to an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("cannot convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Page wraps an HTML fragment in a standalone document.
func Page(title, body string) string {
	return fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n", title, body)
}

func date(t time.Time) string { return t.Format("2006-01-02 15:04") }

func code(s string) string { return "`" + s + "`" }

// Transaction renders a transaction to a sentence.
func Transaction(tx brokerage.Transaction) string {
	switch v := tx.(type) {
	case brokerage.Deposit:
		return fmt.Sprintf("Deposit of %s through %s", v.Amount(), v.Details())
	case brokerage.Withdrawal:
		return fmt.Sprintf("Withdrawal of %s to %s", v.Amount(), v.Destination())
	case brokerage.Buy:
		return fmt.Sprintf("Bought %s for %s", v.Details(), v.Amount())
	case brokerage.Sell:
		return fmt.Sprintf("Sold %s for %s", v.Details(), v.Amount())
	default:
		return fmt.Sprintf("%s of %s", tx.Type(), tx.Amount())
	}
}
