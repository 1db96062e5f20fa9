// Package sheets defines the outbound port of the spreadsheet mirror.
package sheets

import (
	"context"

	"budgettracker/internal/core"
)

// Header is the first row of a mirror sheet. Column A holds the
// transaction id and is used to locate rows.
var Header = []string{"ID", "Date", "Type", "Category", "Amount", "Notes"}

// Row renders t in Header column order.
func Row(t core.Transaction) []string {
	return []string{t.ID, t.Date, string(t.Type), t.Category, t.Amount.StringFixed(2), t.Notes}
}

// TransactionMirror keeps a spreadsheet copy of the transaction list.
type TransactionMirror interface {
	// AppendTransaction adds t unless a row with its id already exists
	// and returns a reference to the row.
	AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	// ClearTransaction blanks the row holding id. found is false when no
	// such row exists.
	ClearTransaction(ctx context.Context, id string) (found bool, err error)
}
