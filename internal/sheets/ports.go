// Package sheets mirrors committed expenses into a spreadsheet.
package sheets

import (
	"context"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

// ExpenseExporter keeps one row per expense, keyed by expense ID. Both
// operations are idempotent so redelivered events are harmless.
type ExpenseExporter interface {
	// Append adds a row for e unless one with its ID already exists, and
	// returns a reference to the row.
	Append(ctx context.Context, e core.Expense) (string, error)
	// Remove deletes the row for id. A missing row is not an error.
	Remove(ctx context.Context, id string) error
	// IDs lists the expense IDs currently mirrored.
	IDs(ctx context.Context) (map[string]struct{}, error)
}
