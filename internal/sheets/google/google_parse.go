package google

import (
	"fmt"
	"strings"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

// header is written to the first row of an empty sheet. Column A must stay
// the expense ID: lookups only read that column.
var header = []any{"ID", "Date", "Amount", "Category", "Payment Method", "Merchant", "Description"}

func rowFromExpense(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		e.Amount.String(),
		string(e.Category),
		string(e.PaymentMethod),
		e.Merchant,
		e.Description,
	}
}

// findRow returns the zero-based row index whose first cell equals id, or
// -1. values is column A as returned by the Sheets API.
func findRow(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

// idsFromColumn collects the IDs in column A, skipping the header and
// blank cells.
func idsFromColumn(values [][]any) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || (i == 0 && strings.EqualFold(v, fmt.Sprint(header[0]))) {
			continue
		}
		out[v] = struct{}{}
	}
	return out
}
