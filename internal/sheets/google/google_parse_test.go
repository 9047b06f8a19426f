package google

import (
	"testing"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

func TestRowFromExpense(t *testing.T) {
	e := core.Expense{
		ID:            "abc",
		Amount:        core.Money{Cents: 120050},
		Category:      core.CategoryBills,
		Merchant:      "City Power",
		Description:   "March bill",
		Date:          core.NewDate(2025, 3, 9),
		PaymentMethod: core.PaymentDebitCard,
	}
	row := rowFromExpense(e)
	want := []any{"abc", "2025-03-09", "1200.50", "Bills", "Debit Card", "City Power", "March bill"}
	if len(row) != len(header) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(header))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {"a1"}, {}, {" b2 "}, {"c3"}}
	tests := []struct {
		id   string
		want int
	}{
		{"a1", 1},
		{"b2", 3},
		{"c3", 4},
		{"zz", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestIDsFromColumn(t *testing.T) {
	ids := idsFromColumn([][]any{{"ID"}, {"a1"}, {""}, {}, {"b2"}})
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	for _, id := range []string{"a1", "b2"} {
		if _, ok := ids[id]; !ok {
			t.Errorf("missing %s", id)
		}
	}
}
