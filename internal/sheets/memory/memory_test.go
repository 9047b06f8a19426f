package memory

import (
	"context"
	"testing"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

func TestStore_AppendIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := core.Expense{
		ID:            "x1",
		Amount:        core.Money{Cents: 100},
		Category:      core.CategoryOther,
		Date:          core.NewDate(2025, 1, 1),
		PaymentMethod: core.PaymentCash,
	}

	ref1, err := s.Append(ctx, e)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	ref2, _ := s.Append(ctx, e)
	if ref1 != ref2 || len(s.Rows()) != 1 {
		t.Fatalf("duplicate append: refs %s %s rows %d", ref1, ref2, len(s.Rows()))
	}

	if err := s.Remove(ctx, "x1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "x1"); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	ids, _ := s.IDs(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected empty mirror, got %v", ids)
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	if _, err := New().Append(context.Background(), core.Expense{ID: "bad"}); err == nil {
		t.Fatal("expected validation error")
	}
}
