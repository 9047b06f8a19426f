package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
)

func newTestRepo(t *testing.T, now time.Time) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"),
		WithClock(func() time.Time { return now }), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func expense(date core.Date, cents int64, c core.Category) core.Expense {
	return core.Expense{
		Amount:        core.Money{Cents: cents},
		Category:      c,
		Merchant:      "Shop",
		Date:          date,
		PaymentMethod: core.PaymentUPI,
	}
}

func TestCreateListDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, time.Now())

	first, err := repo.Create(ctx, expense(core.NewDate(2025, 4, 1), 1250, core.CategoryFood))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected an assigned ID")
	}
	if _, err := repo.Create(ctx, expense(core.NewDate(2025, 4, 3), 0, core.CategoryBills)); err != nil {
		t.Fatalf("create zero amount: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Category != core.CategoryBills {
		t.Fatalf("unexpected list order: %+v", list)
	}
	if got := list[1]; got.ID != first.ID || got.Amount.Cents != 1250 || got.Merchant != "Shop" || got.PaymentMethod != core.PaymentUPI {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t, time.Now())
	bad := expense(core.Date{}, 100, core.CategoryFood)
	_, err := repo.Create(context.Background(), bad)
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != "date" {
		t.Fatalf("expected date ValidationError, got %v", err)
	}
}

func TestSnapshotAndPrediction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))

	for _, e := range []core.Expense{
		expense(core.NewDate(2025, 6, 2), 6000, core.CategoryFood),
		expense(core.NewDate(2025, 5, 2), 4000, core.CategoryFood),
		expense(core.NewDate(2025, 4, 2), 8000, core.CategoryHealth),
	} {
		if _, err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Total.Equal(decimal.NewFromInt(60)) || snap.MonthOverMonth == nil || !snap.MonthOverMonth.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected snapshot: total=%s mom=%v", snap.Total, snap.MonthOverMonth)
	}

	pred, err := repo.Prediction(ctx)
	if err != nil {
		t.Fatalf("prediction: %v", err)
	}
	if !pred.PredictedAmount.Equal(decimal.NewFromInt(60)) || pred.BasedOnMonths != 2 {
		t.Fatalf("unexpected prediction: %+v", pred)
	}
}
