package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/config"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/expenselist"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/storage/memory"
)

type fakeCategorizer struct {
	category core.Category
	err      error
}

func (f fakeCategorizer) Suggest(context.Context, string) (core.Category, error) {
	return f.category, f.err
}

func testBackend(store *memory.Store) *backend.Backend {
	return &backend.Backend{
		Kind:     config.BackendMemory,
		Store:    store,
		Insights: store,
	}
}

func testApp(out *bytes.Buffer) *app {
	a := newApp(out)
	a.now = fixedNow
	return a
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	keep, err := store.Create(ctx, core.Expense{
		Amount: core.Money{Cents: 900}, Category: core.CategoryFood,
		Date: core.NewDate(2025, 3, 1), PaymentMethod: core.PaymentCash,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gone, err := store.Create(ctx, core.Expense{
		Amount: core.Money{Cents: 4000}, Category: core.CategoryTransport,
		Date: core.NewDate(2025, 3, 2), PaymentMethod: core.PaymentCard,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var out bytes.Buffer
	a := testApp(&out)
	view := expenselist.New(store, log.Discard())
	if err := view.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	// Removed behind the view's back: reported as a warning, not a failure.
	if err := store.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := a.deleteExpense(ctx, view, gone.ID); err != nil {
		t.Fatalf("already deleted: %v", err)
	}
	if !strings.Contains(out.String(), "That expense no longer exists.") {
		t.Errorf("missing warning:\n%s", out.String())
	}

	out.Reset()
	if err := a.deleteExpense(ctx, view, keep.ID[:8]); err != nil {
		t.Fatalf("delete by prefix: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted $9.00 Food on 2025-03-01") {
		t.Errorf("missing confirmation:\n%s", out.String())
	}
	if items, _ := store.List(ctx); len(items) != 0 {
		t.Errorf("store still has %d expenses", len(items))
	}

	out.Reset()
	if err := a.deleteExpense(ctx, view, "zzzz"); !errors.Is(err, errReported) {
		t.Fatalf("unknown id: err = %v", err)
	}
	if !strings.Contains(out.String(), "That expense no longer exists.") {
		t.Errorf("unknown id message:\n%s", out.String())
	}
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	var out bytes.Buffer
	a := testApp(&out)
	b := testBackend(store)

	created, err := addExpense(ctx, b, core.ExpenseInput{Amount: "12.5", Merchant: "Cafe"}, core.DateOf(a.now()))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.Category != core.CategoryOther || created.PaymentMethod != core.PaymentCash || created.Date.String() != "2025-03-10" {
		t.Errorf("defaults not applied: %+v", created)
	}

	_, err = addExpense(ctx, b, core.ExpenseInput{Amount: "-3"}, core.DateOf(a.now()))
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("err = %v, want amount validation error", err)
	}
}

func TestSuggestCategory(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	a := testApp(&out)
	b := testBackend(memory.New())

	b.Categorizer = fakeCategorizer{category: core.CategoryTransport}
	if got := a.suggestCategory(ctx, b, "train to Lyon"); got != "Transport" {
		t.Errorf("suggestion = %q", got)
	}
	if got := a.suggestCategory(ctx, b, "  "); got != "" {
		t.Errorf("blank description suggestion = %q", got)
	}

	b.Categorizer = fakeCategorizer{err: core.ErrUnavailable}
	out.Reset()
	if got := a.suggestCategory(ctx, b, "lunch"); got != "" {
		t.Errorf("failed suggestion = %q", got)
	}
	if !strings.Contains(out.String(), "using Other") {
		t.Errorf("missing fallback warning:\n%s", out.String())
	}
}
