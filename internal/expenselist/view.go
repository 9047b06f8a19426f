// Package expenselist is the expense list screen's model: a locally owned
// copy of the stored records, a category filter and optimistic deletion.
package expenselist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
)

// All is the filter value that shows every category.
const All = "all"

// ErrAmbiguousID is returned by Resolve when a prefix matches more than one
// record.
var ErrAmbiguousID = errors.New("id prefix matches more than one expense")

type View struct {
	store  ports.ExpenseStore
	logger *log.Logger

	mu      sync.RWMutex
	records []core.Expense
	filter  string
}

func New(store ports.ExpenseStore, logger *log.Logger) *View {
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	return &View{store: store, logger: logger, filter: All}
}

// Reload replaces the local records with the store's. The previous records
// are kept when the store fails.
func (v *View) Reload(ctx context.Context) error {
	records, err := v.store.List(ctx)
	if err != nil {
		v.logger.WarnContext(ctx, "Failed to load expenses",
			log.NewFields().WithOperation(log.OpList).WithError(err).ToSlice()...)
		return fmt.Errorf("load expenses: %w", err)
	}
	v.mu.Lock()
	v.records = records
	v.mu.Unlock()
	return nil
}

// SetFilter selects a category, or All. Category names match case-insensitively.
func (v *View) SetFilter(filter string) error {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, All) {
		filter = All
	} else {
		c, ok := core.ParseCategory(filter)
		if !ok {
			return core.NewValidationError("category", core.ErrInvalidCategory)
		}
		filter = string(c)
	}
	v.mu.Lock()
	v.filter = filter
	v.mu.Unlock()
	return nil
}

func (v *View) Filter() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Visible returns the records that pass the filter, in store order.
func (v *View) Visible() []core.Expense {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]core.Expense, 0, len(v.records))
	for _, e := range v.records {
		if v.filter == All || string(e.Category) == v.filter {
			out = append(out, e)
		}
	}
	return out
}

// Resolve finds the loaded record whose ID is id or starts with it.
func (v *View) Resolve(id string) (core.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Expense{}, fmt.Errorf("resolve expense: %w", core.ErrNotFound)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var (
		found core.Expense
		n     int
	)
	for _, e := range v.records {
		if e.ID == id {
			return e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			found = e
			n++
		}
	}
	switch n {
	case 0:
		return core.Expense{}, fmt.Errorf("resolve expense %s: %w", id, core.ErrNotFound)
	case 1:
		return found, nil
	}
	return core.Expense{}, core.NewValidationError("id", ErrAmbiguousID)
}

// Total sums the visible records.
func (v *View) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range v.Visible() {
		total = total.Add(e.Amount.Decimal())
	}
	return total
}

// Delete removes id from the store and from the local records. A record
// the store no longer has is still removed locally and the not-found error
// is returned for display. Any other failure leaves the record in place.
func (v *View) Delete(ctx context.Context, id string) error {
	err := v.store.Delete(ctx, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		v.logger.WarnContext(ctx, "Failed to delete expense",
			log.NewFields().WithOperation(log.OpDelete).WithError(err).ToSlice()...)
		return fmt.Errorf("delete expense: %w", err)
	}

	v.mu.Lock()
	for i, e := range v.records {
		if e.ID == id {
			v.records = append(v.records[:i:i], v.records[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}
