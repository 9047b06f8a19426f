// Package memory is an in-process expense store, used for demos, tests and
// the API server's ephemeral mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/analytics"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock lets tests pin the current month.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// List returns a copy of every expense, newest date first.
func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.items...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
}

func (s *Store) Snapshot(ctx context.Context) (core.RawSnapshot, error) {
	items, _ := s.List(ctx)
	return analytics.Snapshot(items, s.now()), nil
}

func (s *Store) Prediction(ctx context.Context) (core.RawPrediction, error) {
	items, _ := s.List(ctx)
	return analytics.Forecast(items, s.now()), nil
}
