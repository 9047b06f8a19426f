// Package memory is an in-process sheet mirror for local runs without
// Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	ports "github.com/AKASHZENDEKAR/smart-expense-tracker/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.ExpenseExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == e.ID {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) IDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.rows))
	for _, r := range s.rows {
		out[r.ID] = struct{}{}
	}
	return out, nil
}

// Rows returns a copy of the mirrored expenses in insertion order.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.rows...)
}
