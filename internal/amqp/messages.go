package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

// EventType says what happened to an expense.
type EventType string

const (
	EventCreated EventType = "expense.created"
	EventDeleted EventType = "expense.deleted"
)

// ExpenseEvent is published after an expense is committed or deleted.
// Created events carry the full expense; deleted events only its ID.
type ExpenseEvent struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	ExpenseID  string        `json:"expense_id"`
	Expense    *wire.Expense `json:"expense,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewCreatedEvent(e core.Expense) *ExpenseEvent {
	w := wire.FromExpense(e)
	return &ExpenseEvent{
		ID:         uuid.NewString(),
		Type:       EventCreated,
		ExpenseID:  e.ID,
		Expense:    &w,
		OccurredAt: time.Now().UTC(),
	}
}

func NewDeletedEvent(expenseID string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:         uuid.NewString(),
		Type:       EventDeleted,
		ExpenseID:  expenseID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ExpenseID == "" {
		return nil, fmt.Errorf("event %s: missing expense_id", msg.ID)
	}
	switch msg.Type {
	case EventCreated:
		if msg.Expense == nil {
			return nil, fmt.Errorf("event %s: created event without expense", msg.ID)
		}
	case EventDeleted:
	default:
		return nil, fmt.Errorf("event %s: unknown type %q", msg.ID, msg.Type)
	}
	return &msg, nil
}
