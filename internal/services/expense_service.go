package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/amqp"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService writes through to the store and announces each change on
// the message bus. The store is authoritative: a failed publish is logged
// and never fails the request.
type ExpenseService struct {
	store     ports.ExpenseStore
	publisher EventPublisher
	logger    *log.Logger
}

// NewExpenseService wraps store. publisher may be nil.
func NewExpenseService(store ports.ExpenseStore, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &ExpenseService{store: store, publisher: publisher, logger: logger}
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.store.List(ctx)
}

// Create saves the expense, then publishes a created event.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.publish(ctx, amqp.NewCreatedEvent(saved))
	return saved, nil
}

// Delete removes the expense, then publishes a deleted event.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping event",
			log.FieldEvent, string(event.Type), log.FieldExpenseID, event.ExpenseID)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.NewFields().WithOperation(log.OpSync).WithErrorType(log.ErrorTypeNetwork).WithError(err).ToSlice()...)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
