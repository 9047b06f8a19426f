package worker

import (
	"context"
	"fmt"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/amqp"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/sheets"
)

// SyncWorker mirrors expense events into a spreadsheet.
type SyncWorker struct {
	exporter sheets.ExpenseExporter
	store    ports.ExpenseStore
	logger   *log.Logger
}

// NewSyncWorker creates a worker. store is only needed by Reconcile and may
// be nil.
func NewSyncWorker(exporter sheets.ExpenseExporter, store ports.ExpenseStore, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncWorker{exporter: exporter, store: store, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent applies one event. A returned error makes the consumer
// requeue the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.InfoContext(ctx, "Processing expense event",
		log.FieldEvent, string(ev.Type), log.FieldExpenseID, ev.ExpenseID)

	switch ev.Type {
	case amqp.EventCreated:
		e := ev.Expense.Core()
		if e.ID == "" {
			e.ID = ev.ExpenseID
		}
		ref, err := w.exporter.Append(ctx, e)
		if err != nil {
			return fmt.Errorf("append expense %s: %w", ev.ExpenseID, err)
		}
		w.logger.InfoContext(ctx, "Expense synced", log.FieldExpenseID, ev.ExpenseID, log.FieldSheetsRef, ref)
	case amqp.EventDeleted:
		if err := w.exporter.Remove(ctx, ev.ExpenseID); err != nil {
			return fmt.Errorf("remove expense %s: %w", ev.ExpenseID, err)
		}
		w.logger.InfoContext(ctx, "Expense removed from mirror", log.FieldExpenseID, ev.ExpenseID)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", log.FieldEvent, string(ev.Type))
	}
	return nil
}

// Reconcile appends every stored expense the mirror is missing and removes
// rows whose expense no longer exists. It recovers from events lost while
// the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) (added, removed int, err error) {
	if w.store == nil {
		return 0, 0, nil
	}
	expenses, err := w.store.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list expenses: %w", err)
	}
	mirrored, err := w.exporter.IDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list mirrored ids: %w", err)
	}

	stored := make(map[string]struct{}, len(expenses))
	for _, e := range expenses {
		stored[e.ID] = struct{}{}
		if _, ok := mirrored[e.ID]; ok {
			continue
		}
		if _, err := w.exporter.Append(ctx, e); err != nil {
			w.logger.ErrorContext(ctx, "Failed to append during reconcile",
				log.FieldExpenseID, e.ID, log.FieldError, err.Error())
			continue
		}
		added++
	}
	for id := range mirrored {
		if _, ok := stored[id]; ok {
			continue
		}
		if err := w.exporter.Remove(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to remove during reconcile",
				log.FieldExpenseID, id, log.FieldError, err.Error())
			continue
		}
		removed++
	}

	w.logger.InfoContext(ctx, "Reconcile complete", "added", added, "removed", removed)
	return added, removed, nil
}
