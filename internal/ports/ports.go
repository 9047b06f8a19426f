// Package ports declares the collaborators the receipt workflow and the
// insight views depend on. Adapters live in storage, apiclient and gemini.
package ports

import (
	"context"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

type (
	// ExpenseStore is CRUD over committed expenses.
	ExpenseStore interface {
		List(ctx context.Context) ([]core.Expense, error)
		// Create persists e and returns it with its assigned ID. It fails with
		// a *core.ValidationError on a malformed amount or date.
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
		// Delete fails with core.ErrNotFound when id is already gone.
		Delete(ctx context.Context, id string) error
	}

	// ReceiptExtractor turns a receipt image or PDF into a best-effort guess.
	// Failures are *core.ExtractionError and never partial.
	ReceiptExtractor interface {
		Extract(ctx context.Context, data []byte, mimeType string) (core.ReceiptExtraction, error)
	}

	// InsightService computes aggregates and a forecast over stored expenses.
	InsightService interface {
		Snapshot(ctx context.Context) (core.RawSnapshot, error)
		Prediction(ctx context.Context) (core.RawPrediction, error)
	}

	// Summarizer writes a short natural-language summary of recent spending.
	Summarizer interface {
		Summary(ctx context.Context) (string, error)
	}

	// Categorizer suggests a category for a free-text description.
	Categorizer interface {
		Suggest(ctx context.Context, description string) (core.Category, error)
	}

	// SessionContext reports whether a valid session is held.
	SessionContext interface {
		IsAuthenticated() bool
	}
)
