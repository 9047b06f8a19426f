// Package backend assembles the collaborators a front end needs from the
// application config: the expense store, insights and the AI services.
package backend

import (
	"context"
	"errors"
	"io"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/session"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend bundles one configured set of collaborators. Close releases
// every resource opened for it.
type Backend struct {
	Kind        string
	Store       ports.ExpenseStore
	Insights    ports.InsightService
	Extractor   ports.ReceiptExtractor
	Summarizer  ports.Summarizer
	Categorizer ports.Categorizer
	// Session is set for the remote backend only.
	Session *session.Session
	// Pinger is nil when the store has no health check.
	Pinger Pinger

	closers []io.Closer
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// ErrAINotConfigured is reported by the AI collaborators when no Gemini key
// is set.
var ErrAINotConfigured = errors.New("AI features are not configured")

// unconfigured stands in for the Gemini-backed services.
type unconfigured struct{}

func (unconfigured) Extract(context.Context, []byte, string) (core.ReceiptExtraction, error) {
	return core.ReceiptExtraction{}, &core.ExtractionError{Reason: "receipt scanning is not configured", Err: ErrAINotConfigured}
}

func (unconfigured) Summary(context.Context) (string, error) {
	return "", ErrAINotConfigured
}

func (unconfigured) Suggest(context.Context, string) (core.Category, error) {
	return core.CategoryOther, ErrAINotConfigured
}
