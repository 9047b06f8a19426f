// Package receipt drives a single captured receipt through extraction,
// human correction and commit as an explicit state machine.
//
// One Workflow serves one receipt at a time. Remote calls run without the
// internal lock held; each carries the generation it started in and its
// result is dropped if Reset or SelectFile moved the workflow on meanwhile.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
)

type Workflow struct {
	extractor ports.ReceiptExtractor
	store     ports.ExpenseStore
	now       func() time.Time
	logger    *log.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	file       *File
	fileInfo   *FileInfo
	draft      *core.ReceiptExtraction
	saved      *core.Expense
	failedStep Step
	failErr    error

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

type Option func(*Workflow)

// WithClock overrides the time source used for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(w *Workflow) { w.logger = l.WithComponent(log.ComponentReceipt) }
}

// New creates an idle workflow.
func New(extractor ports.ReceiptExtractor, store ports.ExpenseStore, opts ...Option) *Workflow {
	w := &Workflow{
		extractor: extractor,
		store:     store,
		now:       time.Now,
		logger:    log.Default(log.ComponentReceipt),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe registers o for every state change and returns a function that
// removes it.
func (w *Workflow) Subscribe(o Observer) (unsubscribe func()) {
	w.obsMu.Lock()
	id := w.nextObs
	w.nextObs++
	w.observers[id] = o
	w.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.obsMu.Lock()
			delete(w.observers, id)
			w.obsMu.Unlock()
		})
	}
}

// Snapshot returns the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// SelectFile replaces any prior selection and moves to FileSelected. The
// MIME type is only a hint: declared type, then extension, then sniffing.
func (w *Workflow) SelectFile(f File) Snapshot {
	if f.MIMEType == "" {
		f.MIMEType = detectMIME(f.Name, f.Data)
	}

	w.mu.Lock()
	w.generation++
	w.clearLocked()
	w.file = &f
	w.fileInfo = &FileInfo{
		Name:       f.Name,
		MIMEType:   f.MIMEType,
		Size:       len(f.Data),
		PreviewRef: "preview-" + uuid.NewString(),
	}
	snap := w.transitionLocked(FileSelected)
	w.mu.Unlock()

	w.notify(snap)
	return snap
}

// RequestExtraction sends the selected file to the extractor. Valid only
// from FileSelected. On failure the workflow is Failed and the file is kept
// for a retry.
func (w *Workflow) RequestExtraction(ctx context.Context) error {
	w.mu.Lock()
	if w.state != FileSelected {
		err := w.invalidLocked("request extraction")
		w.mu.Unlock()
		return err
	}
	gen := w.generation
	file := *w.file
	snap := w.transitionLocked(Extracting)
	w.mu.Unlock()
	w.notify(snap)

	result, err := w.extractor.Extract(ctx, file.Data, file.MIMEType)

	w.mu.Lock()
	if w.generation != gen || w.state != Extracting {
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Dropping stale extraction response", log.FieldGeneration, gen)
		return ErrStale
	}
	if err != nil {
		var xe *core.ExtractionError
		if !errors.As(err, &xe) {
			err = &core.ExtractionError{Err: err}
		}
		snap = w.failLocked(StepExtraction, err)
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Receipt extraction failed",
			log.NewFields().WithOperation(log.OpExtract).WithErrorType(log.ErrorTypeExtraction).WithError(err).ToSlice()...)
		w.notify(snap)
		return err
	}
	draft := result.Clone()
	w.draft = &draft
	snap = w.transitionLocked(Extracted)
	w.mu.Unlock()

	w.notify(snap)
	return nil
}

// EditField corrects one field of the extracted draft. Valid only in
// Extracted. The suggested category is advisory and cannot be edited.
func (w *Workflow) EditField(field, value string) error {
	w.mu.Lock()
	if w.state != Extracted {
		err := w.invalidLocked("edit field")
		w.mu.Unlock()
		return err
	}
	if err := applyEdit(w.draft, field, value); err != nil {
		w.mu.Unlock()
		return err
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.notify(snap)
	return nil
}

// Commit stores the corrected draft as a new expense. Valid only from
// Extracted. On failure the draft is kept and the workflow is Failed.
func (w *Workflow) Commit(ctx context.Context) error {
	w.mu.Lock()
	if w.state != Extracted {
		err := w.invalidLocked("commit")
		w.mu.Unlock()
		return err
	}
	gen := w.generation
	candidate := BuildExpense(*w.draft, core.DateOf(w.now()))
	snap := w.transitionLocked(Saving)
	w.mu.Unlock()
	w.notify(snap)

	saved, err := w.store.Create(ctx, candidate)

	w.mu.Lock()
	if w.generation != gen || w.state != Saving {
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Dropping stale commit response", log.FieldGeneration, gen)
		return ErrStale
	}
	if err != nil {
		snap = w.failLocked(StepCommit, err)
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Receipt commit failed",
			log.NewFields().WithOperation(log.OpCommit).WithError(err).ToSlice()...)
		w.notify(snap)
		return fmt.Errorf("commit receipt: %w", err)
	}
	w.saved = &saved
	w.draft = nil
	w.file = nil
	snap = w.transitionLocked(Saved)
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Receipt saved as expense",
		log.NewFields().WithOperation(log.OpCommit).WithExpense(saved.ID, saved.Amount.Cents, string(saved.Category)).ToSlice()...)
	w.notify(snap)
	return nil
}

// Resume leaves Failed for the state the failed step started from:
// FileSelected after an extraction failure, Extracted after a commit
// failure. No remote call is made.
func (w *Workflow) Resume() error {
	w.mu.Lock()
	snap, err := w.resumeLocked()
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify(snap)
	return nil
}

// Retry re-runs the step that failed.
func (w *Workflow) Retry(ctx context.Context) error {
	w.mu.Lock()
	step := w.failedStep
	snap, err := w.resumeLocked()
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify(snap)

	if step == StepCommit {
		return w.Commit(ctx)
	}
	return w.RequestExtraction(ctx)
}

// Reset returns to Idle from any state and discards the file and draft.
// Responses still in flight are dropped when they arrive.
func (w *Workflow) Reset() {
	w.mu.Lock()
	w.generation++
	w.clearLocked()
	snap := w.transitionLocked(Idle)
	w.mu.Unlock()

	w.notify(snap)
}

func (w *Workflow) resumeLocked() (Snapshot, error) {
	if w.state != Failed {
		return Snapshot{}, w.invalidLocked("resume")
	}
	target := FileSelected
	if w.failedStep == StepCommit {
		target = Extracted
	}
	w.failedStep = StepNone
	w.failErr = nil
	return w.transitionLocked(target), nil
}

func (w *Workflow) clearLocked() {
	w.file = nil
	w.fileInfo = nil
	w.draft = nil
	w.saved = nil
	w.failedStep = StepNone
	w.failErr = nil
}

func (w *Workflow) failLocked(step Step, err error) Snapshot {
	w.failedStep = step
	w.failErr = err
	return w.transitionLocked(Failed)
}

func (w *Workflow) transitionLocked(to State) Snapshot {
	from := w.state
	w.state = to
	w.logger.Debug("Receipt workflow transition",
		log.NewFields().WithTransition(from.String(), to.String(), w.generation).ToSlice()...)
	return w.snapshotLocked()
}

func (w *Workflow) invalidLocked(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, w.state)
}

func (w *Workflow) snapshotLocked() Snapshot {
	s := Snapshot{State: w.state}
	if w.fileInfo != nil {
		fi := *w.fileInfo
		s.File = &fi
	}
	if w.draft != nil {
		d := w.draft.Clone()
		s.Draft = &d
	}
	if w.saved != nil {
		e := *w.saved
		s.Saved = &e
	}
	if w.state == Failed {
		s.FailedStep = w.failedStep
		s.Err = w.failErr
		s.Message = core.UserMessage(w.failErr)
	}
	return s
}

func (w *Workflow) notify(s Snapshot) {
	w.obsMu.Lock()
	observers := make([]Observer, 0, len(w.observers))
	for _, o := range w.observers {
		observers = append(observers, o)
	}
	w.obsMu.Unlock()

	for _, o := range observers {
		o(s)
	}
}

func detectMIME(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}
