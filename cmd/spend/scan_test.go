package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/console"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/receipt"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/storage/memory"
)

func init() {
	pterm.DisableStyling()
	color.NoColor = true
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

// scripted answers prompts from fixed queues and fails the test when a
// queue runs dry.
type scripted struct {
	t        *testing.T
	selects  []string
	texts    []string
	confirms []bool
	asked    []string
}

func (p *scripted) Select(label string, options []string) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.selects) == 0 {
		p.t.Fatalf("unexpected select %q", label)
	}
	choice := p.selects[0]
	p.selects = p.selects[1:]
	for _, o := range options {
		if o == choice {
			return choice, nil
		}
	}
	p.t.Fatalf("%q is not one of %v", choice, options)
	return "", nil
}

func (p *scripted) Text(label, _ string) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.texts) == 0 {
		p.t.Fatalf("unexpected text prompt %q", label)
	}
	v := p.texts[0]
	p.texts = p.texts[1:]
	return v, nil
}

func (p *scripted) Confirm(label string) (bool, error) {
	p.asked = append(p.asked, label)
	if len(p.confirms) == 0 {
		p.t.Fatalf("unexpected confirm %q", label)
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

// flakyExtractor fails the first failures calls.
type flakyExtractor struct {
	failures int
	calls    int
	result   core.ReceiptExtraction
}

func (f *flakyExtractor) Extract(context.Context, []byte, string) (core.ReceiptExtraction, error) {
	f.calls++
	if f.calls <= f.failures {
		return core.ReceiptExtraction{}, &core.ExtractionError{Reason: "blurry image"}
	}
	return f.result, nil
}

// flakyStore fails the first failures creates.
type flakyStore struct {
	*memory.Store
	failures int
	calls    int
}

func (f *flakyStore) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	f.calls++
	if f.calls <= f.failures {
		return core.Expense{}, core.ErrUnavailable
	}
	return f.Store.Create(ctx, e)
}

func ptr(s string) *string { return &s }

func cafeReceipt() core.ReceiptExtraction {
	amount := core.Money{Cents: 1250}
	return core.ReceiptExtraction{
		Amount:            &amount,
		Merchant:          ptr("Cafe"),
		Date:              ptr("2025-03-04"),
		SuggestedCategory: ptr("Food"),
	}
}

type scanFixture struct {
	store  *flakyStore
	wf     *receipt.Workflow
	out    *bytes.Buffer
	prompt *scripted
	s      *scanner
}

func newScanFixture(t *testing.T, ex *flakyExtractor, commitFailures int, yes bool) *scanFixture {
	t.Helper()
	f := &scanFixture{
		store:  &flakyStore{Store: memory.New(), failures: commitFailures},
		out:    &bytes.Buffer{},
		prompt: &scripted{t: t},
	}
	f.wf = receipt.New(ex, f.store, receipt.WithLogger(log.Discard()), receipt.WithClock(fixedNow))
	c := console.New(f.out)
	f.wf.Subscribe(c.Receipt)
	f.s = &scanner{wf: f.wf, prompt: f.prompt, console: c, yes: yes}
	return f
}

func (f *scanFixture) saved(t *testing.T) []core.Expense {
	t.Helper()
	items, err := f.store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return items
}

var receiptFile = receipt.File{Name: "receipt.jpg", MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

func TestScan_EditThenSave(t *testing.T) {
	f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 0, false)
	f.prompt.selects = []string{actionMerchant, actionDate, actionSave}
	f.prompt.texts = []string{"Corner Cafe", "2025-03-05"}

	if err := f.s.run(context.Background(), receiptFile); err != nil {
		t.Fatalf("run: %v", err)
	}

	items := f.saved(t)
	if len(items) != 1 {
		t.Fatalf("saved %d expenses, want 1", len(items))
	}
	e := items[0]
	if e.Merchant != "Corner Cafe" || e.Amount.Cents != 1250 || e.Date.String() != "2025-03-05" {
		t.Errorf("saved %+v", e)
	}
	if e.Category != core.CategoryFood || e.PaymentMethod != core.PaymentCard {
		t.Errorf("category=%s payment=%s", e.Category, e.PaymentMethod)
	}
	if f.wf.Snapshot().State != receipt.Saved {
		t.Errorf("state = %s, want saved", f.wf.Snapshot().State)
	}
	if !strings.Contains(f.out.String(), "Saved $12.50 at Corner Cafe") {
		t.Errorf("missing saved line:\n%s", f.out.String())
	}
}

func TestScan_InvalidEditKeepsDraft(t *testing.T) {
	f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 0, false)
	f.prompt.selects = []string{actionAmount, actionSave}
	f.prompt.texts = []string{"twelve"}

	if err := f.s.run(context.Background(), receiptFile); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(f.out.String(), "Please check the amount") {
		t.Errorf("expected validation message:\n%s", f.out.String())
	}
	items := f.saved(t)
	if len(items) != 1 || items[0].Amount.Cents != 1250 {
		t.Fatalf("saved %+v", items)
	}
}

func TestScan_ExtractionFailures(t *testing.T) {
	cases := []struct {
		name      string
		failures  int
		confirms  []bool
		selects   []string
		wantErr   error
		wantSaved int
		wantState receipt.State
		wantCalls int
	}{
		{"retry succeeds", 1, []bool{true}, []string{actionSave}, nil, 1, receipt.Saved, 2},
		{"give up", 1, []bool{false}, nil, errReported, 0, receipt.Idle, 1},
		{"retry fails then give up", 2, []bool{true, false}, nil, errReported, 0, receipt.Idle, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := &flakyExtractor{failures: tc.failures, result: cafeReceipt()}
			f := newScanFixture(t, ex, 0, false)
			f.prompt.confirms = tc.confirms
			f.prompt.selects = tc.selects

			err := f.s.run(context.Background(), receiptFile)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got := len(f.saved(t)); got != tc.wantSaved {
				t.Errorf("saved = %d, want %d", got, tc.wantSaved)
			}
			if got := f.wf.Snapshot().State; got != tc.wantState {
				t.Errorf("state = %s, want %s", got, tc.wantState)
			}
			if ex.calls != tc.wantCalls {
				t.Errorf("extractor calls = %d, want %d", ex.calls, tc.wantCalls)
			}
			if !strings.Contains(f.out.String(), "blurry image") {
				t.Errorf("failure reason not shown:\n%s", f.out.String())
			}
		})
	}
}

func TestScan_CommitFailureResumesDraft(t *testing.T) {
	f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 1, false)
	// Decline the retry, fix the merchant, then save again.
	f.prompt.selects = []string{actionSave, actionMerchant, actionSave}
	f.prompt.confirms = []bool{false}
	f.prompt.texts = []string{"Cafe Nero"}

	if err := f.s.run(context.Background(), receiptFile); err != nil {
		t.Fatalf("run: %v", err)
	}
	items := f.saved(t)
	if len(items) != 1 || items[0].Merchant != "Cafe Nero" {
		t.Fatalf("saved %+v", items)
	}
	if f.store.calls != 2 {
		t.Errorf("create calls = %d, want 2", f.store.calls)
	}
}

func TestScan_CommitRetry(t *testing.T) {
	f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 1, false)
	f.prompt.selects = []string{actionSave}
	f.prompt.confirms = []bool{true}

	if err := f.s.run(context.Background(), receiptFile); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.saved(t)) != 1 {
		t.Fatalf("expected the retry to save the expense")
	}
}

func TestScan_Discard(t *testing.T) {
	f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 0, false)
	f.prompt.selects = []string{actionDiscard}

	if err := f.s.run(context.Background(), receiptFile); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.saved(t)) != 0 {
		t.Fatalf("discard must not save")
	}
	if snap := f.wf.Snapshot(); snap.State != receipt.Idle || snap.Draft != nil {
		t.Errorf("snapshot after discard = %+v", snap)
	}
}

func TestScan_Yes(t *testing.T) {
	t.Run("saves without prompting", func(t *testing.T) {
		f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 0, true)
		if err := f.s.run(context.Background(), receiptFile); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(f.saved(t)) != 1 || len(f.prompt.asked) != 0 {
			t.Fatalf("saved=%d asked=%v", len(f.saved(t)), f.prompt.asked)
		}
	})

	t.Run("extraction failure is reported", func(t *testing.T) {
		f := newScanFixture(t, &flakyExtractor{failures: 1}, 0, true)
		err := f.s.run(context.Background(), receiptFile)
		if !errors.Is(err, errReported) {
			t.Fatalf("err = %v, want errReported", err)
		}
		if len(f.prompt.asked) != 0 {
			t.Fatalf("asked %v", f.prompt.asked)
		}
	})

	t.Run("commit failure is reported", func(t *testing.T) {
		f := newScanFixture(t, &flakyExtractor{result: cafeReceipt()}, 1, true)
		err := f.s.run(context.Background(), receiptFile)
		if !errors.Is(err, errReported) {
			t.Fatalf("err = %v, want errReported", err)
		}
		if got := f.wf.Snapshot(); got.State != receipt.Failed || got.FailedStep != receipt.StepCommit {
			t.Fatalf("snapshot = %+v", got)
		}
	})
}

func TestDraftValue(t *testing.T) {
	d := cafeReceipt()
	cases := map[string]string{
		receipt.FieldAmount:   "12.50",
		receipt.FieldMerchant: "Cafe",
		receipt.FieldDate:     "2025-03-04",
	}
	for field, want := range cases {
		if got := draftValue(d, field); got != want {
			t.Errorf("draftValue(%s) = %q, want %q", field, got, want)
		}
	}
	if got := draftValue(core.ReceiptExtraction{}, receipt.FieldAmount); got != "" {
		t.Errorf("empty amount = %q", got)
	}
}
