package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/console"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/receipt"
)

const maxReceiptBytes = 10 << 20

const (
	actionSave     = "Save expense"
	actionAmount   = "Edit amount"
	actionMerchant = "Edit merchant"
	actionDate     = "Edit date"
	actionDiscard  = "Discard receipt"
)

var reviewActions = []string{actionSave, actionAmount, actionMerchant, actionDate, actionDiscard}

var editFields = map[string]string{
	actionAmount:   receipt.FieldAmount,
	actionMerchant: receipt.FieldMerchant,
	actionDate:     receipt.FieldDate,
}

func receiptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Turn receipt photos into expenses",
	}
	cmd.AddCommand(receiptScanCmd(a))
	return cmd
}

func receiptScanCmd(a *app) *cobra.Command {
	var (
		yes      bool
		mimeType string
	)

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Read a receipt image or PDF and save it as an expense",
		Long: `Sends the receipt to the AI extractor and shows what it read. You can
correct the amount, merchant and date before saving. The suggested
category is shown for reference only.

With --yes the extracted values are saved without review.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("open receipt: %w", err)
			}
			if info.Size() > maxReceiptBytes {
				return fmt.Errorf("receipt %s is larger than %d MB", args[0], maxReceiptBytes>>20)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read receipt: %w", err)
			}

			b, err := a.open(ctx, "receipt scanner")
			if err != nil {
				return err
			}

			wf := receipt.New(b.Extractor, b.Store, receipt.WithLogger(a.logger), receipt.WithClock(a.now))
			unsubscribe := wf.Subscribe(a.console.Receipt)
			defer unsubscribe()

			s := &scanner{wf: wf, prompt: a.prompt, console: a.console, yes: yes}
			err = s.run(ctx, receipt.File{Name: filepath.Base(args[0]), MIMEType: mimeType, Data: data})
			if err == nil || errors.Is(err, errReported) {
				return err
			}
			return a.fail(err)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "save the extracted values without review")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type of the file (detected when empty)")
	return cmd
}

// scanner walks one receipt through the workflow, asking the user what to
// do at each decision point. The workflow's observer prints progress.
type scanner struct {
	wf      *receipt.Workflow
	prompt  prompter
	console *console.Console
	yes     bool
}

func (s *scanner) run(ctx context.Context, f receipt.File) error {
	s.wf.SelectFile(f)

	err := s.wf.RequestExtraction(ctx)
	for err != nil {
		if s.yes || errors.Is(err, receipt.ErrStale) {
			return errReported
		}
		again, perr := s.prompt.Confirm("Try reading the receipt again?")
		if perr != nil {
			return perr
		}
		if !again {
			s.wf.Reset()
			return errReported
		}
		err = s.wf.Retry(ctx)
	}

	return s.review(ctx)
}

func (s *scanner) review(ctx context.Context) error {
	for {
		action := actionSave
		if !s.yes {
			var err error
			if action, err = s.prompt.Select("What would you like to do?", reviewActions); err != nil {
				return err
			}
		}

		switch action {
		case actionSave:
			saved, err := s.save(ctx)
			if err != nil || saved {
				return err
			}
		case actionAmount, actionMerchant, actionDate:
			field := editFields[action]
			current := ""
			if d := s.wf.Snapshot().Draft; d != nil {
				current = draftValue(*d, field)
			}
			value, err := s.prompt.Text(action, current)
			if err != nil {
				return err
			}
			if err := s.wf.EditField(field, value); err != nil {
				s.console.Error(err)
			}
		case actionDiscard:
			s.wf.Reset()
			s.console.Warning("Receipt discarded.")
			return nil
		}
	}
}

// save commits the draft. When the user declines a retry after a failure
// the workflow resumes with the draft intact and saved is false.
func (s *scanner) save(ctx context.Context) (saved bool, err error) {
	err = s.wf.Commit(ctx)
	for err != nil {
		if s.yes || errors.Is(err, receipt.ErrStale) {
			return false, errReported
		}
		again, perr := s.prompt.Confirm("Saving failed. Try again?")
		if perr != nil {
			return false, perr
		}
		if !again {
			return false, s.wf.Resume()
		}
		err = s.wf.Retry(ctx)
	}
	return true, nil
}

func draftValue(d core.ReceiptExtraction, field string) string {
	switch field {
	case receipt.FieldAmount:
		if d.Amount != nil {
			return d.Amount.String()
		}
	case receipt.FieldMerchant:
		if d.Merchant != nil {
			return *d.Merchant
		}
	case receipt.FieldDate:
		if d.Date != nil {
			return *d.Date
		}
	}
	return ""
}
