package console

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/insight"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/receipt"
)

// Receipt prints one workflow snapshot.
func (c *Console) Receipt(s receipt.Snapshot) {
	switch s.State {
	case receipt.FileSelected:
		if s.File != nil {
			c.Info("Selected %s (%s, %d bytes)", s.File.Name, s.File.MIMEType, s.File.Size)
		}
	case receipt.Extracting:
		c.Info("Reading the receipt...")
	case receipt.Extracted:
		c.section("Extracted from receipt")
		if s.Draft != nil {
			fmt.Fprintln(c.out, DraftTable(*s.Draft))
		}
	case receipt.Saving:
		c.Info("Saving the expense...")
	case receipt.Saved:
		if s.Saved != nil {
			c.Success("Saved %s at %s on %s (%s)",
				insight.FormatAmount(s.Saved.Amount.Decimal()),
				orMissing(s.Saved.Merchant),
				s.Saved.Date,
				s.Saved.Category)
		}
	case receipt.Failed:
		fmt.Fprint(c.out, pterm.Error.Sprintln(s.Message))
	}
}

// DraftTable lists the editable fields of an extraction. The suggested
// category is shown but cannot be edited.
func DraftTable(d core.ReceiptExtraction) string {
	amount := missing
	if d.Amount != nil {
		amount = insight.FormatAmount(d.Amount.Decimal())
	}
	data := pterm.TableData{
		{"Field", "Value"},
		{receipt.FieldAmount, amount},
		{receipt.FieldMerchant, deref(d.Merchant)},
		{receipt.FieldDate, deref(d.Date)},
		{receipt.FieldSuggestedCategory + " (read-only)", deref(d.SuggestedCategory)},
	}
	return renderTable(data)
}

func deref(s *string) string {
	if s == nil {
		return missing
	}
	return orMissing(*s)
}
