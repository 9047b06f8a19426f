package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

// Editable field names accepted by EditField.
const (
	FieldAmount            = "amount"
	FieldMerchant          = "merchant"
	FieldDate              = "date"
	FieldSuggestedCategory = "suggested_category"
)

const (
	receiptDescription = "From receipt"
	maxMerchantBytes   = 100
)

// applyEdit parses value for field and writes it into draft. An empty value
// clears the field so the commit fallback applies again.
func applyEdit(draft *core.ReceiptExtraction, field, value string) error {
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldAmount:
		if value == "" {
			draft.Amount = nil
			return nil
		}
		m, err := core.ParseAmount(value)
		if err != nil {
			return core.NewValidationError(FieldAmount, err)
		}
		draft.Amount = &m
	case FieldMerchant:
		if value == "" {
			draft.Merchant = nil
			return nil
		}
		if len(value) > maxMerchantBytes {
			return core.NewValidationError(FieldMerchant, core.ErrMerchantTooLong)
		}
		draft.Merchant = &value
	case FieldDate:
		if value == "" {
			draft.Date = nil
			return nil
		}
		d, err := core.ParseDate(value)
		if err != nil {
			return core.NewValidationError(FieldDate, err)
		}
		s := d.String()
		draft.Date = &s
	case FieldSuggestedCategory, "suggestedcategory", "category":
		return core.NewValidationError(FieldSuggestedCategory, core.ErrReadOnlyField)
	default:
		return core.NewValidationError(field, core.ErrUnknownField)
	}
	return nil
}

// BuildExpense turns a draft into a storable candidate, filling every
// missing field:
//
//	amount         0 (also when the extracted amount is negative)
//	category       Other unless the suggestion is a known category
//	description    "From receipt"
//	date           today (also when the extracted date cannot be parsed)
//	payment method Card
//	merchant       empty; longer names are cut to 100 bytes
func BuildExpense(draft core.ReceiptExtraction, today core.Date) core.Expense {
	e := core.Expense{
		Category:      core.CategoryOther,
		Description:   receiptDescription,
		Date:          today,
		PaymentMethod: core.PaymentCard,
	}
	if draft.Amount != nil && draft.Amount.Cents >= 0 {
		e.Amount = *draft.Amount
	}
	if draft.SuggestedCategory != nil {
		e.Category = core.NormalizeCategory(*draft.SuggestedCategory)
	}
	if draft.Merchant != nil {
		e.Merchant = truncateUTF8(strings.TrimSpace(*draft.Merchant), maxMerchantBytes)
	}
	if draft.Date != nil {
		if d, err := core.ParseDate(*draft.Date); err == nil {
			e.Date = d
		}
	}
	return e
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, w := utf8.DecodeRuneInString(s[cut:])
		if cut+w > n {
			break
		}
		cut += w
	}
	return strings.TrimSpace(s[:cut])
}
