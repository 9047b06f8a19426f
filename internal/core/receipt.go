package core

// ReceiptExtraction is a machine-produced, unvalidated guess at an expense.
// Nil fields were not recognized on the receipt.
type ReceiptExtraction struct {
	Amount            *Money
	Merchant          *string
	SuggestedCategory *string
	Date              *string
}

// Clone returns a deep copy so callers cannot mutate the original through
// shared pointers.
func (r ReceiptExtraction) Clone() ReceiptExtraction {
	var out ReceiptExtraction
	if r.Amount != nil {
		a := *r.Amount
		out.Amount = &a
	}
	out.Merchant = cloneString(r.Merchant)
	out.SuggestedCategory = cloneString(r.SuggestedCategory)
	out.Date = cloneString(r.Date)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
