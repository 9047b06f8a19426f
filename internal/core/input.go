package core

import "strings"

// ExpenseInput carries the raw text of a manual add form or API request.
type ExpenseInput struct {
	Amount        string
	Category      string
	Description   string
	Merchant      string
	Date          string
	PaymentMethod string
}

// Parse validates the input and builds an Expense without an ID.
// An empty category means Other, an empty date means today and an empty
// payment method means Cash. Anything else that is not recognized is a
// ValidationError naming the field.
func (in ExpenseInput) Parse(today Date) (Expense, error) {
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Expense{}, NewValidationError("amount", err)
	}

	category := CategoryOther
	if strings.TrimSpace(in.Category) != "" {
		c, ok := ParseCategory(in.Category)
		if !ok {
			return Expense{}, NewValidationError("category", ErrInvalidCategory)
		}
		category = c
	}

	date := today
	if strings.TrimSpace(in.Date) != "" {
		if date, err = ParseDate(in.Date); err != nil {
			return Expense{}, NewValidationError("date", err)
		}
	}

	payment := PaymentCash
	if strings.TrimSpace(in.PaymentMethod) != "" {
		p, ok := ParsePaymentMethod(in.PaymentMethod)
		if !ok {
			return Expense{}, NewValidationError("payment_method", ErrInvalidPaymentMethod)
		}
		payment = p
	}

	e := Expense{
		Amount:        amount,
		Category:      category,
		Description:   strings.TrimSpace(in.Description),
		Merchant:      strings.TrimSpace(in.Merchant),
		Date:          date,
		PaymentMethod: payment,
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}
