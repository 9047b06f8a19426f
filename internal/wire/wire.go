// Package wire defines the JSON bodies exchanged between the API server
// and the API client.
package wire

import (
	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

// Amount is a decimal encoded as a bare JSON number.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) *Amount {
	return &Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

func (a *Amount) ptr() *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}

type Expense struct {
	ID            string  `json:"id,omitempty"`
	Amount        *Amount `json:"amount"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Merchant      string  `json:"merchant"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"payment_method"`
}

func FromExpense(e core.Expense) Expense {
	return Expense{
		ID:            e.ID,
		Amount:        NewAmount(e.Amount.Decimal()),
		Category:      string(e.Category),
		Description:   e.Description,
		Merchant:      e.Merchant,
		Date:          e.Date.String(),
		PaymentMethod: string(e.PaymentMethod),
	}
}

func FromExpenses(in []core.Expense) []Expense {
	out := make([]Expense, 0, len(in))
	for _, e := range in {
		out = append(out, FromExpense(e))
	}
	return out
}

// Input returns the request as unparsed form text so the server validates
// it exactly like a manual add.
func (e Expense) Input() core.ExpenseInput {
	in := core.ExpenseInput{
		Category:      e.Category,
		Description:   e.Description,
		Merchant:      e.Merchant,
		Date:          e.Date,
		PaymentMethod: e.PaymentMethod,
	}
	if e.Amount != nil {
		in.Amount = e.Amount.Decimal.String()
	}
	return in
}

// Core converts a server response. It is lenient: unknown categories become
// Other and an unreadable date is left zero.
func (e Expense) Core() core.Expense {
	out := core.Expense{
		ID:            e.ID,
		Category:      core.NormalizeCategory(e.Category),
		Description:   e.Description,
		Merchant:      e.Merchant,
		PaymentMethod: core.PaymentMethod(e.PaymentMethod),
	}
	if e.Amount != nil {
		out.Amount = core.MoneyFromDecimal(e.Amount.Decimal)
	}
	if d, err := core.ParseDate(e.Date); err == nil {
		out.Date = d
	}
	return out
}

// Extraction is the upload-receipt response. Every field may be null.
type Extraction struct {
	Amount            *Amount `json:"amount"`
	Merchant          *string `json:"merchant"`
	SuggestedCategory *string `json:"suggested_category"`
	Date              *string `json:"date"`
}

func FromExtraction(r core.ReceiptExtraction) Extraction {
	out := Extraction{
		Merchant:          r.Merchant,
		SuggestedCategory: r.SuggestedCategory,
		Date:              r.Date,
	}
	if r.Amount != nil {
		out.Amount = NewAmount(r.Amount.Decimal())
	}
	return out
}

func (x Extraction) Core() core.ReceiptExtraction {
	out := core.ReceiptExtraction{
		Merchant:          x.Merchant,
		SuggestedCategory: x.SuggestedCategory,
		Date:              x.Date,
	}
	if x.Amount != nil {
		m := core.MoneyFromDecimal(x.Amount.Decimal)
		out.Amount = &m
	}
	return out
}

type Largest struct {
	Category string `json:"category"`
	Amount   Amount `json:"amount"`
}

// Insights is the /api/insights body. Older clients read total and
// by_category, newer ones total_current_month and category_breakdown; the
// server writes both.
type Insights struct {
	TotalCurrentMonth    *Amount           `json:"total_current_month,omitempty"`
	Total                *Amount           `json:"total,omitempty"`
	TotalTransactions    *int              `json:"total_transactions,omitempty"`
	AverageTransaction   *Amount           `json:"average_transaction,omitempty"`
	CategoryBreakdown    map[string]Amount `json:"category_breakdown,omitempty"`
	ByCategory           map[string]Amount `json:"by_category,omitempty"`
	LargestExpense       *Largest          `json:"largest_expense,omitempty"`
	MonthOverMonthChange *Amount           `json:"month_over_month_change"`
}

func FromSnapshot(s core.RawSnapshot) Insights {
	out := Insights{TotalTransactions: s.TransactionCount}
	if s.Total != nil {
		out.TotalCurrentMonth = NewAmount(*s.Total)
		out.Total = NewAmount(*s.Total)
	}
	if s.AverageTransaction != nil {
		out.AverageTransaction = NewAmount(*s.AverageTransaction)
	}
	if s.MonthOverMonth != nil {
		out.MonthOverMonthChange = NewAmount(*s.MonthOverMonth)
	}
	if s.ByCategory != nil {
		out.CategoryBreakdown = make(map[string]Amount, len(s.ByCategory))
		out.ByCategory = make(map[string]Amount, len(s.ByCategory))
		for k, v := range s.ByCategory {
			out.CategoryBreakdown[k] = Amount{Decimal: v}
			out.ByCategory[k] = Amount{Decimal: v}
		}
	}
	if s.Largest != nil {
		out.LargestExpense = &Largest{Category: s.Largest.Category, Amount: Amount{Decimal: s.Largest.Amount}}
	}
	return out
}

func (in Insights) Core() core.RawSnapshot {
	out := core.RawSnapshot{
		Total:              in.TotalCurrentMonth.ptr(),
		TransactionCount:   in.TotalTransactions,
		AverageTransaction: in.AverageTransaction.ptr(),
		MonthOverMonth:     in.MonthOverMonthChange.ptr(),
	}
	if out.Total == nil {
		out.Total = in.Total.ptr()
	}
	breakdown := in.CategoryBreakdown
	if breakdown == nil {
		breakdown = in.ByCategory
	}
	if breakdown != nil {
		out.ByCategory = make(map[string]decimal.Decimal, len(breakdown))
		for k, v := range breakdown {
			out.ByCategory[k] = v.Decimal
		}
	}
	if in.LargestExpense != nil {
		out.Largest = &core.LargestExpense{Category: in.LargestExpense.Category, Amount: in.LargestExpense.Amount.Decimal}
	}
	return out
}

type Prediction struct {
	Prediction    *Amount `json:"prediction"`
	BasedOnMonths int     `json:"based_on_months"`
	Confidence    string  `json:"confidence"`
	Message       *string `json:"message,omitempty"`
}

func FromPrediction(p core.RawPrediction) Prediction {
	return Prediction{
		Prediction:    NewAmount(p.PredictedAmount),
		BasedOnMonths: p.BasedOnMonths,
		Confidence:    p.Confidence,
		Message:       p.Message,
	}
}

func (p Prediction) Core() core.RawPrediction {
	out := core.RawPrediction{
		PredictedAmount: decimal.Zero,
		BasedOnMonths:   p.BasedOnMonths,
		Confidence:      p.Confidence,
		Message:         p.Message,
	}
	if p.Prediction != nil {
		out.PredictedAmount = p.Prediction.Decimal
	}
	return out
}

// Error is the body of every non-2xx response.
type Error struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type Summary struct {
	Summary string `json:"summary"`
}

type CategoryRequest struct {
	Description string `json:"description"`
}

type CategoryResponse struct {
	Category string `json:"category"`
}
