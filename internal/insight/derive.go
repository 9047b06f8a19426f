// Package insight turns raw aggregate and forecast payloads into values
// that are safe to render. Every function here is pure.
package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

// PredictionFallback is shown when there is neither a forecast nor an
// explanation from upstream.
const PredictionFallback = "Need more data to make predictions. Keep tracking your expenses!"

// CurrencySymbol prefixes formatted amounts.
var CurrencySymbol = "$"

var (
	hundred         = decimal.NewFromInt(100)
	budgetFactor    = decimal.RequireFromString("0.9")
	savingsFactor   = decimal.RequireFromString("0.2")
	unavailableName = "N/A"
)

// Summary is the normalized snapshot for one render.
type Summary struct {
	TotalCurrentMonth  decimal.Decimal
	TransactionCount   int
	AverageTransaction decimal.Decimal
	ByCategory         map[string]decimal.Decimal
	// MonthOverMonthChange is nil when there is no prior month to compare.
	MonthOverMonthChange *decimal.Decimal
	// LargestExpense is taken from upstream verbatim; nil when omitted.
	LargestExpense *core.LargestExpense
}

// DeriveSummary normalizes raw. The average is total / expenseCount, or 0
// when expenseCount is not positive.
func DeriveSummary(raw core.RawSnapshot, expenseCount int) Summary {
	s := Summary{
		TransactionCount:     max(expenseCount, 0),
		ByCategory:           make(map[string]decimal.Decimal, len(raw.ByCategory)),
		MonthOverMonthChange: raw.MonthOverMonth,
	}
	if raw.Total != nil {
		s.TotalCurrentMonth = *raw.Total
	}
	for k, v := range raw.ByCategory {
		s.ByCategory[k] = v
	}
	if raw.Largest != nil {
		l := *raw.Largest
		s.LargestExpense = &l
	}
	if expenseCount > 0 {
		s.AverageTransaction = s.TotalCurrentMonth.DivRound(decimal.NewFromInt(int64(expenseCount)), 2)
	}
	return s
}

// Largest returns the largest expense, or "N/A" and zero when upstream
// did not report one.
func (s Summary) Largest() core.LargestExpense {
	if s.LargestExpense == nil {
		return core.LargestExpense{Category: unavailableName}
	}
	return *s.LargestExpense
}

// PercentOfTotal returns amount as a percentage of total, clamped to
// [0, 100]. It is exactly 0 when total is not positive.
func PercentOfTotal(amount, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	pct := amount.Div(total).Mul(hundred)
	switch {
	case pct.IsNegative():
		return decimal.Zero
	case pct.GreaterThan(hundred):
		return hundred
	}
	return pct
}

// Direction classifies a month-over-month change.
type Direction string

const (
	Increased Direction = "increased"
	Decreased Direction = "decreased"
	Unchanged Direction = "unchanged"
)

// Comparison is a month-over-month change ready for display.
type Comparison struct {
	Direction Direction
	// Magnitude is the absolute percentage.
	Magnitude decimal.Decimal
}

// MonthOverMonth classifies delta by strict sign. ok is false when delta is
// nil: no prior month is different from no change, and the comparison must
// not be shown at all.
func MonthOverMonth(delta *decimal.Decimal) (c Comparison, ok bool) {
	if delta == nil {
		return Comparison{}, false
	}
	c.Magnitude = delta.Abs()
	switch delta.Sign() {
	case 1:
		c.Direction = Increased
	case -1:
		c.Direction = Decreased
	default:
		c.Direction = Unchanged
	}
	return c, true
}

func (c Comparison) String() string {
	if c.Direction == Unchanged {
		return "unchanged from last month"
	}
	return fmt.Sprintf("%s by %s%% from last month", c.Direction, c.Magnitude.StringFixed(1))
}

// Recommendations are advisory figures derived from a summary.
type Recommendations struct {
	// SuggestedBudget is 90% of this month's total.
	SuggestedBudget decimal.Decimal
	// ProjectedSaving is 20% of the largest single expense.
	ProjectedSaving decimal.Decimal
}

func DeriveRecommendations(s Summary) Recommendations {
	r := Recommendations{
		SuggestedBudget: decimal.Zero,
		ProjectedSaving: decimal.Zero,
	}
	if s.TotalCurrentMonth.IsPositive() {
		r.SuggestedBudget = s.TotalCurrentMonth.Mul(budgetFactor)
	}
	if s.LargestExpense != nil && s.LargestExpense.Amount.IsPositive() {
		r.ProjectedSaving = s.LargestExpense.Amount.Mul(savingsFactor)
	}
	return r
}

// FormatPrediction renders the forecast sentence when an amount was
// predicted, otherwise the upstream message, otherwise PredictionFallback.
func FormatPrediction(p core.RawPrediction) string {
	if p.PredictedAmount.IsPositive() {
		months := "months"
		if p.BasedOnMonths == 1 {
			months = "month"
		}
		msg := fmt.Sprintf(
			"Based on your spending patterns over the last %d %s, we predict you'll spend approximately %s next month.",
			p.BasedOnMonths, months, FormatAmount(p.PredictedAmount))
		if c := strings.TrimSpace(p.Confidence); c != "" {
			msg += " Confidence level: " + c + "."
		}
		return msg
	}
	if p.Message != nil && strings.TrimSpace(*p.Message) != "" {
		return *p.Message
	}
	return PredictionFallback
}

// FormatAmount renders d with two decimals and the currency symbol.
func FormatAmount(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

// Share is one row of the category breakdown.
type Share struct {
	Category string
	Amount   decimal.Decimal
	Percent  decimal.Decimal
}

// CategoryShares returns the breakdown sorted by amount, largest first.
func CategoryShares(s Summary) []Share {
	shares := make([]Share, 0, len(s.ByCategory))
	for name, amount := range s.ByCategory {
		shares = append(shares, Share{
			Category: name,
			Amount:   amount,
			Percent:  PercentOfTotal(amount, s.TotalCurrentMonth),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Amount.Cmp(shares[j].Amount); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}
