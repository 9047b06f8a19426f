// Package analytics computes insight aggregates and a trailing-average
// forecast from a plain list of expenses. The local storage backends use
// it to implement ports.InsightService.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

const (
	// ForecastWindow is how many complete months the forecast looks back.
	ForecastWindow = 6
	// MinForecastMonths is the least history that yields a forecast.
	MinForecastMonths = 2

	InsufficientHistory = "Need at least 2 months of spending history to predict next month."
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(d core.Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// Add returns the month n months after m; n may be negative.
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Start is the first day of m.
func (m Month) Start() core.Date {
	return core.NewDate(m.Year, int(m.Month), 1)
}

// MonthlyTotals sums amounts per calendar month, in cents.
func MonthlyTotals(expenses []core.Expense) map[Month]int64 {
	totals := make(map[Month]int64)
	for _, e := range expenses {
		totals[MonthOf(e.Date)] += e.Amount.Cents
	}
	return totals
}

// Snapshot aggregates the month containing now. MonthOverMonth is nil when
// the previous month has no spending to compare against.
func Snapshot(expenses []core.Expense, now time.Time) core.RawSnapshot {
	current := MonthOf(core.DateOf(now))
	previous := current.Add(-1)

	var (
		total, prevTotal int64
		count            int
		largest          *core.Expense
		byCategory       = make(map[string]int64)
	)
	for i := range expenses {
		e := &expenses[i]
		switch MonthOf(e.Date) {
		case current:
			total += e.Amount.Cents
			count++
			byCategory[string(e.Category)] += e.Amount.Cents
			if largest == nil || e.Amount.Cents > largest.Amount.Cents {
				largest = e
			}
		case previous:
			prevTotal += e.Amount.Cents
		}
	}

	snap := core.RawSnapshot{
		TransactionCount: &count,
		ByCategory:       make(map[string]decimal.Decimal, len(byCategory)),
	}
	totalDec := cents(total)
	snap.Total = &totalDec
	for name, c := range byCategory {
		snap.ByCategory[name] = cents(c)
	}
	if count > 0 {
		avg := totalDec.DivRound(decimal.NewFromInt(int64(count)), 2)
		snap.AverageTransaction = &avg
	}
	if largest != nil {
		snap.Largest = &core.LargestExpense{
			Category: string(largest.Category),
			Amount:   largest.Amount.Decimal(),
		}
	}
	if prevTotal > 0 {
		change := decimal.NewFromInt(total - prevTotal).
			Div(decimal.NewFromInt(prevTotal)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		snap.MonthOverMonth = &change
	}
	return snap
}

// Forecast predicts next month's spending as the average of the complete
// months with spending among the last ForecastWindow months.
func Forecast(expenses []core.Expense, now time.Time) core.RawPrediction {
	current := MonthOf(core.DateOf(now))
	totals := MonthlyTotals(expenses)

	var sum int64
	months := 0
	for i := 1; i <= ForecastWindow; i++ {
		if t, ok := totals[current.Add(-i)]; ok && t > 0 {
			sum += t
			months++
		}
	}

	if months < MinForecastMonths {
		msg := InsufficientHistory
		return core.RawPrediction{
			PredictedAmount: decimal.Zero,
			BasedOnMonths:   months,
			Confidence:      "low",
			Message:         &msg,
		}
	}
	return core.RawPrediction{
		PredictedAmount: cents(sum).DivRound(decimal.NewFromInt(int64(months)), 2),
		BasedOnMonths:   months,
		Confidence:      confidence(months),
	}
}

func confidence(months int) string {
	switch {
	case months >= ForecastWindow:
		return "high"
	case months >= 3:
		return "medium"
	}
	return "low"
}

func cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
