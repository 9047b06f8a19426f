package console

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/insight"
)

// Dashboard prints the overview: totals, the recent expenses, the forecast
// and the AI summary when one was requested.
func (c *Console) Dashboard(v insight.View) {
	c.section("Overview")
	c.summary(v)

	c.section("Recent expenses")
	switch {
	case v.ExpensesErr != nil:
		c.Error(v.ExpensesErr)
	case len(v.Recent) == 0:
		c.Info("No expenses yet. Add one with 'spend add' or scan a receipt.")
	default:
		fmt.Fprintln(c.out, ExpenseTable(v.Recent))
	}

	c.section("Prediction")
	fmt.Fprintln(c.out, v.Prediction)

	if v.AISummary != "" {
		c.AISummary(v.AISummary)
	}
}

func (c *Console) AISummary(text string) {
	c.section("AI insights")
	fmt.Fprintln(c.out, pterm.DefaultBox.Sprint(text))
}

// Insights prints the analysis screen: totals, the category breakdown,
// recommendations and the forecast.
func (c *Console) Insights(v insight.View) {
	c.section("This month")
	c.summary(v)

	c.section("By category")
	if shares := insight.CategoryShares(v.Summary); len(shares) > 0 {
		fmt.Fprint(c.out, CategoryBars(shares))
	} else {
		c.Info("No spending recorded this month.")
	}

	c.section("Recommendations")
	fmt.Fprintf(c.out, "Suggested budget:  %s\n", insight.FormatAmount(v.Recommendations.SuggestedBudget))
	fmt.Fprintf(c.out, "Potential saving:  %s\n", insight.FormatAmount(v.Recommendations.ProjectedSaving))

	c.section("Prediction")
	fmt.Fprintln(c.out, v.Prediction)
}

func (c *Console) summary(v insight.View) {
	if v.SummaryErr != nil {
		c.Warning(insight.SnapshotUnavailable)
		return
	}
	s := v.Summary
	largest := s.Largest()
	fmt.Fprintf(c.out, "Total:          %s\n", BrightCyan(insight.FormatAmount(s.TotalCurrentMonth)))
	fmt.Fprintf(c.out, "Transactions:   %d\n", s.TransactionCount)
	fmt.Fprintf(c.out, "Average:        %s\n", insight.FormatAmount(s.AverageTransaction))
	fmt.Fprintf(c.out, "Largest:        %s (%s)\n", insight.FormatAmount(largest.Amount), largest.Category)
	if v.Comparison != nil {
		fmt.Fprintf(c.out, "Vs last month:  %s\n", ComparisonText(*v.Comparison))
	}
}

// ComparisonText colors an increase red and a decrease green.
func ComparisonText(c insight.Comparison) string {
	switch c.Direction {
	case insight.Increased:
		return BoldRed("⬆ " + c.String())
	case insight.Decreased:
		return BrightGreen("⬇ " + c.String())
	}
	return Yellow("➡ " + c.String())
}

// CategoryBars draws one bar per share, scaled to its percentage.
func CategoryBars(shares []insight.Share) string {
	width := 0
	for _, s := range shares {
		width = max(width, len(s.Category))
	}

	var b strings.Builder
	for _, s := range shares {
		n := int(s.Percent.Mul(decimal.NewFromInt(barWidth)).Div(decimal.NewFromInt(100)).IntPart())
		if n == 0 && s.Amount.IsPositive() {
			n = 1
		}
		fmt.Fprintf(&b, "%-*s  %s %s  %s\n",
			width, s.Category,
			pterm.FgCyan.Sprint(strings.Repeat("█", n)),
			strings.Repeat(" ", barWidth-n),
			fmt.Sprintf("%s (%s%%)", insight.FormatAmount(s.Amount), s.Percent.StringFixed(1)))
	}
	return b.String()
}
