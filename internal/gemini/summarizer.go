package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/insight"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
)

// NoDataSummary is returned instead of calling the model when there is no
// spending this month.
const NoDataSummary = "Add some expenses this month to get AI-powered insights."

// Summarizer writes a short coaching note from this month's aggregates.
type Summarizer struct {
	client   *Client
	insights ports.InsightService
}

func NewSummarizer(c *Client, insights ports.InsightService) *Summarizer {
	return &Summarizer{client: c, insights: insights}
}

func (s *Summarizer) Summary(ctx context.Context) (string, error) {
	raw, err := s.insights.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("summary snapshot: %w", err)
	}
	summary := insight.DeriveSummary(raw, countOf(raw))
	if summary.TotalCurrentMonth.IsZero() {
		return NoDataSummary, nil
	}

	var b strings.Builder
	b.WriteString("You are a friendly personal finance assistant. ")
	b.WriteString("In at most three short sentences, summarize this month's spending and give one practical tip. ")
	b.WriteString("Plain text only.\n\n")
	fmt.Fprintf(&b, "Total this month: %s\n", insight.FormatAmount(summary.TotalCurrentMonth))
	fmt.Fprintf(&b, "Transactions: %d\n", summary.TransactionCount)
	for _, share := range insight.CategoryShares(summary) {
		fmt.Fprintf(&b, "- %s: %s (%s%%)\n", share.Category, insight.FormatAmount(share.Amount), share.Percent.StringFixed(1))
	}
	if c, ok := insight.MonthOverMonth(summary.MonthOverMonthChange); ok {
		fmt.Fprintf(&b, "Compared with last month: %s\n", c)
	}

	text, err := s.client.generate(ctx, &genai.Part{Text: b.String()})
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	return text, nil
}

func countOf(raw core.RawSnapshot) int {
	if raw.TransactionCount != nil {
		return *raw.TransactionCount
	}
	return 0
}

// Suggest asks the model for one of the known categories. Any answer that
// is not a known category becomes Other.
func (c *Client) Suggest(ctx context.Context, description string) (core.Category, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return core.CategoryOther, nil
	}
	names := make([]string, 0, len(core.Categories))
	for _, cat := range core.Categories {
		names = append(names, string(cat))
	}
	prompt := fmt.Sprintf(
		"Categorize this expense into exactly one of: %s.\nExpense: %q\nRespond with only the category name.",
		strings.Join(names, ", "), description)

	text, err := c.generate(ctx, &genai.Part{Text: prompt})
	if err != nil {
		return core.CategoryOther, fmt.Errorf("suggest category: %w", err)
	}
	return core.NormalizeCategory(strings.Trim(text, " .\"'\n")), nil
}
