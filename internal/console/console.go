// Package console renders expenses, receipt drafts and insights for the
// spend CLI.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/insight"
)

const (
	barWidth = 30
	missing  = "—"
)

var (
	BoldRed     = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Faint       = color.New(color.Faint).SprintFunc()
)

// Console writes rendered output to one writer.
type Console struct {
	out io.Writer
}

// New returns a console writing to out, or stdout when out is nil.
func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) Writer() io.Writer { return c.out }

func (c *Console) Info(format string, a ...any) {
	fmt.Fprint(c.out, pterm.Info.Sprintfln(format, a...))
}

func (c *Console) Success(format string, a ...any) {
	fmt.Fprint(c.out, pterm.Success.Sprintfln(format, a...))
}

func (c *Console) Warning(format string, a ...any) {
	fmt.Fprint(c.out, pterm.Warning.Sprintfln(format, a...))
}

// Error prints the user-facing sentence for err, never the raw error.
func (c *Console) Error(err error) {
	fmt.Fprint(c.out, pterm.Error.Sprintln(core.UserMessage(err)))
}

func (c *Console) section(title string) {
	fmt.Fprint(c.out, pterm.DefaultSection.Sprintln(title))
}

// Expenses prints the list table followed by the filter and visible total.
func (c *Console) Expenses(rows []core.Expense, filter string, total decimal.Decimal) {
	if len(rows) == 0 {
		c.Info("No expenses found.")
		return
	}
	fmt.Fprintln(c.out, ExpenseTable(rows))
	fmt.Fprintf(c.out, "%s %s   %s %s\n",
		Faint("Filter:"), filter,
		Faint("Total:"), BrightCyan(insight.FormatAmount(total)))
}

// ExpenseTable renders rows as a boxed table. IDs are shortened to their
// first 8 characters.
func ExpenseTable(rows []core.Expense) string {
	data := pterm.TableData{{"ID", "Date", "Category", "Merchant", "Description", "Payment", "Amount"}}
	for _, e := range rows {
		data = append(data, []string{
			shortID(e.ID),
			e.Date.String(),
			string(e.Category),
			orMissing(e.Merchant),
			orMissing(e.Description),
			string(e.PaymentMethod),
			insight.FormatAmount(e.Amount.Decimal()),
		})
	}
	return renderTable(data)
}

func renderTable(data pterm.TableData) string {
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		var b strings.Builder
		for _, row := range data {
			b.WriteString(strings.Join(row, " | "))
			b.WriteByte('\n')
		}
		return b.String()
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}
