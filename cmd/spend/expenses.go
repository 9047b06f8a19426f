package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/expenselist"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/insight"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
)

func addCmd(a *app) *cobra.Command {
	var (
		in      core.ExpenseInput
		suggest bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record an expense by hand. Category defaults to Other, date to today
and payment method to Cash.

With --suggest and no --category, the AI picks a category from the
description.`,
		Example: `  spend add --amount 12.50 --category Food --merchant "Corner Cafe"
  spend add --amount 42 --description "train tickets to Lyon" --suggest`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, "add expense")
			if err != nil {
				return err
			}

			if suggest && strings.TrimSpace(in.Category) == "" {
				in.Category = a.suggestCategory(ctx, b, in.Description)
			}

			created, err := addExpense(ctx, b, in, core.DateOf(a.now()))
			if err != nil {
				return a.fail(err)
			}
			a.console.Success("Added %s %s on %s (%s)",
				insight.FormatAmount(created.Amount.Decimal()), created.Category, created.Date, created.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Amount, "amount", "a", "", "amount, e.g. 12.50 (required)")
	f.StringVarP(&in.Category, "category", "c", "", "one of: "+strings.Join(categoryNames(), ", "))
	f.StringVarP(&in.Description, "description", "d", "", "free-text description")
	f.StringVarP(&in.Merchant, "merchant", "m", "", "merchant name")
	f.StringVar(&in.Date, "date", "", "date as YYYY-MM-DD (default today)")
	f.StringVarP(&in.PaymentMethod, "payment", "p", "", "one of: "+strings.Join(paymentNames(), ", ")+" (default Cash)")
	f.BoolVar(&suggest, "suggest", false, "ask the AI for a category when none is given")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// addExpense validates in and stores the result.
func addExpense(ctx context.Context, b *backend.Backend, in core.ExpenseInput, today core.Date) (core.Expense, error) {
	candidate, err := in.Parse(today)
	if err != nil {
		return core.Expense{}, err
	}
	return b.Store.Create(ctx, candidate)
}

// suggestCategory returns the AI's pick for description, or "" so that
// parsing falls back to Other.
func (a *app) suggestCategory(ctx context.Context, b *backend.Backend, description string) string {
	if strings.TrimSpace(description) == "" {
		a.console.Warning("Add a --description to get a category suggestion.")
		return ""
	}
	c, err := b.Categorizer.Suggest(ctx, description)
	if err != nil {
		a.logger.Warn("Category suggestion failed",
			log.NewFields().WithOperation(log.OpSuggest).WithError(err).ToSlice()...)
		a.console.Warning("Could not suggest a category, using %s.", core.CategoryOther)
		return ""
	}
	a.console.Info("Suggested category: %s", c)
	return string(c)
}

func listCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses, optionally for one category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, "expense list")
			if err != nil {
				return err
			}

			view := expenselist.New(b.Store, a.logger)
			if err := view.SetFilter(category); err != nil {
				return a.fail(err)
			}
			if err := view.Reload(ctx); err != nil {
				return a.fail(err)
			}
			a.console.Expenses(view.Visible(), view.Filter(), view.Total())
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", expenselist.All, "category to show, or 'all'")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense by ID or unique ID prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, "expense list")
			if err != nil {
				return err
			}

			view := expenselist.New(b.Store, a.logger)
			if err := view.Reload(ctx); err != nil {
				return a.fail(err)
			}
			return a.deleteExpense(ctx, view, args[0])
		},
	}
}

func (a *app) deleteExpense(ctx context.Context, view *expenselist.View, id string) error {
	e, err := view.Resolve(id)
	if err != nil {
		return a.fail(err)
	}

	err = view.Delete(ctx, e.ID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		a.console.Warning("%s", core.UserMessage(err))
		return nil
	case err != nil:
		return a.fail(err)
	}
	a.console.Success("Deleted %s %s on %s",
		insight.FormatAmount(e.Amount.Decimal()), e.Category, e.Date)
	return nil
}

func categoryNames() []string {
	names := make([]string, 0, len(core.Categories))
	for _, c := range core.Categories {
		names = append(names, string(c))
	}
	return names
}

func paymentNames() []string {
	names := make([]string, 0, len(core.PaymentMethods))
	for _, p := range core.PaymentMethods {
		names = append(names, string(p))
	}
	return names
}
