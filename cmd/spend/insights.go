package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/insight"
)

func dashboardCmd(a *app) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show this month's overview, recent expenses and AI summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, "dashboard")
			if err != nil {
				return err
			}

			loader := insight.NewLoader(b.Insights, b.Store,
				insight.WithSummarizer(b.Summarizer),
				insight.WithRecent(recent),
				insight.WithLogger(a.logger),
			)
			stop := a.spin("Loading dashboard...")
			view := loader.Load(ctx)
			stop()

			a.console.Dashboard(view)
			return nil
		},
	}

	cmd.Flags().IntVarP(&recent, "recent", "n", 5, "number of recent expenses to show")
	return cmd
}

func insightsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show the category breakdown, recommendations and forecast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, "insights")
			if err != nil {
				return err
			}

			loader := insight.NewLoader(b.Insights, b.Store,
				insight.WithLogger(a.logger),
			)
			stop := a.spin("Analyzing spending...")
			view := loader.Load(ctx)
			stop()

			a.console.Insights(view)
			return nil
		},
	}
}

func summaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Ask the AI for a short summary of recent spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, "AI summary")
			if err != nil {
				return err
			}

			stop := a.spin("Writing summary...")
			text, err := b.Summarizer.Summary(ctx)
			stop()
			if err != nil {
				return a.fail(err)
			}
			a.console.AISummary(text)
			return nil
		},
	}
}

// spin shows a spinner until the returned function is called.
func (a *app) spin(message string) (stop func()) {
	spinner, err := pterm.DefaultSpinner.
		WithWriter(a.console.Writer()).
		WithRemoveWhenDone(true).
		Start(message)
	if err != nil {
		return func() {}
	}
	return func() { _ = spinner.Stop() }
}
