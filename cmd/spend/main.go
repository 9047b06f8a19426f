package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "spend",
		Short: "Smart expense tracker",
		Long: `spend records expenses by hand or from receipt photos, and shows
spending insights, a monthly forecast and AI summaries.

The data backend is chosen with DATA_BACKEND (sqlite, memory or remote).`,
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}

	root.AddCommand(addCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(deleteCmd(a))
	root.AddCommand(receiptCmd(a))
	root.AddCommand(dashboardCmd(a))
	root.AddCommand(insightsCmd(a))
	root.AddCommand(summaryCmd(a))
	root.AddCommand(sessionCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp(os.Stdout)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprint(os.Stderr, pterm.Error.Sprintln(err.Error()))
		}
		os.Exit(1)
	}
}
