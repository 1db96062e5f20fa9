package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"budgettracker/internal/cli"
	"budgettracker/internal/report"
)

var summaryFilters filterFlags

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals, category distribution, budgets and the six-month trend",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	summaryFilters.register(summaryCmd, false)
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	spec, err := summaryFilters.spec()
	if err != nil {
		return err
	}

	app, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, _ := app.Store.Snapshot()
	v := report.Build(snap.Transactions, snap.Budgets, spec, time.Now(), cfg.SavingsTarget)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderView(v))
	return nil
}
