package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgettracker/internal/cli"
	"budgettracker/internal/core"
	"budgettracker/internal/report"
)

var budgetFlags core.BudgetInput

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage monthly category budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the budget for a month and category, replacing any existing one",
	Args:  cobra.NoArgs,
	RunE:  runBudgetSet,
}

var budgetRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Remove a budget",
	Args:    cobra.ExactArgs(1),
	RunE:    runBudgetRm,
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show budget utilization",
	Args:  cobra.NoArgs,
	RunE:  runBudgetList,
}

func init() {
	budgetSetCmd.Flags().StringVar(&budgetFlags.Month, "month", "", "Month (YYYY-MM)")
	budgetSetCmd.Flags().StringVar(&budgetFlags.Category, "category", "", "Category")
	budgetSetCmd.Flags().StringVar(&budgetFlags.Amount, "amount", "", "Spending ceiling")
	_ = budgetSetCmd.MarkFlagRequired("month")
	_ = budgetSetCmd.MarkFlagRequired("category")
	_ = budgetSetCmd.MarkFlagRequired("amount")

	budgetCmd.AddCommand(budgetSetCmd, budgetRmCmd, budgetListCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	b, err := core.NewBudget(budgetFlags)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.SetBudget(ctx, b); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Budget for %s in %s set to %s (%s)\n", b.Category, b.Month, core.FormatMoney(b.Amount), b.ID)
	return nil
}

func runBudgetRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Store.RemoveBudget(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Removed %d budget(s)\n", n)
	return nil
}

func runBudgetList(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, _ := app.Store.Snapshot()
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderBudgets(report.BudgetUtilization(snap.Transactions, snap.Budgets)))
	return nil
}
