package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"budgettracker/internal/backend"
	"budgettracker/internal/cli"
	"budgettracker/internal/core"
	"budgettracker/internal/query"
)

var addFlags core.TransactionInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an income or expense",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listFilters filterFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	addCmd.Flags().StringVar(&addFlags.Type, "type", "expense", "income or expense")
	addCmd.Flags().StringVar(&addFlags.Amount, "amount", "", "Positive amount, e.g. 12.50 or 12,50")
	addCmd.Flags().StringVar(&addFlags.Date, "date", time.Now().Format(core.DateLayout), "Date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addFlags.Category, "category", "", "Category")
	addCmd.Flags().StringVar(&addFlags.Notes, "notes", "", "Free-text notes")
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("category")

	listFilters.register(listCmd, true)

	rootCmd.AddCommand(addCmd, deleteCmd, listCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	t, err := core.NewTransaction(addFlags)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.AddTransaction(ctx, t); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Added %s %s %s on %s (%s)\n", t.Type, core.FormatMoney(t.Amount), t.Category, t.Date, t.ID)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Store.DeleteTransaction(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Deleted %d transaction(s)\n", n)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	spec, err := listFilters.spec()
	if err != nil {
		return err
	}

	app, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	txs := app.Store.Transactions()
	// The relational backend already orders newest first.
	if lister, ok := app.Backend.Backend.(backend.TransactionLister); ok && spec.Sort == query.DateDesc {
		if stored, err := lister.ListTransactions(ctx); err == nil {
			txs = stored
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTransactions(query.FilterAndSort(txs, spec)))
	return nil
}
