package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"budgettracker/internal/core"
	"budgettracker/internal/export"
	"budgettracker/internal/query"
)

var (
	exportFilters filterFlags
	flagFormat    string
	flagOut       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered transactions as CSV or XLSX",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportFilters.register(exportCmd, true)
	exportCmd.Flags().StringVar(&flagFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVar(&flagOut, "out", "", "Output file (default transactions_YYYY-MM-DD.<format>, - for stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	var write func(io.Writer, []core.Transaction) error
	switch flagFormat {
	case "csv":
		write = export.WriteCSV
	case "xlsx":
		write = export.WriteXLSX
	default:
		return fmt.Errorf("unknown export format %q: must be csv or xlsx", flagFormat)
	}

	spec, err := exportFilters.spec()
	if err != nil {
		return err
	}

	app, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer app.Close()

	list := query.FilterAndSort(app.Store.Transactions(), spec)
	if len(list) == 0 {
		return export.ErrNothingToExport
	}

	if flagOut == "-" {
		return write(cmd.OutOrStdout(), list)
	}
	path := flagOut
	if path == "" {
		path = export.Filename(time.Now(), flagFormat)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, list); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "  Exported %d transaction(s) to %s\n", len(list), path)
	return nil
}
