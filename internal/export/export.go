// Package export renders a transaction list as CSV or as an Excel
// workbook.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"budgettracker/internal/core"
)

const (
	CSVContentType  = "text/csv"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Transactions"
)

// ErrNothingToExport is returned for an empty list; no file is produced.
var ErrNothingToExport = errors.New("no transactions to export")

// Columns is the header row shared by both formats.
var Columns = []string{"id", "date", "type", "category", "amount", "notes"}

// Filename returns transactions_YYYY-MM-DD.<ext> for the UTC day of now.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("transactions_%s.%s", now.UTC().Format(core.DateLayout), ext)
}

// WriteCSV writes the header and one line per transaction, separated by
// "\n" with no trailing newline. Category and notes are always quoted,
// with inner quotes doubled; the other columns never need quoting.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(Columns, ","))
	for _, t := range txs {
		bw.WriteByte('\n')
		bw.WriteString(strings.Join([]string{
			t.ID,
			t.Date,
			string(t.Type),
			quote(t.Category),
			t.Amount.String(),
			quote(t.Notes),
		}, ","))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteXLSX writes a single-sheet workbook with the same rows as WriteCSV.
// Amounts are numeric cells.
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{t.ID, t.Date, string(t.Type), t.Category, t.Amount.InexactFloat64(), t.Notes}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	widths := map[string]float64{"A": 38, "B": 12, "C": 10, "D": 18, "E": 12, "F": 40}
	for col, width := range widths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
