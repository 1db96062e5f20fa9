package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/report"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorRed    = lipgloss.Color("#D14D41")
	ColorMuted  = lipgloss.Color("#6F6E69")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	cellStyle   = lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	incomeStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	overStyle   = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
)

var hundred = decimal.NewFromInt(100)

// Table is a titled grid of cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with rounded borders. Columns after the first
// are right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col > 0 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.String())
	b.WriteString("\n")
	return b.String()
}

// ProgressBar draws percent (0..100) as a bar width cells wide.
func ProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RenderTransactions lists txs one per row.
func RenderTransactions(txs []core.Transaction) string {
	if len(txs) == 0 {
		return mutedStyle.Render("  No transactions.") + "\n"
	}
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		amount := core.FormatMoney(t.Amount)
		if t.Type == core.Expense {
			amount = core.FormatMoney(t.Amount.Neg())
		}
		rows = append(rows, []string{t.Date, string(t.Type), t.Category, amount, t.Notes, t.ID})
	}
	return RenderTable(Table{
		Title:   "Transactions",
		Headers: []string{"Date", "Type", "Category", "Amount", "Notes", "ID"},
		Rows:    rows,
	})
}

// RenderBudgets lists budget utilization rows.
func RenderBudgets(rows []report.BudgetStatus) string {
	if len(rows) == 0 {
		return mutedStyle.Render("  No budgets set.") + "\n"
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		status := fmt.Sprintf("%d%%", r.Percent)
		if r.Over {
			status = overStyle.Render("over")
		}
		out = append(out, []string{
			r.Budget.Month.String(),
			r.Budget.Category,
			core.FormatMoney(r.Spent),
			core.FormatMoney(r.Budget.Amount),
			ProgressBar(r.Percent, 20),
			status,
			r.Budget.ID,
		})
	}
	return RenderTable(Table{
		Title:   "Budgets",
		Headers: []string{"Month", "Category", "Spent", "Budget", "Usage", "", "ID"},
		Rows:    out,
	})
}

// RenderView renders the summary sections of a dashboard view.
func RenderView(v report.View) string {
	var b strings.Builder
	b.WriteString(RenderTitle("BUDGET SUMMARY"))
	b.WriteString("\n\n")

	b.WriteString(RenderTable(Table{
		Title:   "Totals",
		Headers: []string{"", "Amount"},
		Rows: [][]string{
			{"Income", incomeStyle.Render(core.FormatMoney(v.Totals.Income))},
			{"Expense", core.FormatMoney(v.Totals.Expense)},
			{"Balance", core.FormatMoney(v.Totals.Balance)},
			{"Savings goal", fmt.Sprintf("%s %d%% of %s", ProgressBar(v.Savings.Percent, 20), v.Savings.Percent, core.FormatMoney(v.Savings.Target))},
		},
	}))
	b.WriteString("\n")

	if len(v.Categories) > 0 {
		total := v.Totals.Expense
		rows := make([][]string, 0, len(v.Categories))
		for _, c := range v.Categories {
			share := 0
			if total.IsPositive() {
				share = int(c.Amount.Mul(hundred).Div(total).Round(0).IntPart())
			}
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
			rows = append(rows, []string{swatch + " " + c.Name, core.FormatMoney(c.Amount), fmt.Sprintf("%d%%", share)})
		}
		b.WriteString(RenderTable(Table{
			Title:   "Expenses by category",
			Headers: []string{"Category", "Amount", "Share"},
			Rows:    rows,
		}))
		b.WriteString("\n")
	}

	b.WriteString(RenderBudgets(v.Budgets))
	b.WriteString("\n")

	trend := make([][]string, 0, len(v.Trend.Months))
	for i := range v.Trend.Months {
		trend = append(trend, []string{
			v.Trend.Labels[i],
			core.FormatMoney(v.Trend.Income[i]),
			core.FormatMoney(v.Trend.Expense[i]),
		})
	}
	b.WriteString(RenderTable(Table{
		Title:   "Last 6 months",
		Headers: []string{"Month", "Income", "Expense"},
		Rows:    trend,
	}))
	return b.String()
}
