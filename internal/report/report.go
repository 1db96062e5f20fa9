// Package report derives summaries from transaction and budget lists:
// totals, category distribution, budget utilization and the monthly trend.
//
// Every function is pure and total over well-formed input; empty input
// yields zero values, never an error.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
)

// UncategorizedLabel replaces an empty category in the distribution.
const UncategorizedLabel = "Uncategorized"

// TrendMonths is the length of the trailing trend window.
const TrendMonths = 6

// Palette is cycled by key index to color the category distribution.
var Palette = [8]string{
	"#f44336", "#ff9800", "#ffc107", "#4caf50",
	"#2196f3", "#9c27b0", "#00bcd4", "#795548",
}

var hundred = decimal.NewFromInt(100)

type (
	Totals struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}

	// CategoryAmount is one slice of the expense distribution.
	CategoryAmount struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
		Color  string          `json:"color"`
	}

	BudgetStatus struct {
		Budget  core.Budget     `json:"budget"`
		Spent   decimal.Decimal `json:"spent"`
		Percent int             `json:"percent"`
		Over    bool            `json:"over"`
	}

	// TrendSeries holds per-month totals, oldest month first.
	TrendSeries struct {
		Months  []core.Month      `json:"months"`
		Labels  []string          `json:"labels"`
		Income  []decimal.Decimal `json:"income"`
		Expense []decimal.Decimal `json:"expense"`
	}

	Progress struct {
		Target  decimal.Decimal `json:"target"`
		Percent int             `json:"percent"`
	}
)

// SumByType totals income and expense; balance is income minus expense.
func SumByType(txs []core.Transaction) Totals {
	totals := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			totals.Income = totals.Income.Add(t.Amount)
		case core.Expense:
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals
}

// CategoryTotals sums expenses per category in first-seen order and
// assigns palette colors by position. Categories are grouped as stored,
// without case folding.
func CategoryTotals(txs []core.Transaction) []CategoryAmount {
	index := map[string]int{}
	out := make([]CategoryAmount, 0)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		name := t.Category
		if name == "" {
			name = UncategorizedLabel
		}
		i, seen := index[name]
		if !seen {
			i = len(out)
			index[name] = i
			out = append(out, CategoryAmount{
				Name:   name,
				Amount: decimal.Zero,
				Color:  Palette[i%len(Palette)],
			})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// Spent sums expenses of b's category within b's month.
func Spent(all []core.Transaction, b core.Budget) decimal.Decimal {
	spent := decimal.Zero
	for _, t := range all {
		if t.Type == core.Expense && core.SameCategory(t.Category, b.Category) && b.Month.Contains(t.Date) {
			spent = spent.Add(t.Amount)
		}
	}
	return spent
}

// BudgetUtilization evaluates every budget against the full, unfiltered
// transaction list. Rows are ordered by month descending, then category
// ascending.
func BudgetUtilization(all []core.Transaction, budgets []core.Budget) []BudgetStatus {
	sorted := append([]core.Budget(nil), budgets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Month != sorted[j].Month {
			return sorted[i].Month > sorted[j].Month
		}
		return sorted[i].Category < sorted[j].Category
	})

	out := make([]BudgetStatus, 0, len(sorted))
	for _, b := range sorted {
		spent := Spent(all, b)
		out = append(out, BudgetStatus{
			Budget:  b,
			Spent:   spent,
			Percent: percentOf(spent, b.Amount),
			Over:    spent.GreaterThan(b.Amount),
		})
	}
	return out
}

// Trend computes income and expense for the reference month and the five
// months before it over the full, unfiltered transaction list.
func Trend(all []core.Transaction, ref time.Time) TrendSeries {
	last := core.MonthOf(ref)
	series := TrendSeries{
		Months:  make([]core.Month, TrendMonths),
		Labels:  make([]string, TrendMonths),
		Income:  make([]decimal.Decimal, TrendMonths),
		Expense: make([]decimal.Decimal, TrendMonths),
	}
	pos := map[core.Month]int{}
	for i := 0; i < TrendMonths; i++ {
		m := last.AddMonths(i - (TrendMonths - 1))
		series.Months[i] = m
		series.Labels[i] = m.Label()
		series.Income[i] = decimal.Zero
		series.Expense[i] = decimal.Zero
		pos[m] = i
	}
	for _, t := range all {
		i, ok := pos[t.Month()]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			series.Income[i] = series.Income[i].Add(t.Amount)
		case core.Expense:
			series.Expense[i] = series.Expense[i].Add(t.Amount)
		}
	}
	return series
}

// SavingsProgress reports how far balance has come toward target, as a
// percentage clamped to [0, 100]. A non-positive target yields 0.
func SavingsProgress(balance, target decimal.Decimal) Progress {
	p := Progress{Target: target}
	if !target.IsPositive() {
		return p
	}
	p.Percent = percentOf(balance, target)
	return p
}

// percentOf is round(100*part/whole) clamped to [0, 100].
func percentOf(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	pct := part.Mul(hundred).Div(whole).Round(0).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}
