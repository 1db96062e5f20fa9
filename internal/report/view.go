package report

import (
	"time"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/query"
)

// View is everything one render cycle needs: the filtered list and the
// summaries derived from it and from the full record set.
type View struct {
	Filter       query.FilterSpec   `json:"filter"`
	Transactions []core.Transaction `json:"transactions"`
	Totals       Totals             `json:"totals"`
	Categories   []CategoryAmount   `json:"categories"`
	Budgets      []BudgetStatus     `json:"budgets"`
	Trend        TrendSeries        `json:"trend"`
	Savings      Progress           `json:"savings"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Build recomputes the whole view from scratch. Totals, categories and
// savings follow the filter; budgets and trend always use every
// transaction.
func Build(all []core.Transaction, budgets []core.Budget, spec query.FilterSpec, now time.Time, savingsTarget decimal.Decimal) View {
	list := query.FilterAndSort(all, spec)
	totals := SumByType(list)
	return View{
		Filter:       spec,
		Transactions: list,
		Totals:       totals,
		Categories:   CategoryTotals(list),
		Budgets:      BudgetUtilization(all, budgets),
		Trend:        Trend(all, now),
		Savings:      SavingsProgress(totals.Balance, savingsTarget),
		GeneratedAt:  now,
	}
}
