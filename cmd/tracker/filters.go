package main

import (
	"github.com/spf13/cobra"

	"budgettracker/internal/query"
)

type filterFlags struct {
	typ      string
	month    string
	category string
	sort     string
}

func (f *filterFlags) register(cmd *cobra.Command, withSort bool) {
	cmd.Flags().StringVar(&f.typ, "type", "all", "Transaction type: all, income or expense")
	cmd.Flags().StringVar(&f.month, "month", "", "Month filter (YYYY-MM)")
	cmd.Flags().StringVar(&f.category, "category", "", "Category filter (case-insensitive substring)")
	if withSort {
		cmd.Flags().StringVar(&f.sort, "sort", string(query.DateDesc), "Sort: date_asc, date_desc, amount_asc or amount_desc")
	}
}

func (f filterFlags) spec() (query.FilterSpec, error) {
	return query.ParseSpec(f.typ, f.month, f.category, f.sort)
}
