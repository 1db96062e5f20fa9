// Package query filters and orders transaction lists for display.
package query

import (
	"sort"
	"strings"

	"budgettracker/internal/core"
)

// SortKey selects the display order.
type SortKey string

const (
	DateAsc    SortKey = "date_asc"
	DateDesc   SortKey = "date_desc"
	AmountAsc  SortKey = "amount_asc"
	AmountDesc SortKey = "amount_desc"
)

// TypeAll disables the type constraint.
const TypeAll = "all"

// FilterSpec is the set of active constraints plus the sort order.
// Zero values mean "no constraint" and "no sorting".
type FilterSpec struct {
	Type     string     `json:"type"` // "all", "income", "expense" or empty
	Month    core.Month `json:"month,omitempty"`
	Category string     `json:"category,omitempty"` // case-insensitive substring
	Sort     SortKey    `json:"sort,omitempty"`
}

// DefaultSpec is the state the filter form resets to.
func DefaultSpec() FilterSpec {
	return FilterSpec{Type: TypeAll, Sort: DateDesc}
}

// ParseSortKey maps unknown keys to "" (no sorting).
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case DateAsc, DateDesc, AmountAsc, AmountDesc:
		return k
	}
	return ""
}

// ParseSpec builds a FilterSpec from raw form or query values. An empty
// type means all; an unknown sort key means no sorting.
func ParseSpec(typ, month, category, sort string) (FilterSpec, error) {
	spec := FilterSpec{
		Type:     TypeAll,
		Category: strings.TrimSpace(category),
		Sort:     ParseSortKey(sort),
	}
	switch t := strings.ToLower(strings.TrimSpace(typ)); t {
	case "", TypeAll:
	default:
		tt, err := core.ParseTxType(t)
		if err != nil {
			return FilterSpec{}, err
		}
		spec.Type = string(tt)
	}
	if m := strings.TrimSpace(month); m != "" {
		pm, err := core.ParseMonth(m)
		if err != nil {
			return FilterSpec{}, err
		}
		spec.Month = pm
	}
	return spec, nil
}

// Key is a stable string form of the filter, used as a cache key.
func (s FilterSpec) Key() string {
	return strings.Join([]string{s.Type, string(s.Month), core.NormalizeCategory(s.Category), string(s.Sort)}, "|")
}

// Match reports whether t passes every supplied constraint.
func (s FilterSpec) Match(t core.Transaction) bool {
	if s.Type != "" && s.Type != TypeAll && string(t.Type) != s.Type {
		return false
	}
	if s.Month != "" && !strings.HasPrefix(t.Date, string(s.Month)) {
		return false
	}
	if needle := core.NormalizeCategory(s.Category); needle != "" {
		if !strings.Contains(core.NormalizeCategory(t.Category), needle) {
			return false
		}
	}
	return true
}

// FilterAndSort returns a new slice holding the transactions that match
// spec, in the order spec asks for. The input is never modified.
func FilterAndSort(txs []core.Transaction, spec FilterSpec) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if spec.Match(t) {
			out = append(out, t)
		}
	}

	var less func(a, b core.Transaction) bool
	switch spec.Sort {
	case DateAsc:
		less = func(a, b core.Transaction) bool { return a.Date < b.Date }
	case DateDesc:
		less = func(a, b core.Transaction) bool { return a.Date > b.Date }
	case AmountAsc:
		less = func(a, b core.Transaction) bool { return a.Amount.LessThan(b.Amount) }
	case AmountDesc:
		less = func(a, b core.Transaction) bool { return a.Amount.GreaterThan(b.Amount) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
