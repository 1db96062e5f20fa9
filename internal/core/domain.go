package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the ISO calendar date format used for Transaction.Date.
// Zero-padded ISO dates sort lexicographically in chronological order,
// so dates are compared as strings throughout.
const DateLayout = "2006-01-02"

type (
	TxType string

	Transaction struct {
		ID       string          `json:"id"`
		Type     TxType          `json:"type"`
		Amount   decimal.Decimal `json:"amount"`
		Date     string          `json:"date"`
		Category string          `json:"category"`
		Notes    string          `json:"notes,omitempty"`
	}

	// Budget is a spending ceiling for one category in one calendar month.
	Budget struct {
		ID       string          `json:"id"`
		Month    Month           `json:"month"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyDate       = errors.New("empty date")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyMonth      = errors.New("empty month")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrNotesTooLong    = errors.New("notes too long (max 500 characters)")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
)

// ParseTxType accepts "income" or "expense", case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// NormalizeCategory is the single case folding used wherever categories are
// compared: budget lookup, budget replacement and the substring filter.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameCategory reports whether a and b name the same category.
func SameCategory(a, b string) bool {
	return NormalizeCategory(a) == NormalizeCategory(b)
}

// ValidateDate checks for a non-empty YYYY-MM-DD date.
func ValidateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := ValidateDate(t.Date); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 100 {
		return ErrCategoryTooLong
	}
	if len(t.Notes) > 500 {
		return ErrNotesTooLong
	}
	return nil
}

// Month returns the YYYY-MM prefix of the transaction date.
func (t Transaction) Month() Month {
	if len(t.Date) < 7 {
		return Month(t.Date)
	}
	return Month(t.Date[:7])
}

func (b Budget) Validate() error {
	if strings.TrimSpace(string(b.Month)) == "" {
		return ErrEmptyMonth
	}
	if _, err := ParseMonth(string(b.Month)); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if len(b.Category) > 100 {
		return ErrCategoryTooLong
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// TransactionInput carries raw form values for a new transaction.
type TransactionInput struct {
	Type     string
	Amount   string
	Date     string
	Category string
	Notes    string
}

// NewTransaction builds a validated Transaction with a fresh id.
// Text fields are trimmed the way the entry form trims them.
func NewTransaction(in TransactionInput) (Transaction, error) {
	typ, err := ParseTxType(in.Type)
	if err != nil {
		return Transaction{}, err
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	t := Transaction{
		ID:       NewID(),
		Type:     typ,
		Amount:   amount,
		Date:     strings.TrimSpace(in.Date),
		Category: strings.TrimSpace(in.Category),
		Notes:    strings.TrimSpace(in.Notes),
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// BudgetInput carries raw form values for a budget.
type BudgetInput struct {
	Month    string
	Category string
	Amount   string
}

// NewBudget builds a validated Budget with a fresh id.
func NewBudget(in BudgetInput) (Budget, error) {
	if strings.TrimSpace(in.Month) == "" {
		return Budget{}, ErrEmptyMonth
	}
	m, err := ParseMonth(in.Month)
	if err != nil {
		return Budget{}, err
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Budget{}, err
	}
	b := Budget{
		ID:       NewID(),
		Month:    m,
		Category: strings.TrimSpace(in.Category),
		Amount:   amount,
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// NewID returns an opaque unique identifier.
func NewID() string {
	return uuid.NewString()
}

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidType, ErrEmptyDate, ErrInvalidDate,
		ErrEmptyCategory, ErrEmptyMonth, ErrInvalidMonth, ErrNotesTooLong,
		ErrCategoryTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
