package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction(TransactionInput{
		Type:     "expense",
		Amount:   "40",
		Date:     "2024-03-05",
		Category: "  Food ",
		Notes:    " lunch ",
	})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.ID == "" {
		t.Fatalf("expected generated id")
	}
	if tx.Category != "Food" || tx.Notes != "lunch" {
		t.Fatalf("expected trimmed fields, got %q %q", tx.Category, tx.Notes)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected amount %s", tx.Amount)
	}
	if tx.Month() != "2024-03" {
		t.Fatalf("unexpected month %q", tx.Month())
	}
}

func TestNewTransactionRejects(t *testing.T) {
	cases := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"zero amount", TransactionInput{Type: "income", Amount: "0", Date: "2024-01-01", Category: "c"}, ErrInvalidAmount},
		{"negative amount", TransactionInput{Type: "income", Amount: "-5", Date: "2024-01-01", Category: "c"}, ErrInvalidAmount},
		{"empty amount", TransactionInput{Type: "income", Amount: "", Date: "2024-01-01", Category: "c"}, ErrInvalidAmount},
		{"empty date", TransactionInput{Type: "income", Amount: "5", Date: "", Category: "c"}, ErrEmptyDate},
		{"bad date", TransactionInput{Type: "income", Amount: "5", Date: "2024-13-01", Category: "c"}, ErrInvalidDate},
		{"empty category", TransactionInput{Type: "income", Amount: "5", Date: "2024-01-01", Category: "   "}, ErrEmptyCategory},
		{"bad type", TransactionInput{Type: "transfer", Amount: "5", Date: "2024-01-01", Category: "c"}, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTransaction(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewBudget(t *testing.T) {
	b, err := NewBudget(BudgetInput{Month: "2024-03", Category: "Food", Amount: "50"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if b.Month != "2024-03" || b.ID == "" {
		t.Fatalf("unexpected budget %+v", b)
	}

	bads := []BudgetInput{
		{Month: "", Category: "Food", Amount: "50"},
		{Month: "2024-3x", Category: "Food", Amount: "50"},
		{Month: "2024-03", Category: "", Amount: "50"},
		{Month: "2024-03", Category: "Food", Amount: ""},
		{Month: "2024-03", Category: "Food", Amount: "0"},
	}
	for i, in := range bads {
		if _, err := NewBudget(in); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSameCategory(t *testing.T) {
	if !SameCategory("Food", " food") {
		t.Fatalf("expected case-insensitive match")
	}
	if SameCategory("Food", "Fuel") {
		t.Fatalf("unexpected match")
	}
}

func TestParseTxType(t *testing.T) {
	if typ, err := ParseTxType("Income"); err != nil || typ != Income {
		t.Fatalf("got %q, %v", typ, err)
	}
	if _, err := ParseTxType("all"); err == nil {
		t.Fatalf("expected error for all")
	}
}
