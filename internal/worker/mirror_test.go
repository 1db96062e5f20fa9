package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/events"
	"budgettracker/internal/sheets/memory"
	"budgettracker/internal/store"
)

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     core.Expense,
		Amount:   decimal.RequireFromString("9.99"),
		Date:     "2024-05-01",
		Category: "Books",
	}
}

type failingMirror struct{ err error }

func (f failingMirror) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", f.err
}

func (f failingMirror) ClearTransaction(context.Context, string) (bool, error) {
	return false, f.err
}

func TestMirror_Handle(t *testing.T) {
	ctx := context.Background()
	sheet := memory.New()
	m := NewMirror(sheet)
	tx := sampleTx("t1")

	steps := []struct {
		name string
		msg  *events.ChangeMessage
	}{
		{"created", &events.ChangeMessage{Kind: store.TransactionCreated, ID: "t1", Transaction: &tx}},
		{"budget ignored", &events.ChangeMessage{Kind: store.BudgetSet, ID: "b1"}},
		{"deleted", &events.ChangeMessage{Kind: store.TransactionDeleted, ID: "t1"}},
		{"deleted twice", &events.ChangeMessage{Kind: store.TransactionDeleted, ID: "t1"}},
	}
	for _, s := range steps {
		if err := m.Handle(ctx, s.msg); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}

	want := Stats{Appended: 1, Cleared: 2, Ignored: 1}
	if got := m.Stats(); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
	if rows := sheet.Rows(); len(rows) != 2 || rows[1][0] != "" {
		t.Errorf("rows = %v, want header and one cleared row", rows)
	}
}

func TestMirror_HandleErrorsAreReturned(t *testing.T) {
	ctx := context.Background()
	m := NewMirror(failingMirror{err: errors.New("quota exceeded")})
	tx := sampleTx("t1")

	if err := m.Handle(ctx, &events.ChangeMessage{Kind: store.TransactionCreated, ID: "t1", Transaction: &tx}); err == nil {
		t.Error("expected append error")
	}
	if err := m.Handle(ctx, &events.ChangeMessage{Kind: store.TransactionDeleted, ID: "t1"}); err == nil {
		t.Error("expected clear error")
	}
	if err := m.Handle(ctx, &events.ChangeMessage{Kind: store.TransactionCreated, ID: "t2"}); err == nil {
		t.Error("expected error for missing payload")
	}
	if got := m.Stats().Failed; got != 3 {
		t.Errorf("Failed = %d, want 3", got)
	}
}

func TestMirror_Reconcile(t *testing.T) {
	ctx := context.Background()
	sheet := memory.New()
	m := NewMirror(sheet)

	_, _ = sheet.AppendTransaction(ctx, sampleTx("t1"))
	if err := m.Reconcile(ctx, []core.Transaction{sampleTx("t1"), sampleTx("t2")}); err != nil {
		t.Fatal(err)
	}
	if rows := sheet.Rows(); len(rows) != 3 {
		t.Errorf("rows = %d, want header plus two", len(rows))
	}

	if err := NewMirror(failingMirror{err: errors.New("down")}).Reconcile(ctx, []core.Transaction{sampleTx("t1")}); err == nil {
		t.Error("expected joined error")
	}
}
