package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/persist"
	"budgettracker/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "tracker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleSnapshot() persist.Snapshot {
	return persist.Snapshot{
		Transactions: []core.Transaction{
			{ID: "t1", Type: core.Income, Amount: decimal.RequireFromString("1000"), Date: "2024-01-01", Category: "Salary"},
			{ID: "t2", Type: core.Expense, Amount: decimal.RequireFromString("12.34"), Date: "2024-03-05", Category: "Food", Notes: `said "hi"`},
			{ID: "t3", Type: core.Expense, Amount: decimal.RequireFromString("60"), Date: "2024-02-10", Category: "Fuel"},
		},
		Budgets: []core.Budget{
			{ID: "b1", Month: "2024-03", Category: "Food", Amount: decimal.RequireFromString("200")},
		},
	}
}

func TestEmptyDatabaseLoadsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Transactions == nil || snap.Budgets == nil {
		t.Fatalf("expected non-nil empty slices, got %+v", snap)
	}
	if len(snap.Transactions) != 0 || len(snap.Budgets) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestSaveLoadPreservesOrderAndValues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	want := sampleSnapshot()

	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Transactions) != len(want.Transactions) {
		t.Fatalf("transactions = %d, want %d", len(got.Transactions), len(want.Transactions))
	}
	for i := range want.Transactions {
		w, g := want.Transactions[i], got.Transactions[i]
		if g.ID != w.ID || g.Type != w.Type || !g.Amount.Equal(w.Amount) || g.Date != w.Date || g.Category != w.Category || g.Notes != w.Notes {
			t.Errorf("transaction %d = %+v, want %+v", i, g, w)
		}
	}
	if len(got.Budgets) != 1 || got.Budgets[0].Month != "2024-03" || !got.Budgets[0].Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("budgets = %+v", got.Budgets)
	}
}

func TestSaveReplacesEverything(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	next := persist.Snapshot{Transactions: sampleSnapshot().Transactions[:1]}
	if err := repo.Save(ctx, next); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transactions) != 1 || len(got.Budgets) != 0 {
		t.Errorf("got %d transactions %d budgets, want 1 and 0", len(got.Transactions), len(got.Budgets))
	}
}

func TestSaveRejectsDuplicateBudgetCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	dup := sampleSnapshot()
	dup.Budgets = append(dup.Budgets, core.Budget{ID: "b2", Month: "2024-03", Category: "FOOD", Amount: decimal.NewFromInt(1)})
	if err := repo.Save(ctx, dup); err == nil {
		t.Fatal("expected unique constraint violation")
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Budgets) != 1 || got.Budgets[0].ID != "b1" {
		t.Errorf("failed save was not rolled back: %+v", got.Budgets)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	got, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"t2", "t3", "t1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestPartiallyCorruptDatabaseKeepsHealthyRowsThroughTheStore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seed := sampleSnapshot()
	seed.Budgets = nil
	if err := repo.Save(ctx, seed); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO budgets (id, month, category, amount, seq) VALUES ('bad', '2024-03', 'Rent', 'garbage', 0)`); err != nil {
		t.Fatal(err)
	}

	s := store.New(repo)
	res := s.Load(ctx)
	if !errors.Is(res.Degraded, persist.ErrCorrupt) {
		t.Fatalf("Degraded = %v, want ErrCorrupt", res.Degraded)
	}
	if res.Transactions != 3 || res.Budgets != 0 {
		t.Fatalf("LoadResult = %+v, want 3 transactions and no budgets", res)
	}

	extra := core.Transaction{ID: "t4", Type: core.Expense, Amount: decimal.RequireFromString("7"), Date: "2024-03-09", Category: "Food"}
	if err := s.AddTransaction(ctx, extra); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if len(got.Transactions) != 4 {
		t.Fatalf("transactions after save = %d, want 4", len(got.Transactions))
	}
	if len(got.Budgets) != 0 {
		t.Errorf("unreadable budget should be gone after save, got %+v", got.Budgets)
	}
}

func TestRevisionMovesWithEverySave(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	first, err := repo.Revision(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	second, err := repo.Revision(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("revision stayed %q after save", first)
	}
}

func TestStoresSharingADatabaseKeepEachOthersChanges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracker.db")
	open := func() *store.Store {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { repo.Close() })
		s := store.New(repo)
		s.Load(ctx)
		return s
	}
	first, second := open(), open()

	a := core.Transaction{ID: "a", Type: core.Expense, Amount: decimal.RequireFromString("5"), Date: "2024-03-05", Category: "Food"}
	b := core.Transaction{ID: "b", Type: core.Income, Amount: decimal.RequireFromString("9"), Date: "2024-03-06", Category: "Salary"}
	if err := first.AddTransaction(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := second.AddTransaction(ctx, b); err != nil {
		t.Fatal(err)
	}
	if got := len(open().Transactions()); got != 2 {
		t.Fatalf("transactions = %d, want 2", got)
	}
}
