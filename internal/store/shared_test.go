package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgettracker/internal/persist/blob"
)

func openBlobStore(t *testing.T, dir string) *Store {
	t.Helper()
	s := New(blob.New(dir))
	if res := s.Load(context.Background()); res.Degraded != nil {
		t.Fatalf("Load: %v", res.Degraded)
	}
	return s
}

func TestFailedBlobSaveLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := openBlobStore(t, dir)

	budgets := filepath.Join(dir, blob.BudgetsKey+".json")
	if err := os.MkdirAll(filepath.Join(budgets, "occupied"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTransaction(ctx, tx("a", "expense", "5", "2024-03-05", "Food")); err == nil {
		t.Fatal("expected AddTransaction to fail while budgets cannot be written")
	}
	if got := len(s.Transactions()); got != 0 {
		t.Fatalf("in-memory transactions = %d, want 0", got)
	}
	if err := os.RemoveAll(budgets); err != nil {
		t.Fatal(err)
	}

	if got := len(openBlobStore(t, dir).Transactions()); got != 0 {
		t.Fatalf("reloaded transactions = %d, want 0", got)
	}
}

func TestStoresSharingADirectoryKeepEachOthersChanges(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	server := openBlobStore(t, dir)
	cli := openBlobStore(t, dir)

	if err := cli.AddTransaction(ctx, tx("from-cli", "expense", "5", "2024-03-05", "Food")); err != nil {
		t.Fatalf("cli AddTransaction: %v", err)
	}
	if err := server.AddTransaction(ctx, tx("from-api", "income", "100", "2024-03-06", "Salary")); err != nil {
		t.Fatalf("server AddTransaction: %v", err)
	}
	if err := cli.SetBudget(ctx, budget("b1", "2024-03", "Food", "50")); err != nil {
		t.Fatalf("cli SetBudget: %v", err)
	}

	got := openBlobStore(t, dir)
	ids := map[string]bool{}
	for _, tr := range got.Transactions() {
		ids[tr.ID] = true
	}
	if len(ids) != 2 || !ids["from-cli"] || !ids["from-api"] {
		t.Fatalf("transactions on disk = %v, want both writers' entries", ids)
	}
	if len(got.Budgets()) != 1 {
		t.Fatalf("budgets on disk = %+v", got.Budgets())
	}
}

func TestRefreshPicksUpAnotherWriter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	server := openBlobStore(t, dir)
	cli := openBlobStore(t, dir)

	if changed, err := server.Refresh(ctx); err != nil || changed {
		t.Fatalf("Refresh before any write = %v, %v", changed, err)
	}
	before := server.Version()

	if err := cli.AddTransaction(ctx, tx("a", "expense", "5", "2024-03-05", "Food")); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	changed, err := server.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("Refresh after write = %v, %v", changed, err)
	}
	if len(server.Transactions()) != 1 {
		t.Fatalf("server transactions = %+v", server.Transactions())
	}
	if server.Version() == before {
		t.Errorf("expected version to move after a refresh")
	}
}
