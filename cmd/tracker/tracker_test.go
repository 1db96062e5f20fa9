package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budgettracker/internal/query"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("tracker %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCommandsAgainstBlobBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")
	base := []string{"--env-file", filepath.Join(dir, "none.env"), "--backend", "blob", "--data-dir", dir}
	cmd := func(args ...string) string { return runCLI(t, append(append([]string{}, base...), args...)...) }

	out := cmd("add", "--type", "expense", "--amount", "42,50", "--category", "Groceries", "--date", "2024-05-03", "--notes", "weekly")
	if !strings.Contains(out, "$42.50") {
		t.Fatalf("add output=%q", out)
	}
	cmd("add", "--type", "income", "--amount", "2000", "--category", "Salary", "--date", "2024-05-01")

	out = cmd("list", "--type", "expense")
	if !strings.Contains(out, "Groceries") || strings.Contains(out, "Salary") {
		t.Fatalf("list output=%q", out)
	}

	out = cmd("budget", "set", "--month", "2024-05", "--category", "groceries", "--amount", "100")
	if !strings.Contains(out, "Budget for groceries") {
		t.Fatalf("budget set output=%q", out)
	}
	out = cmd("budget", "list")
	if !strings.Contains(out, "$42.50") || !strings.Contains(out, "43%") {
		t.Fatalf("budget list output=%q", out)
	}

	csvPath := filepath.Join(dir, "out.csv")
	cmd("export", "--format", "csv", "--out", csvPath, "--type", "all")
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(string(data), "\n"); len(lines) != 3 || lines[0] != "id,date,type,category,amount,notes" {
		t.Fatalf("csv=%q", data)
	}

	out = cmd("summary", "--month", "2024-05")
	if !strings.Contains(out, "BUDGET SUMMARY") || !strings.Contains(out, "$1957.50") {
		t.Fatalf("summary output=%q", out)
	}
}

func TestFilterFlagsSpec(t *testing.T) {
	f := filterFlags{typ: "Income", month: "2024-02", category: " food ", sort: "amount_asc"}
	spec, err := f.spec()
	if err != nil {
		t.Fatal(err)
	}
	want := query.FilterSpec{Type: "income", Month: "2024-02", Category: "food", Sort: query.AmountAsc}
	if spec != want {
		t.Fatalf("spec=%+v want %+v", spec, want)
	}

	if _, err := (filterFlags{month: "2024-2x"}).spec(); err == nil {
		t.Fatal("expected invalid month error")
	}
}
