package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"

	goption "google.golang.org/api/option"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	rows    map[int][]any
	cleared []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sheet-id/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case r.Method == http.MethodGet && rng == "Transactions!A:A":
		n := 0
		for row := range f.rows {
			if row > n {
				n = row
			}
		}
		values := make([][]any, n)
		for i := range values {
			if cells := f.rows[i+1]; len(cells) > 0 {
				values[i] = []any{cells[0]}
			} else {
				values[i] = []any{}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": values})

	case r.Method == http.MethodPut:
		var row, end int
		if _, err := fmt.Sscanf(rng, "Transactions!A%d:F%d", &row, &end); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, "missing valueInputOption", http.StatusBadRequest)
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Values) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		f.rows[row] = body.Values[0]
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})

	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		rng = strings.TrimSuffix(rng, ":clear")
		var row, end int
		if _, err := fmt.Sscanf(rng, "Transactions!A%d:F%d", &row, &end); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		delete(f.rows, row)
		f.cleared = append(f.cleared, rng)
		_ = json.NewEncoder(w).Encode(map[string]any{"clearedRange": rng})

	default:
		http.Error(w, "unsupported "+r.Method+" "+rng, http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{rows: map[int][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewWithOptions(context.Background(), "sheet-id", "Transactions",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return c, fake
}

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     core.Expense,
		Amount:   decimal.RequireFromString("12.5"),
		Date:     "2024-03-05",
		Category: "Food",
		Notes:    "lunch",
	}
}

func TestNewWithOptions_MissingSpreadsheetID(t *testing.T) {
	if _, err := NewWithOptions(context.Background(), "  ", "x"); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	if _, err := New(context.Background(), "sheet-id", "x", nil); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestAppendTransaction_WritesHeaderThenRows(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	ref, err := c.AppendTransaction(ctx, sampleTx("t1"))
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if ref != "Transactions!A2:F2" {
		t.Errorf("ref = %q, want Transactions!A2:F2", ref)
	}
	if got := fmt.Sprint(fake.rows[1][0]); got != "ID" {
		t.Errorf("header cell = %q, want ID", got)
	}
	if got := fmt.Sprint(fake.rows[2][4]); got != "12.50" {
		t.Errorf("amount cell = %q, want 12.50", got)
	}

	ref, err = c.AppendTransaction(ctx, sampleTx("t2"))
	if err != nil || ref != "Transactions!A3:F3" {
		t.Errorf("second append = %q, %v", ref, err)
	}
}

func TestAppendTransaction_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	var logs bytes.Buffer
	c.SetLogger(applog.New(applog.Config{Output: &logs, Level: slog.LevelDebug}).WithComponent(applog.ComponentSheets).Logger)

	first, _ := c.AppendTransaction(ctx, sampleTx("t1"))
	again, err := c.AppendTransaction(ctx, sampleTx("t1"))
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Errorf("re-append ref = %q, want %q", again, first)
	}
	if len(fake.rows) != 2 {
		t.Errorf("rows = %d, want header plus one", len(fake.rows))
	}
	if out := logs.String(); !strings.Contains(out, "component=sheets") || !strings.Contains(out, "already mirrored") {
		t.Errorf("log output = %q", out)
	}
}

func TestAppendTransaction_RejectsInvalid(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	bad := sampleTx("t1")
	bad.Amount = decimal.Zero
	if _, err := c.AppendTransaction(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestClearTransaction(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	_, _ = c.AppendTransaction(ctx, sampleTx("t1"))
	_, _ = c.AppendTransaction(ctx, sampleTx("t2"))

	found, err := c.ClearTransaction(ctx, "t1")
	if err != nil || !found {
		t.Fatalf("ClearTransaction = %v, %v", found, err)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "Transactions!A2:F2" {
		t.Errorf("cleared = %v", fake.cleared)
	}

	found, err = c.ClearTransaction(ctx, "missing")
	if err != nil || found {
		t.Errorf("missing id = %v, %v; want false, nil", found, err)
	}
}
