// Package storage is the relational persistence backend. It keeps both
// collections in SQLite tables and satisfies persist.Persister.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/persist"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	lock   *persist.LockFile
	logger *slog.Logger
}

var (
	_ persist.Persister  = (*SQLiteRepository)(nil)
	_ persist.Locker     = (*SQLiteRepository)(nil)
	_ persist.Revisioner = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		lock:   persist.NewLockFile(dbPath + ".lock"),
		logger: slog.Default(),
	}, nil
}

// SetLogger replaces the logger used for load and save events.
func (r *SQLiteRepository) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Lock takes the lock file that sits next to the database.
func (r *SQLiteRepository) Lock(ctx context.Context) (func(), error) {
	return r.lock.Lock(ctx)
}

// Revision returns the counter that every Save increments.
func (r *SQLiteRepository) Revision(ctx context.Context) (string, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx, `SELECT revision FROM store_meta WHERE id = 1`).Scan(&rev); err != nil {
		return "", fmt.Errorf("read revision: %w", err)
	}
	return strconv.FormatInt(rev, 10), nil
}

// Load implements persist.Persister. Rows that fail to decode are skipped
// and reported with persist.ErrCorrupt alongside the readable ones.
func (r *SQLiteRepository) Load(ctx context.Context) (persist.Snapshot, error) {
	txs, txErr := r.queryTransactions(ctx, "ORDER BY seq ASC")
	budgets, bErr := r.queryBudgets(ctx)
	if txs == nil {
		txs = []core.Transaction{}
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	err := errors.Join(txErr, bErr)
	if err != nil {
		r.logger.WarnContext(ctx, "Skipped unreadable rows",
			"transactions", len(txs),
			"budgets", len(budgets),
			"error", err)
	}
	return persist.Snapshot{Transactions: txs, Budgets: budgets}, err
}

// ListTransactions returns every stored transaction, newest date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "ORDER BY date DESC, seq DESC")
}

// Save implements persist.Persister. Both tables are replaced inside a
// single SQL transaction.
func (r *SQLiteRepository) Save(ctx context.Context, s persist.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
		return fmt.Errorf("clear budgets: %w", err)
	}

	txStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, amount, category, type, date, note, seq) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer txStmt.Close()
	for i, t := range s.Transactions {
		if _, err = txStmt.ExecContext(ctx, t.ID, t.Amount.String(), t.Category, string(t.Type), t.Date, t.Notes, i); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	bStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO budgets (id, month, category, amount, seq) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare budget insert: %w", err)
	}
	defer bStmt.Close()
	for i, b := range s.Budgets {
		if _, err = bStmt.ExecContext(ctx, b.ID, b.Month.String(), b.Category, b.Amount.String(), i); err != nil {
			return fmt.Errorf("insert budget %s: %w", b.ID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE store_meta SET revision = revision + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Snapshot saved to SQLite",
		"transactions", len(s.Transactions),
		"budgets", len(s.Budgets))
	return nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, order string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, category, type, date, note FROM transactions `+order)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	var bad error
	for rows.Next() {
		var (
			t      core.Transaction
			amount string
			typ    string
		)
		if err := rows.Scan(&t.ID, &amount, &t.Category, &typ, &t.Date, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TxType(typ)
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			bad = errors.Join(bad, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, persist.ErrCorrupt))
			continue
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, bad
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, month, category, amount FROM budgets ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	var bad error
	for rows.Next() {
		var (
			b      core.Budget
			month  string
			amount string
		)
		if err := rows.Scan(&b.ID, &month, &b.Category, &amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Month = core.Month(month)
		b.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			bad = errors.Join(bad, fmt.Errorf("budget %s amount %q: %w", b.ID, amount, persist.ErrCorrupt))
			continue
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, bad
}
