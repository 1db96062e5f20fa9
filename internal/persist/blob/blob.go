// Package blob persists the record store as keyed JSON blobs in a
// directory, one file per key.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"budgettracker/internal/core"
	"budgettracker/internal/persist"
)

const (
	TransactionsKey = "bt_transactions_v1"
	BudgetsKey      = "bt_budgets_v1"
)

const lockName = ".lock"

type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

var (
	_ persist.Persister  = (*Store)(nil)
	_ persist.Locker     = (*Store)(nil)
	_ persist.Revisioner = (*Store)(nil)
)

func New(dir string) *Store {
	return &Store{dir: dir, logger: slog.Default()}
}

// SetLogger replaces the logger used for load and save events.
func (s *Store) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads both keys. A missing key is an empty list; a malformed key
// yields an empty list and an error wrapping persist.ErrCorrupt, while
// the other key is still returned.
func (s *Store) Load(ctx context.Context) (persist.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap persist.Snapshot
	var errs []error
	if err := s.get(TransactionsKey, &snap.Transactions); err != nil {
		s.logger.WarnContext(ctx, "Discarding unreadable blob", "key", TransactionsKey, "error", err)
		snap.Transactions = nil
		errs = append(errs, err)
	}
	if err := s.get(BudgetsKey, &snap.Budgets); err != nil {
		s.logger.WarnContext(ctx, "Discarding unreadable blob", "key", BudgetsKey, "error", err)
		snap.Budgets = nil
		errs = append(errs, err)
	}
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	if snap.Budgets == nil {
		snap.Budgets = []core.Budget{}
	}
	return snap, errors.Join(errs...)
}

// Save writes both keys. Both payloads are staged in temp files before
// either key is replaced; if the budgets key cannot be replaced, the
// transactions key is put back to what it held before.
func (s *Store) Save(ctx context.Context, snap persist.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	txData, err := encode(TransactionsKey, nonNil(snap.Transactions))
	if err != nil {
		return err
	}
	budgetData, err := encode(BudgetsKey, nonNil(snap.Budgets))
	if err != nil {
		return err
	}

	txTmp, err := s.stage(TransactionsKey, txData)
	if err != nil {
		return err
	}
	defer os.Remove(txTmp)
	budgetTmp, err := s.stage(BudgetsKey, budgetData)
	if err != nil {
		return err
	}
	defer os.Remove(budgetTmp)

	prev, err := os.ReadFile(s.path(TransactionsKey))
	existed := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", TransactionsKey, err)
	}

	if err := os.Rename(txTmp, s.path(TransactionsKey)); err != nil {
		return fmt.Errorf("replace %s: %w", TransactionsKey, err)
	}
	if err := os.Rename(budgetTmp, s.path(BudgetsKey)); err != nil {
		err = fmt.Errorf("replace %s: %w", BudgetsKey, err)
		if rerr := s.restore(TransactionsKey, prev, existed); rerr != nil {
			s.logger.ErrorContext(ctx, "Blob left half written", "key", TransactionsKey, "error", rerr)
			return errors.Join(err, rerr)
		}
		return err
	}

	s.logger.DebugContext(ctx, "Blob snapshot saved",
		"dir", s.dir,
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets))
	return nil
}

func (s *Store) get(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", persist.ErrCorrupt, key, err)
	}
	return nil
}

func encode(key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

// stage writes data to a temp file next to key and returns its path.
func (s *Store) stage(key string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return tmp.Name(), nil
}

// restore puts key back to prev, or removes it if it did not exist.
func (s *Store) restore(key string, prev []byte, existed bool) error {
	if !existed {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		return nil
	}
	tmp, err := s.stage(key, prev)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("restore %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Ping reports whether the blob directory is usable. A directory that
// does not exist yet is fine; it is created on first save.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat blob directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob path %s is not a directory", s.dir)
	}
	return nil
}

// Lock takes the directory lock shared by every process using dir.
func (s *Store) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return persist.NewLockFile(filepath.Join(s.dir, lockName)).Lock(ctx)
}

// Revision is built from the size and modification time of both keys.
func (s *Store) Revision(context.Context) (string, error) {
	var b strings.Builder
	for _, key := range []string{TransactionsKey, BudgetsKey} {
		info, err := os.Stat(s.path(key))
		switch {
		case errors.Is(err, os.ErrNotExist):
			b.WriteString("-;")
		case err != nil:
			return "", fmt.Errorf("stat %s: %w", key, err)
		default:
			fmt.Fprintf(&b, "%d:%d;", info.Size(), info.ModTime().UnixNano())
		}
	}
	return b.String(), nil
}

// Dir returns the directory holding the blobs.
func (s *Store) Dir() string { return s.dir }
