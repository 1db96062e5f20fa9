// Package store owns the in-memory transaction and budget collections and
// their persistence lifecycle.
//
// Every mutation validates first, applies the change to a copy, saves the
// copy and only then swaps it in, so a rejected or unsaved change leaves
// the previous state untouched. Several processes may share one backend:
// mutations hold the persister's lock and first pick up anything another
// process saved.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgettracker/internal/core"
	"budgettracker/internal/persist"
)

// ChangeKind names a committed mutation.
type ChangeKind string

const (
	TransactionCreated ChangeKind = "transaction.created"
	TransactionDeleted ChangeKind = "transaction.deleted"
	BudgetSet          ChangeKind = "budget.set"
	BudgetRemoved      ChangeKind = "budget.removed"
)

// Change describes one committed mutation.
type Change struct {
	Kind        ChangeKind
	ID          string
	Transaction *core.Transaction
	Budget      *core.Budget
	// Replaced holds the id of a budget displaced by BudgetSet, if any.
	Replaced string
}

// Listener is notified after a mutation has been saved.
type Listener interface {
	OnChange(ctx context.Context, c Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, c Change)

func (f ListenerFunc) OnChange(ctx context.Context, c Change) { f(ctx, c) }

// LoadResult reports how Load went. Degraded is set when some stored
// data could not be read; the store then holds whatever was readable.
type LoadResult struct {
	Transactions int
	Budgets      int
	Degraded     error
}

type Store struct {
	mu        sync.RWMutex
	p         persist.Persister
	data      persist.Snapshot
	version   uint64
	revision  string
	listeners []Listener
	logger    *slog.Logger
}

func New(p persist.Persister, listeners ...Listener) *Store {
	return &Store{
		p:         p,
		data:      persist.Snapshot{Transactions: []core.Transaction{}, Budgets: []core.Budget{}},
		listeners: listeners,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger used for persistence warnings.
func (s *Store) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// AddListener registers l for future changes.
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load replaces the in-memory state with the persisted one. Persistence
// failures never propagate: the store keeps whatever part of the state
// was readable (possibly nothing) and reports the cause in
// LoadResult.Degraded.
func (s *Store) Load(ctx context.Context) LoadResult {
	unlock, err := s.lock(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Loading without the persisted state lock", "error", err)
		unlock = func() {}
	}
	defer unlock()

	snap, rev, err := s.fetch(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Persisted state partially unreadable",
			"transactions", len(snap.Transactions),
			"budgets", len(snap.Budgets),
			"error", err)
	}

	s.mu.Lock()
	s.install(snap, rev)
	s.mu.Unlock()

	return LoadResult{
		Transactions: len(snap.Transactions),
		Budgets:      len(snap.Budgets),
		Degraded:     err,
	}
}

// Refresh reloads the state if another process has saved since this
// store last loaded or saved. Persisters that cannot report a revision
// are never reloaded. It reports whether the state was replaced.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	rp, ok := s.p.(persist.Revisioner)
	if !ok {
		return false, nil
	}
	rev, err := rp.Revision(ctx)
	if err != nil {
		return false, fmt.Errorf("read revision: %w", err)
	}
	s.mu.RLock()
	current := rev == s.revision
	s.mu.RUnlock()
	if current {
		return false, nil
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

// syncLocked reloads when the stored revision moved. Unreadable rows are
// dropped with a warning; any other failure leaves the state untouched.
// The caller holds s.mu and the persister lock.
func (s *Store) syncLocked(ctx context.Context) (bool, error) {
	rp, ok := s.p.(persist.Revisioner)
	if !ok {
		return false, nil
	}
	rev, err := rp.Revision(ctx)
	if err != nil {
		return false, fmt.Errorf("read revision: %w", err)
	}
	if rev == s.revision {
		return false, nil
	}
	snap, rev, err := s.fetch(ctx)
	if err != nil {
		if !errors.Is(err, persist.ErrCorrupt) {
			return false, fmt.Errorf("reload snapshot: %w", err)
		}
		s.logger.WarnContext(ctx, "Persisted state partially unreadable", "error", err)
	}
	s.install(snap, rev)
	return true, nil
}

// fetch loads the persisted state and its revision. On error the
// snapshot still carries the readable part.
func (s *Store) fetch(ctx context.Context) (persist.Snapshot, string, error) {
	snap, err := s.p.Load(ctx)
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	if snap.Budgets == nil {
		snap.Budgets = []core.Budget{}
	}
	return snap, s.currentRevision(ctx), err
}

func (s *Store) install(snap persist.Snapshot, rev string) {
	s.data = snap
	s.revision = rev
	s.version++
}

func (s *Store) currentRevision(ctx context.Context) string {
	rp, ok := s.p.(persist.Revisioner)
	if !ok {
		return ""
	}
	rev, err := rp.Revision(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Revision unavailable", "error", err)
		return ""
	}
	return rev
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	lp, ok := s.p.(persist.Locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := lp.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock persisted state: %w", err)
	}
	return unlock, nil
}

// Save persists the current state, replacing whatever is stored.
func (s *Store) Save(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.p.Save(ctx, s.data.Clone()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.revision = s.currentRevision(ctx)
	return nil
}

// Transactions returns a copy of all transactions in insertion order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.data.Transactions...)
}

// Budgets returns a copy of all budgets in insertion order.
func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Budget(nil), s.data.Budgets...)
}

// Snapshot returns a consistent copy of both collections and the version
// they belong to.
func (s *Store) Snapshot() (persist.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone(), s.version
}

// Version increases with every committed mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// AddTransaction validates and appends t.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		return errors.New("transaction id is required")
	}
	err := s.commit(ctx, func(next *persist.Snapshot) (bool, error) {
		for _, existing := range next.Transactions {
			if existing.ID == t.ID {
				return false, fmt.Errorf("duplicate transaction id %q", t.ID)
			}
		}
		next.Transactions = append(next.Transactions, t)
		return true, nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, Change{Kind: TransactionCreated, ID: t.ID, Transaction: &t})
	return nil
}

// DeleteTransaction removes the transaction with id and reports how many
// entries were removed. An unknown id is a no-op.
func (s *Store) DeleteTransaction(ctx context.Context, id string) (int, error) {
	var removed core.Transaction
	n := 0
	err := s.commit(ctx, func(next *persist.Snapshot) (bool, error) {
		kept := next.Transactions[:0]
		for _, t := range next.Transactions {
			if t.ID == id {
				removed = t
				n++
				continue
			}
			kept = append(kept, t)
		}
		next.Transactions = kept
		return n > 0, nil
	})
	if err != nil || n == 0 {
		return 0, err
	}
	s.notify(ctx, Change{Kind: TransactionDeleted, ID: id, Transaction: &removed})
	return n, nil
}

// SetBudget stores b, replacing any budget for the same month and
// category (case-insensitive) in the same update.
func (s *Store) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		return errors.New("budget id is required")
	}
	var replaced string
	err := s.commit(ctx, func(next *persist.Snapshot) (bool, error) {
		kept := next.Budgets[:0]
		for _, existing := range next.Budgets {
			if existing.Month == b.Month && core.SameCategory(existing.Category, b.Category) {
				replaced = existing.ID
				continue
			}
			kept = append(kept, existing)
		}
		next.Budgets = append(kept, b)
		return true, nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, Change{Kind: BudgetSet, ID: b.ID, Budget: &b, Replaced: replaced})
	return nil
}

// RemoveBudget deletes the budget with id. An unknown id is a no-op.
func (s *Store) RemoveBudget(ctx context.Context, id string) (int, error) {
	var removed core.Budget
	n := 0
	err := s.commit(ctx, func(next *persist.Snapshot) (bool, error) {
		kept := next.Budgets[:0]
		for _, b := range next.Budgets {
			if b.ID == id {
				removed = b
				n++
				continue
			}
			kept = append(kept, b)
		}
		next.Budgets = kept
		return n > 0, nil
	})
	if err != nil || n == 0 {
		return 0, err
	}
	s.notify(ctx, Change{Kind: BudgetRemoved, ID: id, Budget: &removed})
	return n, nil
}

// commit runs mutate on a copy of the state. If mutate reports a change,
// the copy is saved and becomes the current state. The persister's lock
// is held throughout, and state saved meanwhile by another process is
// reloaded before mutate runs so that its changes are kept.
func (s *Store) commit(ctx context.Context, mutate func(next *persist.Snapshot) (bool, error)) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncLocked(ctx); err != nil {
		return err
	}

	next := s.data.Clone()
	changed, err := mutate(&next)
	if err != nil || !changed {
		return err
	}
	if err := s.p.Save(ctx, next); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.install(next, s.currentRevision(ctx))
	return nil
}

func (s *Store) notify(ctx context.Context, c Change) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l.OnChange(ctx, c)
	}
}
