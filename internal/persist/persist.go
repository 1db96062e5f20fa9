// Package persist defines the persistence boundary of the record store.
package persist

import (
	"context"
	"errors"

	"budgettracker/internal/core"
)

// ErrCorrupt marks a stored payload that could not be decoded. Loaders
// return it together with whatever they could still read.
var ErrCorrupt = errors.New("stored payload is corrupt")

// Snapshot is the full persisted state, both collections in insertion order.
type Snapshot struct {
	Transactions []core.Transaction
	Budgets      []core.Budget
}

// Clone returns a deep copy of the collections.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Transactions: append([]core.Transaction(nil), s.Transactions...),
		Budgets:      append([]core.Budget(nil), s.Budgets...),
	}
}

// Persister saves and loads a Snapshot. Save replaces everything stored.
// Load may return the readable part of the state alongside an error.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// Locker is implemented by persisters whose state can be shared by
// several processes. Writers hold the lock across load, change and save.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Revisioner reports a token that changes whenever the stored state does.
type Revisioner interface {
	Revision(ctx context.Context) (string, error)
}
