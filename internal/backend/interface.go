// Package backend builds the persistence backend selected by
// configuration.
package backend

import (
	"context"

	"budgettracker/internal/core"
	"budgettracker/internal/persist"
)

// Backend is a persister that can also report its health.
type Backend interface {
	persist.Persister
	Ping(ctx context.Context) error
}

// TransactionLister is implemented by backends that can return stored
// transactions newest first without going through the in-memory store.
type TransactionLister interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// blob
	DataDirectory string

	// sqlite
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	BlobBackend   BackendType = "blob"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case BlobBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// BackendTypes returns all valid backend type strings.
func BackendTypes() []string {
	return []string{BlobBackend.String(), SQLiteBackend.String()}
}
