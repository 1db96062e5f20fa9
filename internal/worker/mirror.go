// Package worker applies change-feed messages to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"budgettracker/internal/core"
	"budgettracker/internal/events"
	"budgettracker/internal/sheets"
	"budgettracker/internal/store"
)

// Stats counts handled messages since the worker started.
type Stats struct {
	Appended int64
	Cleared  int64
	Ignored  int64
	Failed   int64
}

// Mirror keeps a TransactionMirror in step with the change feed.
type Mirror struct {
	sheet sheets.TransactionMirror

	appended atomic.Int64
	cleared  atomic.Int64
	ignored  atomic.Int64
	failed   atomic.Int64
}

func NewMirror(sheet sheets.TransactionMirror) *Mirror {
	return &Mirror{sheet: sheet}
}

// Handle is an events.Handler. Budget changes are not mirrored and are
// acknowledged without action.
func (m *Mirror) Handle(ctx context.Context, msg *events.ChangeMessage) error {
	switch msg.Kind {
	case store.TransactionCreated:
		if msg.Transaction == nil {
			m.failed.Add(1)
			return errors.New("transaction.created without transaction payload")
		}
		ref, err := m.sheet.AppendTransaction(ctx, *msg.Transaction)
		if err != nil {
			m.failed.Add(1)
			return fmt.Errorf("append transaction %s: %w", msg.ID, err)
		}
		m.appended.Add(1)
		slog.InfoContext(ctx, "Transaction mirrored", "id", msg.ID, "row", ref)

	case store.TransactionDeleted:
		found, err := m.sheet.ClearTransaction(ctx, msg.ID)
		if err != nil {
			m.failed.Add(1)
			return fmt.Errorf("clear transaction %s: %w", msg.ID, err)
		}
		m.cleared.Add(1)
		if !found {
			slog.WarnContext(ctx, "Deleted transaction was not in the mirror", "id", msg.ID)
			return nil
		}
		slog.InfoContext(ctx, "Transaction removed from mirror", "id", msg.ID)

	default:
		m.ignored.Add(1)
		slog.DebugContext(ctx, "Ignoring change", "kind", msg.Kind, "id", msg.ID)
	}
	return nil
}

// Reconcile appends every transaction in txs that the mirror is missing.
// Run at startup to recover from messages lost while the worker was down.
func (m *Mirror) Reconcile(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		slog.InfoContext(ctx, "No transactions to reconcile")
		return nil
	}

	var errs []error
	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.sheet.AppendTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile transaction", "id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.ID, err))
		}
	}

	slog.InfoContext(ctx, "Startup reconciliation finished",
		"total", len(txs),
		"failed", len(errs))
	return errors.Join(errs...)
}

func (m *Mirror) Stats() Stats {
	return Stats{
		Appended: m.appended.Load(),
		Cleared:  m.cleared.Load(),
		Ignored:  m.ignored.Load(),
		Failed:   m.failed.Load(),
	}
}
