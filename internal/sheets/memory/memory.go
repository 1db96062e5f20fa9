// Package memory is an in-process TransactionMirror. The mirror worker
// falls back to it when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgettracker/internal/core"
	ports "budgettracker/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows [][]string
}

var _ ports.TransactionMirror = (*Store)(nil)

func New() *Store {
	return &Store{rows: [][]string{ports.Header}}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(t.ID); i >= 0 {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.rows = append(s.rows, ports.Row(t))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// ClearTransaction blanks the row, keeping later rows in place.
func (s *Store) ClearTransaction(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	s.rows[i] = make([]string, len(ports.Header))
	return true, nil
}

// Rows returns a copy of every row including the header and cleared rows.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := 1; i < len(s.rows); i++ {
		if s.rows[i][0] == id {
			return i
		}
	}
	return -1
}
