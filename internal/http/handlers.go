package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/query"
	"budgettracker/internal/report"
)

type createdResponse struct {
	ID string `json:"id"`
}

type deletedResponse struct {
	Deleted int `json:"deleted"`
}

// handleListTransactions returns every transaction, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.refresh(r.Context(), applog.OpList)
	txs := query.FilterAndSort(s.store.Transactions(), query.FilterSpec{Sort: query.DateDesc})
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	t, err := core.NewTransaction(core.TransactionInput{
		Type:     req.Type,
		Amount:   string(req.Amount),
		Date:     req.Date,
		Category: req.Category,
		Notes:    req.notes(),
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.AddTransaction(ctx, t); err != nil {
		if core.IsValidation(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.events.LogError(ctx, "Failed to save transaction", err, applog.OpCreate, applog.NewFields().WithTransaction(t))
		writeError(w, http.StatusInternalServerError, "Failed to save transaction.")
		return
	}

	s.events.LogTransactionCreated(ctx, t)
	writeJSON(w, http.StatusCreated, createdResponse{ID: t.ID})
}

// handleDeleteTransaction removes by id; an unknown id deletes nothing.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	n, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		s.events.LogError(ctx, "Failed to delete transaction", err, applog.OpDelete,
			applog.LogFields{applog.FieldTransactionID: id})
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction.")
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}

// handleListBudgets returns utilization rows over every transaction.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	s.refresh(r.Context(), applog.OpList)
	snap, _ := s.store.Snapshot()
	rows := report.BudgetUtilization(snap.Transactions, snap.Budgets)
	if rows == nil {
		rows = []report.BudgetStatus{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	b, err := core.NewBudget(core.BudgetInput{
		Month:    req.Month,
		Category: req.Category,
		Amount:   string(req.Amount),
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.SetBudget(ctx, b); err != nil {
		if core.IsValidation(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.events.LogError(ctx, "Failed to save budget", err, applog.OpSet, applog.NewFields().WithBudget(b))
		writeError(w, http.StatusInternalServerError, "Failed to save budget.")
		return
	}

	s.events.LogBudgetSet(ctx, b)
	writeJSON(w, http.StatusCreated, createdResponse{ID: b.ID})
}

func (s *Server) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	n, err := s.store.RemoveBudget(ctx, id)
	if err != nil {
		s.events.LogError(ctx, "Failed to remove budget", err, applog.OpDelete,
			applog.LogFields{applog.FieldBudgetID: id})
		writeError(w, http.StatusInternalServerError, "Failed to remove budget.")
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}
