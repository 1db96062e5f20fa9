package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"budgettracker/internal/core"
	"budgettracker/internal/export"
	applog "budgettracker/internal/log"
	"budgettracker/internal/query"
)

// specFromRequest reads type, month, category and sort from the query.
func specFromRequest(r *http.Request) (query.FilterSpec, error) {
	q := r.URL.Query()
	return query.ParseSpec(q.Get("type"), q.Get("month"), q.Get("category"), q.Get("sort"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	spec, err := specFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.refresh(r.Context(), applog.OpRender)
	v := s.view(spec)
	if v.Transactions == nil {
		v.Transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "csv", export.CSVContentType, export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "xlsx", export.XLSXContentType, export.WriteXLSX)
}

// handleExport renders the filtered list into a buffer first, so an
// encoding failure can still be reported as a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, []core.Transaction) error) {
	ctx := r.Context()
	spec, err := specFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.refresh(ctx, applog.OpExport)
	list := query.FilterAndSort(s.store.Transactions(), spec)
	if len(list) == 0 {
		writeError(w, http.StatusNotFound, "No transactions to export.")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, list); err != nil {
		s.events.LogError(ctx, "Export failed", err, applog.OpExport, applog.LogFields{"format": ext})
		writeError(w, http.StatusInternalServerError, "Export failed.")
		return
	}

	filename := export.Filename(s.now(), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentExport)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnContext(ctx, "Export write interrupted", "error", err)
	}
	logger.InfoContext(ctx, "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, len(list),
		"format", ext)
}
