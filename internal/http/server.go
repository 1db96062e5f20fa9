// Package http serves the REST API over the record store.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"budgettracker/internal/cache"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/query"
	"budgettracker/internal/report"
	"budgettracker/internal/store"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether a dependency can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Server. Store is required.
type Deps struct {
	Store *store.Store
	// Ready backs /readyz. Nil means always ready.
	Ready         Pinger
	Views         *cache.LRUCache[report.View]
	SavingsTarget decimal.Decimal
	Logger        *applog.Logger
	Now           func() time.Time
	// RateLimit is the number of requests per client per minute; 0
	// disables limiting.
	RateLimit int
}

type Server struct {
	http.Server
	store         *store.Store
	ready         Pinger
	views         *cache.LRUCache[report.View]
	savingsTarget decimal.Decimal
	logger        *applog.Logger
	events        *applog.StructuredLogger
	now           func() time.Time
	rateLimiter   *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	views := d.Views
	if views == nil {
		views = cache.NewLRUCache[report.View](64, 5*time.Minute)
	}

	s := &Server{
		store:         d.Store,
		ready:         d.Ready,
		views:         views,
		savingsTarget: d.SavingsTarget,
		logger:        logger,
		events:        applog.NewStructuredLogger(logger),
		now:           now,
	}
	if d.RateLimit > 0 {
		s.rateLimiter = newRateLimiter(d.RateLimit, time.Minute)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(withRequestID)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(requestIDFrom))
	r.Use(s.withRequestLogging)
	r.Use(withSecurityHeaders)
	r.Use(s.withRateLimit)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleSetBudget)
		r.Delete("/budgets/{id}", s.handleRemoveBudget)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// view returns the dashboard payload for spec, computed once per store
// version, filter and calendar month. GeneratedAt is not part of the
// cached value; it is stamped on every call.
func (s *Server) view(spec query.FilterSpec) report.View {
	snap, version := s.store.Snapshot()
	now := s.now()
	key := fmt.Sprintf("%d|%s|%s", version, core.MonthOf(now), spec.Key())
	v := s.views.GetOrCompute(key, func() report.View {
		return report.Build(snap.Transactions, snap.Budgets, spec, now, s.savingsTarget)
	})
	v.GeneratedAt = now
	return v
}

// refresh picks up changes another process saved to the shared backend.
// On failure the last loaded state is served.
func (s *Server) refresh(ctx context.Context, op string) {
	if _, err := s.store.Refresh(ctx); err != nil {
		s.events.LogError(ctx, "Store refresh failed, serving last loaded state", err, op, nil)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Storage unavailable.")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
