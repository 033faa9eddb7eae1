// Package server exposes a read-only HTTP API over the reconciliation
// results. Every request recomputes from storage.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/template"

	"github.com/gorilla/mux"
)

// Reconciler is the read side of the ingestion service.
type Reconciler interface {
	Status(ctx context.Context, owner string, evalDate time.Time) ([]reconcile.StatusRow, error)
	Invoices(ctx context.Context, owner string, evalDate time.Time, sel reconcile.Selection) ([]ledger.InvoiceView, error)
	Ledger(ctx context.Context, owner, propertyID string, evalDate time.Time) (*ledger.Ledger, bool, error)
}

// TemplateLister lists saved column-mapping templates.
type TemplateLister interface {
	List(ctx context.Context, owner string) ([]template.Template, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	recon     Reconciler
	templates TemplateLister
	owner     string
	logger    logging.Logger
	now       func() time.Time
}

// New creates a server. owner is used when a request names none.
func New(recon Reconciler, templates TemplateLister, owner string, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		recon:     recon,
		templates: templates,
		owner:     owner,
		logger:    logger.WithField("component", "Server"),
		now:       time.Now,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/invoices", s.handleInvoices).Methods(http.MethodGet)
	api.HandleFunc("/templates", s.handleTemplates).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{id}/ledger", s.handleLedger).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving HTTP API", logging.F("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	evalDate, ok := s.evalDate(w, r)
	if !ok {
		return
	}
	rows, err := s.recon.Status(r.Context(), s.ownerOf(r), evalDate)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []reconcile.StatusRow{}
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	evalDate, ok := s.evalDate(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	sel, err := reconcile.ParseSelection(q.Get("mode"), q.Get("ids"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	invoices, err := s.recon.Invoices(r.Context(), s.ownerOf(r), evalDate, sel)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if invoices == nil {
		invoices = []ledger.InvoiceView{}
	}
	s.writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.templates.List(r.Context(), s.ownerOf(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []template.Template{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// ledgerResponse is one tenant's full ledger.
type ledgerResponse struct {
	Strategy    string                    `json:"strategy"`
	Cutoff      string                    `json:"cutoff"`
	Overdue     string                    `json:"overdue"`
	Obligations []models.Obligation       `json:"obligations"`
	Deposits    []models.AllocatedDeposit `json:"deposits"`
	Invoice     ledger.InvoiceView        `json:"invoice"`
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	evalDate, ok := s.evalDate(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	l, found, err := s.recon.Ledger(r.Context(), s.ownerOf(r), id, evalDate)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("tenant not found: "+id))
		return
	}
	s.writeJSON(w, http.StatusOK, ledgerResponse{
		Strategy:    l.Origin.Strategy(),
		Cutoff:      dateutils.ToISODate(l.Cutoff),
		Overdue:     l.CurrentOverdue().String(),
		Obligations: l.Obligations,
		Deposits:    l.Deposits,
		Invoice:     l.InvoiceView(),
	})
}

func (s *Server) ownerOf(r *http.Request) string {
	if owner := r.URL.Query().Get("owner"); owner != "" {
		return owner
	}
	return s.owner
}

// evalDate reads ?date=, defaulting to today.
func (s *Server) evalDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return dateutils.StartOfDay(s.now()), true
	}
	d, err := dateutils.ParseDate(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return time.Time{}, false
	}
	return d, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("Handled request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", rec.status),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	})
}
