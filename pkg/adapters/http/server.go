// Package http exposes the intake workflow over a JSON API, mirroring
// the turn-based contract of the CLI runner: each posted message runs
// one turn and returns the resulting actions and session snapshot.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/intake"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/runner"
)

// Workflow is the surface of the intake core the API needs.
type Workflow interface {
	HandleTurn(ctx context.Context, sessionID string, ev domain.Event) (*intake.TurnResult, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	Restart(ctx context.Context, sessionID string) error
}

// Server routes API requests to the workflow.
type Server struct {
	workflow    Workflow
	logger      *slog.Logger
	registry    *prometheus.Registry
	recordStore string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsRegistry exposes the registry on /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithRecordStore reports on /healthz whether completed profiles are
// persisted to a durable record store.
func WithRecordStore(configured bool) Option {
	return func(s *Server) {
		if configured {
			s.recordStore = "configured"
		}
	}
}

// NewHandler creates the HTTP handler for the workflow.
func NewHandler(workflow Workflow, opts ...Option) http.Handler {
	server := &Server{
		workflow:    workflow,
		logger:      slog.Default(),
		recordStore: "disabled",
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.health)
	if server.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", server.startSession)
		r.Get("/", server.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", server.getSession)
			r.Delete("/", server.deleteSession)
			r.Post("/messages", server.postMessage)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TurnResponse is the JSON shape of one workflow turn.
type TurnResponse struct {
	SessionID string                 `json:"session_id"`
	Status    domain.Status          `json:"status"`
	Actions   []domain.ActionRequest `json:"actions"`
	Suspended bool                   `json:"suspended"`
	Terminal  bool                   `json:"terminal"`
}

func turnResponse(sessionID string, result *intake.TurnResult) TurnResponse {
	return TurnResponse{
		SessionID: sessionID,
		Status:    result.Session.Status,
		Actions:   result.Actions,
		Suspended: result.Suspended,
		Terminal:  result.Terminal,
	}
}

// startSession handles POST /api/sessions.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	// The body is optional; an empty one mints a fresh session id.
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("startSession: invalid request body", "err", err)
			return
		}
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	result, err := s.workflow.HandleTurn(r.Context(), body.SessionID, domain.StartEvent())
	if err != nil {
		http.Error(w, fmt.Sprintf("Turn error: %v", err), http.StatusInternalServerError)
		s.logger.Error("startSession failed", "session_id", body.SessionID, "err", err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, turnResponse(body.SessionID, result))
}

// postMessage handles POST /api/sessions/{sessionID}/messages.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("postMessage: invalid request body", "err", err)
		return
	}

	clean, err := runner.SanitizeInput(body.Message)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("postMessage: input rejected", "err", err, "size", len(body.Message))
		return
	}

	result, err := s.workflow.HandleTurn(r.Context(), sessionID, domain.MessageEvent(clean))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Turn error: %v", err), http.StatusInternalServerError)
		s.logger.Error("postMessage failed", "session_id", sessionID, "err", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, turnResponse(sessionID, result))
}

// getSession handles GET /api/sessions/{sessionID}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.workflow.Session(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("getSession failed", "session_id", sessionID, "err", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, sess)
}

// listSessions handles GET /api/sessions.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.workflow.Sessions(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("listSessions failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, map[string][]string{"sessions": ids})
}

// deleteSession handles DELETE /api/sessions/{sessionID}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.workflow.Restart(r.Context(), sessionID); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("deleteSession failed", "session_id", sessionID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"status":       "ok",
		"version":      intake.Version,
		"record_store": s.recordStore,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
