// Package api exposes the optional status HTTP interface for a crawl run.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkdepth/linkdepth/internal/engine"
	"github.com/linkdepth/linkdepth/internal/metrics"
)

// StatusProvider supplies crawl snapshots for the status endpoints.
type StatusProvider interface {
	Status() engine.Status
}

// Server wires HTTP handlers to the running crawl.
type Server struct {
	router   chi.Router
	provider StatusProvider
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(provider StatusProvider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{provider: provider, logger: logger}

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/frontier", s.frontier)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) frontier(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.provider.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("status response write failed", zap.Error(err))
	}
}
