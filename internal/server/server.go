// Package server exposes the memory engine over a local HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stratamem/strata/internal/engine"
	"github.com/stratamem/strata/internal/model"
	"github.com/stratamem/strata/internal/store"
)

// Server is the strata HTTP API server.
type Server struct {
	eng     *engine.Engine
	db      *store.DB
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server around the given engine.
func New(eng *engine.Engine, db *store.DB, version string) *Server {
	s := &Server{
		eng:     eng,
		db:      db,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/memories", s.handleStore)
		r.Get("/memories/{id}", s.handleGet)
		r.Delete("/memories/{id}", s.handleRemove)
		r.Patch("/memories/{id}/context", s.handleUpdateContext)

		r.Post("/query", s.handleQuery)
		r.Get("/stats", s.handleStats)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps error kinds to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, model.ErrTierConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
