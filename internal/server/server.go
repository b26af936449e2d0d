// Package server exposes the lattice over a small JSON HTTP API.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kimeraswm/kimera/internal/lattice"
	"github.com/kimeraswm/kimera/internal/store"
)

// Server is the kimera HTTP API server.
type Server struct {
	db      *store.DB
	lattice *lattice.Lattice
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given storage handle and lattice.
func New(db *store.DB, lat *lattice.Lattice, version string) *Server {
	s := &Server{
		db:      db,
		lattice: lat,
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
		r.Get("/stats", s.handleStats)

		r.Post("/identities", s.handleCreateIdentity)
		r.Get("/identities", s.handleListIdentities)
		r.Get("/identities/{id}", s.handleGetIdentity)

		r.Post("/resolve", s.handleResolve)

		r.Get("/forms", s.handleListForms)
		r.Get("/forms/{anchor}", s.handleGetForm)
		r.Post("/forms/{anchor}/phase", s.handleMutatePhase)

		r.Post("/decay", s.handleDecay)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	geoids, err := s.db.CountIdentities("geoid")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scars, err := s.db.CountIdentities("scar")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	forms, err := s.db.CountForms()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"geoids": geoids,
		"scars":  scars,
		"forms":  forms,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
