// Package httpadmin exposes the scheduler's public contract over HTTP:
// status, the remaining queue, reload, and a pull endpoint.
package httpadmin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/app/sched"
	"github.com/osa030/rotor/internal/domain/candidate"
	"github.com/osa030/rotor/internal/infra/config"
)

// Server is the admin HTTP server.
type Server struct {
	router    chi.Router
	cfg       config.ServerConfig
	scheduler *sched.Scheduler
	prefetch  *sched.Prefetcher // nil when prefetching is disabled
	reload    func() ([]candidate.Candidate, error)
	startTime time.Time
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithPrefetcher routes pulls through the prefetch buffer.
func WithPrefetcher(p *sched.Prefetcher) Option {
	return func(s *Server) {
		s.prefetch = p
	}
}

// WithReloadSource sets the loader used when a reload request names no
// candidates (reload from the configured playlist source).
func WithReloadSource(fn func() ([]candidate.Candidate, error)) Option {
	return func(s *Server) {
		s.reload = fn
	}
}

// New creates a server with all routes registered.
func New(cfg config.ServerConfig, scheduler *sched.Scheduler, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		scheduler: scheduler,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/queue", s.handleQueue)
		r.With(s.requireToken).Post("/reload", s.handleReload)
		r.With(s.requireToken).Post("/next", s.handleNext)
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requireToken gates mutating endpoints behind the configured bearer token.
// An empty configured token disables the check.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			respondError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.scheduler.GetStatus()
	resp := map[string]any{
		"scheduler": status,
	}
	if s.prefetch != nil {
		resp["prefetched"] = s.prefetch.Buffered()
	}
	respondOK(w, resp)
}

type queueEntry struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	remaining := s.scheduler.Remaining()
	entries := make([]queueEntry, len(remaining))
	for i, c := range remaining {
		entries[i] = queueEntry{URI: c.URI, Label: c.Label}
	}
	respondOK(w, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

type reloadRequest struct {
	URIs  []string `json:"uris"`
	Drain *bool    `json:"drain"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	drain := true
	if req.Drain != nil {
		drain = *req.Drain
	}

	var cs []candidate.Candidate
	if len(req.URIs) > 0 {
		cs = candidate.FromURIs(req.URIs)
	} else {
		if s.reload == nil {
			respondError(w, http.StatusBadRequest, "no uris given and no playlist source configured")
			return
		}
		loaded, err := s.reload()
		if err != nil {
			zlog.Error().Msgf("httpadmin: reload from source failed: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to load playlist source")
			return
		}
		cs = loaded
	}

	s.scheduler.Reload(cs, drain)
	respondOK(w, map[string]any{
		"loaded":     len(cs),
		"generation": s.scheduler.Generation(),
	})
}

// handleNext performs one pull on behalf of the downstream consumer. The
// handle itself cannot cross an HTTP boundary, so only its metadata is
// returned and the handle is released after encoding.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var item *candidate.Resolved
	if s.prefetch != nil {
		item = s.prefetch.Next(r.Context())
	} else {
		item = s.scheduler.Next()
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	defer item.Release()

	respondOK(w, map[string]any{
		"id":    item.ID,
		"uri":   item.Candidate.URI,
		"label": item.Label(),
	})
}

func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", "req_"+uuid.New().String()[:8])
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zlog.Error().Msgf("httpadmin: failed to encode response: %v", err)
	}
}
