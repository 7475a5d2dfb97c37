// Package server exposes resolution over HTTP.
//
// Routes:
//
//	GET  /api/v1/health
//	POST /api/v1/resolve
//	GET  /api/v1/passes/{passId}
//	GET  /api/v1/students/{username}/passes
//
// Every request builds its own evaluation context and result; the loaded
// ruleset and export are shared read-only.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/pass"
	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/ruleset"
	"github.com/Friduric/kattis-cli/internal/store"
)

// maxRequestBytes caps a resolve request body, inline rules included.
const maxRequestBytes = 4 << 20

// Server handles the HTTP API.
type Server struct {
	runner *pass.Runner
	export *kattis.Export
	store  *store.Store
	groups []report.Group
	logger *slog.Logger
	router *chi.Mux
}

// Option configures a Server.
type Option func(*Server)

// WithExport lets requests name a student by username.
func WithExport(exp *kattis.Export) Option {
	return func(s *Server) { s.export = exp }
}

// WithStore enables recording and the pass routes.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithGroups sets the report groups used in responses.
func WithGroups(groups []report.Group) Option {
	return func(s *Server) { s.groups = groups }
}

// WithLogger sets the error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server resolving with runner.
func New(runner *pass.Runner, opts ...Option) *Server {
	s := &Server{runner: runner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Post("/api/v1/resolve", s.handleResolve)
	r.Get("/api/v1/passes/{passId}", s.handleGetPass)
	r.Get("/api/v1/students/{username}/passes", s.handleListPasses)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	students := 0
	if s.export != nil {
		students = len(s.export.Students)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"rules":    len(s.runner.Rules().Rules),
		"students": students,
		"ledger":   s.store != nil,
	})
}

// ResolveRequest is the body of POST /api/v1/resolve. Either Username
// (looked up in the loaded export) or Student must be set. Rules, when
// present, replaces the loaded ruleset for this request.
type ResolveRequest struct {
	Username string           `json:"username,omitempty"`
	Student  *kattis.Student  `json:"student,omitempty"`
	Sessions []kattis.Session `json:"sessions,omitempty"`
	Rules    json.RawMessage  `json:"rules,omitempty"`
	Detailed bool             `json:"detailed,omitempty"`
	Record   bool             `json:"record,omitempty"`
}

// ResolveResponse is the result of a resolve request.
type ResolveResponse struct {
	Report report.StudentJSON `json:"report"`
	PassID string             `json:"passId,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(w, status, "invalid request body", err)
		return
	}

	var (
		student  kattis.Student
		sessions = req.Sessions
	)
	switch {
	case req.Student != nil:
		student = *req.Student
	case req.Username != "":
		if s.export == nil {
			s.respondError(w, http.StatusBadRequest, "no export loaded; send the student inline", nil)
			return
		}
		st, ok := s.export.Student(req.Username)
		if !ok {
			s.respondError(w, http.StatusNotFound, "student not found", nil)
			return
		}
		student = st
		if sessions == nil {
			sessions = s.export.Sessions
		}
	default:
		s.respondError(w, http.StatusBadRequest, "username or student is required", nil)
		return
	}

	runner := s.runner
	if len(req.Rules) > 0 {
		rs, err := ruleset.Parse(req.Rules, ruleset.FormatJSON)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid rules", err)
			return
		}
		runner = runner.WithRules(rs)
	}

	if req.Record && s.store == nil {
		s.respondError(w, http.StatusBadRequest, "no ledger configured", nil)
		return
	}

	rep, err := runner.Student(student, sessions)
	if err != nil {
		s.logger.Error("resolve failed", "student", student.Username, "error", err)
		s.respondError(w, http.StatusInternalServerError, "resolve failed", err)
		return
	}

	resp := ResolveResponse{Report: report.Build(rep, report.Options{Detailed: req.Detailed, Groups: s.groups})}
	if req.Record {
		p, err := runner.Record(r.Context(), s.store, rep)
		if err != nil {
			s.logger.Error("record pass failed", "student", student.Username, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to record pass", err)
			return
		}
		resp.PassID = p.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no ledger configured", nil)
		return
	}
	p, err := s.store.ReadPass(r.Context(), chi.URLParam(r, "passId"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "pass not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("read pass failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to read pass", err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPasses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no ledger configured", nil)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	passes, err := s.store.ListPasses(r.Context(), chi.URLParam(r, "username"), limit)
	if err != nil {
		s.logger.Error("list passes failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list passes", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"passes": passes,
		"count":  len(passes),
	})
}

// respondJSON encodes before writing the header so an unencodable value
// turns into a 500 instead of a truncated 200.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.respondJSON(w, status, response)
}
