package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/ports"
	"github.com/aretw0/vitae/pkg/sanitize"
	"github.com/aretw0/vitae/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a session.Manager over a JSON API.
type Server struct {
	Sessions *session.Manager
	Version  string
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	// Rewriters resolves named rewriters for POST /sessions/{id}/rewrite.
	Rewriters RewriterSource
}

// RewriterSource looks up a rewriter by name.
type RewriterSource interface {
	Rewriter(name string) (ports.Rewriter, error)
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = strings.TrimSpace(v)
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithGatherer exposes the given registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithRewriters enables server-side rewrites through the named rewriters.
func WithRewriters(src RewriterSource) Option {
	return func(s *Server) {
		s.Rewriters = src
	}
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Version:  "dev",
		Logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return enableCORS(s.Routes())
}

// Routes builds the chi router without middleware.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)

			r.Post("/set", s.SetValue)
			r.Post("/remove", s.RemoveElement)
			r.Post("/restore-field", s.RestoreField)
			r.Post("/delete-field", s.DeleteField)
			r.Post("/restore-section", s.RestoreSection)
			r.Post("/reset", s.Reset)
			r.Post("/locale", s.SwitchLocale)
			r.Put("/document", s.ReplaceDocument)

			r.Get("/changes", s.GetChanges)
			r.Get("/view", s.GetView)
			r.Get("/text-changes", s.GetTextChanges)

			r.Post("/rewrite", s.RunRewrite)
			r.Post("/rewrite/begin", s.BeginRewrite)
			r.Post("/rewrite/complete", s.CompleteRewrite)
			r.Post("/rewrite/abandon", s.AbandonRewrite)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSessionRequest starts a session from the loader (Locale) or from an
// inline document.
type CreateSessionRequest struct {
	ID       string           `json:"id,omitempty"`
	Locale   string           `json:"locale,omitempty"`
	Document *domain.Document `json:"document,omitempty"`
}

// PathRequest addresses one node. Path steps are strings or integers.
type PathRequest struct {
	Path  []any `json:"path"`
	Value any   `json:"value,omitempty"`
}

// RestoreSectionRequest identifies a deleted section by its change key.
type RestoreSectionRequest struct {
	Column domain.Column `json:"column"`
	Key    string        `json:"key"`
}

// RewriteRequest covers the three rewrite phases.
type RewriteRequest struct {
	Rewriter    string           `json:"rewriter,omitempty"`
	Token       string           `json:"token,omitempty"`
	Instruction string           `json:"instruction,omitempty"`
	Document    *domain.Document `json:"document,omitempty"`
}

// MutationResponse is returned by mutations that may be no-ops.
type MutationResponse struct {
	Session *domain.Session `json:"session"`
	Applied bool            `json:"applied"`
}

// RewriteResponse carries the snapshot handed to the rewriter, or the
// outcome of completing it.
type RewriteResponse struct {
	Token    string             `json:"token,omitempty"`
	Snapshot *domain.Document   `json:"snapshot,omitempty"`
	Session  *domain.Session    `json:"session,omitempty"`
	Warnings []identity.Warning `json:"warnings,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"app":     "vitae-http",
		"version": s.Version,
	}
	if loader := s.Sessions.Loader(); loader != nil {
		locales, err := loader.Locales(r.Context())
		if err != nil {
			s.Logger.Warn("Info: listing locales failed", "error", err)
		} else {
			resp["locales"] = locales
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if !s.decode(w, r, "CreateSession", &body) {
		return
	}

	var (
		sess *domain.Session
		err  error
	)
	if body.Document != nil {
		sess, err = s.Sessions.Create(r.Context(), body.ID, body.Locale, body.Document)
	} else {
		sess, err = s.Sessions.Start(r.Context(), body.Locale)
	}
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetValue handles the POST /sessions/{id}/set request.
func (s *Server) SetValue(w http.ResponseWriter, r *http.Request) {
	path, body, ok := s.decodePath(w, r, "SetValue")
	if !ok {
		return
	}
	value, err := sanitize.Value(body.Value)
	if err != nil {
		s.fail(w, "SetValue", fmt.Errorf("%w: %v", domain.ErrInvalidValue, err))
		return
	}
	sess, err := s.Sessions.SetValue(r.Context(), chi.URLParam(r, "id"), path, value)
	if err != nil {
		s.fail(w, "SetValue", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: true})
}

// RemoveElement handles the POST /sessions/{id}/remove request.
// A stale path is not an error; Applied reports whether anything was removed.
func (s *Server) RemoveElement(w http.ResponseWriter, r *http.Request) {
	path, _, ok := s.decodePath(w, r, "RemoveElement")
	if !ok {
		return
	}
	sess, applied, err := s.Sessions.RemoveElement(r.Context(), chi.URLParam(r, "id"), path)
	if err != nil {
		s.fail(w, "RemoveElement", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: applied})
}

// RestoreField handles the POST /sessions/{id}/restore-field request.
func (s *Server) RestoreField(w http.ResponseWriter, r *http.Request) {
	path, _, ok := s.decodePath(w, r, "RestoreField")
	if !ok {
		return
	}
	sess, err := s.Sessions.RestoreField(r.Context(), chi.URLParam(r, "id"), path)
	if err != nil {
		s.fail(w, "RestoreField", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: true})
}

// DeleteField handles the POST /sessions/{id}/delete-field request.
func (s *Server) DeleteField(w http.ResponseWriter, r *http.Request) {
	path, _, ok := s.decodePath(w, r, "DeleteField")
	if !ok {
		return
	}
	sess, applied, err := s.Sessions.DeleteField(r.Context(), chi.URLParam(r, "id"), path)
	if err != nil {
		s.fail(w, "DeleteField", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: applied})
}

// RestoreSection handles the POST /sessions/{id}/restore-section request.
func (s *Server) RestoreSection(w http.ResponseWriter, r *http.Request) {
	var body RestoreSectionRequest
	if !s.decode(w, r, "RestoreSection", &body) {
		return
	}
	if body.Column != domain.MainColumn && body.Column != domain.SideColumn {
		http.Error(w, fmt.Sprintf("Unknown column %q", body.Column), http.StatusBadRequest)
		return
	}
	sess, applied, err := s.Sessions.RestoreSection(r.Context(), chi.URLParam(r, "id"), body.Column, body.Key)
	if err != nil {
		s.fail(w, "RestoreSection", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: applied})
}

// Reset handles the POST /sessions/{id}/reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "Reset", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: true})
}

// SwitchLocale handles the POST /sessions/{id}/locale request.
func (s *Server) SwitchLocale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Locale string `json:"locale"`
	}
	if !s.decode(w, r, "SwitchLocale", &body) {
		return
	}
	sess, err := s.Sessions.SwitchLocale(r.Context(), chi.URLParam(r, "id"), body.Locale)
	if err != nil {
		s.fail(w, "SwitchLocale", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// ReplaceDocument handles the PUT /sessions/{id}/document request.
func (s *Server) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if !s.decode(w, r, "ReplaceDocument", &doc) {
		return
	}
	sess, err := s.Sessions.ReplaceDocument(r.Context(), chi.URLParam(r, "id"), &doc)
	if err != nil {
		s.fail(w, "ReplaceDocument", err)
		return
	}
	s.writeJSON(w, http.StatusOK, MutationResponse{Session: sess, Applied: true})
}

// GetChanges handles the GET /sessions/{id}/changes request.
func (s *Server) GetChanges(w http.ResponseWriter, r *http.Request) {
	cs, err := s.Sessions.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetChanges", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cs)
}

// GetView handles the GET /sessions/{id}/view request.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetView", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetTextChanges handles the GET /sessions/{id}/text-changes request.
func (s *Server) GetTextChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := s.Sessions.TextChanges(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetTextChanges", err)
		return
	}
	if changes == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	s.writeJSON(w, http.StatusOK, changes)
}

// RunRewrite handles the POST /sessions/{id}/rewrite request: a whole round
// trip through a server-side rewriter.
func (s *Server) RunRewrite(w http.ResponseWriter, r *http.Request) {
	if s.Rewriters == nil {
		http.Error(w, "No rewriters configured", http.StatusNotImplemented)
		return
	}
	var body RewriteRequest
	if !s.decode(w, r, "RunRewrite", &body) {
		return
	}
	rewriter, err := s.Rewriters.Rewriter(body.Rewriter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	sess, warnings, err := s.Sessions.Rewrite(r.Context(), chi.URLParam(r, "id"), rewriter, body.Instruction)
	if err != nil {
		s.fail(w, "RunRewrite", err)
		return
	}
	s.writeJSON(w, http.StatusOK, RewriteResponse{Session: sess, Warnings: warnings})
}

// BeginRewrite handles the POST /sessions/{id}/rewrite/begin request.
func (s *Server) BeginRewrite(w http.ResponseWriter, r *http.Request) {
	var body RewriteRequest
	if !s.decode(w, r, "BeginRewrite", &body) {
		return
	}
	token, snapshot, err := s.Sessions.BeginRewrite(r.Context(), chi.URLParam(r, "id"), body.Instruction)
	if err != nil {
		s.fail(w, "BeginRewrite", err)
		return
	}
	s.writeJSON(w, http.StatusOK, RewriteResponse{Token: token, Snapshot: snapshot})
}

// CompleteRewrite handles the POST /sessions/{id}/rewrite/complete request.
func (s *Server) CompleteRewrite(w http.ResponseWriter, r *http.Request) {
	var body RewriteRequest
	if !s.decode(w, r, "CompleteRewrite", &body) {
		return
	}
	sess, warnings, err := s.Sessions.CompleteRewrite(r.Context(), chi.URLParam(r, "id"), body.Token, body.Document)
	if err != nil {
		s.fail(w, "CompleteRewrite", err)
		return
	}
	s.writeJSON(w, http.StatusOK, RewriteResponse{Session: sess, Warnings: warnings})
}

// AbandonRewrite handles the POST /sessions/{id}/rewrite/abandon request.
func (s *Server) AbandonRewrite(w http.ResponseWriter, r *http.Request) {
	var body RewriteRequest
	if !s.decode(w, r, "AbandonRewrite", &body) {
		return
	}
	if err := s.Sessions.AbandonRewrite(r.Context(), chi.URLParam(r, "id"), body.Token); err != nil {
		s.fail(w, "AbandonRewrite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn(op+": Invalid request body", "error", err)
		return false
	}
	return true
}

func (s *Server) decodePath(w http.ResponseWriter, r *http.Request, op string) (domain.Path, PathRequest, bool) {
	var body PathRequest
	if !s.decode(w, r, op, &body) {
		return nil, body, false
	}
	path, err := domain.ParsePath(body.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.Logger.Warn(op+": Invalid path", "error", err)
		return nil, body, false
	}
	return path, body, true
}

// fail maps domain errors onto status codes. Unknown errors are logged as 500s.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "error", err)
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
		return
	}
	s.Logger.Debug(op+" rejected", "error", err, "status", status)
	http.Error(w, err.Error(), status)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPath), errors.Is(err, domain.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRewriteInFlight), errors.Is(err, domain.ErrNoRewriteInFlight):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoLoader):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
