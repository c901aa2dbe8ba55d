package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/reportdoc/internal/config"
	"github.com/dgallion1/reportdoc/internal/generate"
	"github.com/dgallion1/reportdoc/internal/pipeline"
	"github.com/dgallion1/reportdoc/internal/revision"
	"github.com/dgallion1/reportdoc/internal/session"
	"github.com/dgallion1/reportdoc/internal/store"
)

// Server is the HTTP API server for reportdoc.
type Server struct {
	router       chi.Router
	sessions     *session.Registry
	orchestrator *pipeline.Orchestrator
	stats        *generate.LLMStats
	model        string
	log          *slog.Logger
	cfg          config.Config
}

// Option customizes a Server.
type Option func(*Server)

// WithOrchestrator enables report generation from uploads.
func WithOrchestrator(o *pipeline.Orchestrator) Option {
	return func(s *Server) { s.orchestrator = o }
}

// WithLLMStats exposes generation latency for model.
func WithLLMStats(stats *generate.LLMStats, model string) Option {
	return func(s *Server) {
		s.stats = stats
		s.model = model
	}
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Registry, log *slog.Logger, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		log:      log,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Post("/api/reports/generate", s.handleGenerate)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/reports", s.handleListReports)
		r.Post("/api/reports", s.handleCreateReport)

		r.Route("/api/reports/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetReport)
			r.Delete("/", s.handleDeleteReport)
			r.Get("/text", s.handleReportText)
			r.Get("/html", s.handleReportHTML)

			r.Post("/edit", s.handleBeginEdit)
			r.Put("/edit", s.handleUpdateBuffer)
			r.Post("/edit/commit", s.handleCommitEdit)
			r.Delete("/edit", s.handleCancelEdit)

			r.Post("/sections", s.handleAddSection)
			r.Put("/sections/{sectionID}", s.handleEditSection)
			r.Delete("/sections/{sectionID}", s.handleDeleteSection)

			r.Get("/changes", s.handleListChanges)
			r.Post("/changes/accept-all", s.handleAcceptAll)
			r.Post("/changes/{changeID}/accept", s.handleAcceptChange)
			r.Post("/changes/{changeID}/reject", s.handleRejectChange)

			r.Get("/versions", s.handleListVersions)
			r.Post("/versions", s.handleSaveVersion)
			r.Get("/versions/compare", s.handleCompareVersions)
			r.Post("/versions/{version}/restore", s.handleRestoreVersion)

			r.Get("/comments", s.handleListComments)
			r.Post("/comments", s.handleAddComment)
			r.Post("/comments/{commentID}/replies", s.handleReplyComment)
			r.Post("/comments/{commentID}/resolve", s.handleResolveComment)
			r.Post("/comments/{commentID}/unresolve", s.handleUnresolveComment)

			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// session loads the report named in the URL, writing the error response when
// it cannot.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, session.ErrSectionNotFound),
		errors.Is(err, revision.ErrChangeNotFound),
		errors.Is(err, revision.ErrVersionNotFound),
		errors.Is(err, revision.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, revision.ErrChangeFinal),
		errors.Is(err, revision.ErrEditInProgress),
		errors.Is(err, revision.ErrNotEditing),
		errors.Is(err, session.ErrNothingToUndo),
		errors.Is(err, session.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, session.ErrEmptyTitle),
		errors.Is(err, session.ErrUnstableContent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	jsonError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON request body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
