package api

import (
	"log/slog"
	"net/http"

	"github.com/Reality-Web-Services/rag-sqlite/internal/config"
	"github.com/Reality-Web-Services/rag-sqlite/internal/rag"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API for document ingestion and querying.
type Server struct {
	router chi.Router
	rag    *rag.Processor
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(processor *rag.Processor, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		rag: processor,
		log: log,
		cfg: cfg,
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

	// Authenticated endpoints. Auth is skipped when no key is configured
	// (local single-user deployments).
	r.Group(func(r chi.Router) {
		if s.cfg.RAGAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.RAGAPIKey, s.log))
		}

		r.Post("/api/documents", s.handleAddDocument)
		r.Delete("/api/documents", s.handleDeleteDocuments)
		r.Post("/api/query", s.handleQuery)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
