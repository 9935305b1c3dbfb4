package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/conorfennell/studydeck/internal/generate"
	"github.com/conorfennell/studydeck/internal/importer"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/study"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Options holds the dependencies of a Server.
type Options struct {
	DB        *storage.DB
	Studies   *study.Registry
	Generator generate.Generator
	Importer  *importer.Importer
	Auth      *Authenticator
	// GenerateRate is the number of generate requests a user may make per minute.
	GenerateRate int
	Logger       *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	router    *http.ServeMux
	handler   http.Handler
	studies   *study.Registry
	generator generate.Generator
	importer  *importer.Importer
	auth      *Authenticator
	limiter   *RateLimiter
	templates *template.Template
	log       *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(opts Options) (*Server, error) {
	tpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Generator == nil {
		opts.Generator = generate.Disabled{}
	}
	if opts.Auth == nil {
		opts.Auth = NewAuthenticator("", "")
	}

	s := &Server{
		db:        opts.DB,
		router:    http.NewServeMux(),
		studies:   opts.Studies,
		generator: opts.Generator,
		importer:  opts.Importer,
		auth:      opts.Auth,
		limiter:   NewRateLimiter(opts.GenerateRate),
		templates: tpl,
		log:       opts.Logger,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	s.handler = logRequests(s.log, s.router)
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// HTMX-based pages
	s.router.HandleFunc("GET /{$}", s.requireUser(s.handleIndex()))
	s.router.HandleFunc("GET /decks/{id}", s.requireUser(s.handleDeckPage()))
	s.router.HandleFunc("GET /share/{slug}", s.handleSharePage())
	s.router.HandleFunc("GET /leaderboard", s.requireUser(s.handleLeaderboardPage()))
	s.router.HandleFunc("POST /decks/{id}/study", s.requireUser(s.handleStartStudy()))
	s.router.HandleFunc("GET /study/{sid}", s.requireUser(s.handleStudyView()))
	s.router.HandleFunc("POST /study/{sid}/key", s.requireUser(s.handleStudyKey()))
	s.router.HandleFunc("POST /study/{sid}/{intent}", s.requireUser(s.handleStudyIntent()))
	s.router.HandleFunc("DELETE /study/{sid}", s.requireUser(s.handleStudyExit()))

	// JSON API
	s.router.HandleFunc("POST /api/sync-user", s.requireUser(s.handleSyncUser()))

	s.router.HandleFunc("GET /api/decks", s.requireUser(s.handleListDecks()))
	s.router.HandleFunc("POST /api/decks", s.requireUser(s.handleCreateDeck()))
	s.router.HandleFunc("GET /api/decks/{id}", s.requireUser(s.handleGetDeck()))
	s.router.HandleFunc("PATCH /api/decks/{id}", s.requireUser(s.handleUpdateDeck()))
	s.router.HandleFunc("DELETE /api/decks/{id}", s.requireUser(s.handleDeleteDeck()))
	s.router.HandleFunc("GET /api/share/{slug}", s.handleGetSharedDeck())

	s.router.HandleFunc("GET /api/decks/{id}/flashcards", s.requireUser(s.handleListFlashcards()))
	s.router.HandleFunc("POST /api/decks/{id}/flashcards", s.requireUser(s.handleCreateFlashcard()))
	s.router.HandleFunc("PATCH /api/decks/{id}/flashcards/{cid}", s.requireUser(s.handleUpdateFlashcard()))
	s.router.HandleFunc("DELETE /api/decks/{id}/flashcards/{cid}", s.requireUser(s.handleDeleteFlashcard()))

	s.router.HandleFunc("POST /api/decks/{id}/generate", s.requireUser(s.handleGenerate()))
	s.router.HandleFunc("POST /api/preview", s.requireUser(s.handlePreview()))

	s.router.HandleFunc("GET /api/decks/{id}/sources", s.requireUser(s.handleListSources()))
	s.router.HandleFunc("POST /api/decks/{id}/sources", s.requireUser(s.handleAddSource()))
	s.router.HandleFunc("POST /api/decks/{id}/sync", s.requireUser(s.handleSyncDeck()))

	s.router.HandleFunc("POST /api/decks/{id}/study", s.requireUser(s.handleAPIStartStudy()))
	s.router.HandleFunc("GET /api/study/{sid}", s.requireUser(s.handleAPIStudySnapshot()))
	s.router.HandleFunc("POST /api/study/{sid}/{intent}", s.requireUser(s.handleAPIStudyIntent()))
	s.router.HandleFunc("DELETE /api/study/{sid}", s.requireUser(s.handleAPIStudyExit()))

	s.router.HandleFunc("GET /api/study_sessions", s.requireUser(s.handleListStudySessions()))
	s.router.HandleFunc("GET /api/stats", s.requireUser(s.handleGetStats()))
	s.router.HandleFunc("GET /api/leaderboard", s.requireUser(s.handleLeaderboard()))

	s.router.HandleFunc("GET /api/profile", s.requireUser(s.handleGetProfile()))
	s.router.HandleFunc("PUT /api/profile", s.requireUser(s.handleUpdateProfile()))
	s.router.HandleFunc("GET /api/check-username", s.requireUser(s.handleCheckUsername()))
	s.router.HandleFunc("GET /api/settings", s.requireUser(s.handleGetSettings()))
	s.router.HandleFunc("PUT /api/settings", s.requireUser(s.handleUpdateSettings()))
	return nil
}
