package api

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"runtime"
	"time"

	"github.com/nijaru/yt-quiz/config"
	"github.com/nijaru/yt-quiz/middleware"
	"github.com/nijaru/yt-quiz/services/media"
	"github.com/nijaru/yt-quiz/services/quiz"
	"github.com/nijaru/yt-quiz/services/summary"
	"github.com/nijaru/yt-quiz/services/transcript"
	"github.com/nijaru/yt-quiz/validation"
	"github.com/sirupsen/logrus"
)

//go:embed static
var staticFiles embed.FS

// Services groups the services the API exposes.
type Services struct {
	Transcripts transcript.Service
	Summaries   summary.Service
	Quizzes     quiz.Service
	Media       media.Service
}

type Server struct {
	transcript *TranscriptHandler
	summary    *SummaryHandler
	quiz       *QuizHandler
	media      *MediaHandler
	services   Services
	sources    []string
	config     *config.Config
	logger     *logrus.Logger
	server     *http.Server
	startTime  time.Time
}

type ServerOption func(*Server)

// NewServer creates a new API server with the provided services and options
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	s := &Server{
		config:    cfg,
		logger:    logrus.StandardLogger(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	validator := validation.NewValidator(cfg)
	s.transcript = NewTranscriptHandler(s.services.Transcripts, validator, s.logger)
	s.summary = NewSummaryHandler(s.services.Transcripts, s.services.Summaries, validator, s.logger)
	s.quiz = NewQuizHandler(s.services.Transcripts, s.services.Summaries, s.services.Quizzes, validator, s.logger)
	s.media = NewMediaHandler(s.services.Media)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// WithServices sets the services the handlers call into
func WithServices(services Services) ServerOption {
	return func(s *Server) {
		s.services = services
	}
}

// WithLogger sets a custom logger for the server
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSourceNames lists the chain's sources in the health response.
func WithSourceNames(names []string) ServerOption {
	return func(s *Server) {
		s.sources = names
	}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("port", s.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.addV1Routes(mux)

	mux.HandleFunc("GET /health", s.handleHealth)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /", http.FileServerFS(static))

	return s.middleware(mux)
}

func (s *Server) addV1Routes(mux *http.ServeMux) {
	const v1Prefix = "/api/v1"

	// Captions
	mux.HandleFunc("GET "+v1Prefix+"/languages", s.transcript.HandleLanguages)
	mux.HandleFunc("POST "+v1Prefix+"/transcript", s.transcript.HandleTranscript)

	// Summary endpoints
	mux.HandleFunc("POST "+v1Prefix+"/summary", s.summary.HandleCreateSummary)
	mux.HandleFunc("GET "+v1Prefix+"/summary", s.summary.HandleGetSummary)

	// Quiz endpoints
	mux.HandleFunc("POST "+v1Prefix+"/quiz", s.quiz.HandleCreateQuiz)
	mux.HandleFunc("GET "+v1Prefix+"/quiz/{id}", s.quiz.HandleGetQuiz)
	mux.HandleFunc("POST "+v1Prefix+"/quiz/{id}/modify", s.quiz.HandleModifyQuiz)
	mux.HandleFunc("GET "+v1Prefix+"/quiz/{id}/revisions", s.quiz.HandleRevisions)
	mux.HandleFunc("GET "+v1Prefix+"/quiz/{id}/download", s.quiz.HandleDownload)
	mux.HandleFunc("POST "+v1Prefix+"/quiz/{id}/export", s.quiz.HandleExport)

	// Media
	mux.HandleFunc("GET "+v1Prefix+"/formats", s.media.HandleFormats)
}

func (s *Server) middleware(handler http.Handler) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.Recovery(s.logger),
		middleware.Logging(s.logger),
		middleware.CORS(s.config.CORS),
		middleware.Timeout(s.config.RequestTimeout),
	}

	if s.config.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.config.RateLimit.RequestsPerMinute,
			s.config.RateLimit.BurstSize,
		)
		middlewares = append(middlewares, rateLimiter.Middleware)
	}

	return middleware.Chain(handler, middlewares...)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.startTime).String(),
		"storage":   s.config.Storage.Enabled(),
	}
	if len(s.sources) > 0 {
		status["sources"] = s.sources
	}

	if s.config.Debug {
		status["debug"] = true
		status["goroutines"] = runtime.NumGoroutine()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["memory"] = map[string]interface{}{
			"allocated": m.Alloc,
			"total":     m.TotalAlloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	respondJSON(w, r, http.StatusOK, status)
}
