package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ReelForge/internal/api/handlers"
	"ReelForge/internal/job"
	types "ReelForge/pkg"
	"ReelForge/pkg/compose"
)

const version = "1.0.0"

type Server struct {
	router     *chi.Mux
	jobManager *job.Manager
	compiler   *compose.Compiler
	cfg        types.ServerConfig
	logger     *zap.Logger
	httpServer *http.Server
}

func NewServer(jobManager *job.Manager, compiler *compose.Compiler, cfg types.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		jobManager: jobManager,
		compiler:   compiler,
		cfg:        cfg,
		logger:     logger,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	jobsHandler := handlers.NewJobsHandler(s.jobManager, s.compiler, s.logger)
	streamHandler := handlers.NewStreamHandler(s.jobManager, s.logger)
	compileHandler := handlers.NewCompileHandler(s.compiler, s.logger)

	s.router.With(middleware.Timeout(10*time.Second)).Get("/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/jobs", jobsHandler.Create)
		r.Get("/jobs/{id}", jobsHandler.GetJob)
		r.Post("/compile", compileHandler.Handle)
	})

	// Long-lived; no timeout.
	s.router.Get("/jobs/{id}/stream", streamHandler.StreamProgress)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"reelforge","version":"` + version + `"}`))
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.cfg.Addr
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
		// WriteTimeout stays zero so SSE streams are not cut off.
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
