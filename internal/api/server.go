package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/pdfnav/internal/config"
	"github.com/dgallion1/pdfnav/internal/navigator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// Server is the HTTP API server for pdfnav. Every request carries the PDF as
// its body; nothing is stored between requests.
type Server struct {
	router  chi.Router
	log     *slog.Logger
	cfg     config.Config
	limiter *rate.Limiter
	parses  chan struct{}
	rand    navigator.Rand
}

// Option customizes a Server.
type Option func(*Server)

// WithRand sets the randomness source for random peeks and image picks.
func WithRand(r navigator.Rand) Option {
	return func(s *Server) { s.rand = r }
}

// NewServer creates and configures the HTTP server.
func NewServer(log *slog.Logger, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		log:    log,
		cfg:    cfg,
		parses: make(chan struct{}, max(cfg.MaxConcurrentParses, 1)),
		rand:   navigator.DefaultRand(),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
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

// ListenAndServe serves on the configured port until ctx is done, then
// drains in-flight requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	s.log.Info("starting pdfnav", "port", s.cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	<-done
	return nil
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
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		if s.limiter != nil {
			r.Use(RateLimit(s.limiter))
		}
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Use(ConcurrencyLimit(s.parses))

		r.Post("/api/toc", s.handleTOC)
		r.Post("/api/read", s.handleRead)
		r.Post("/api/peek", s.handlePeek)
		r.Post("/api/images", s.handleImages)
		r.Post("/api/image", s.handleImage)
		r.Post("/api/info", s.handleInfo)
		r.Post("/api/chunks", s.handleChunks)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
