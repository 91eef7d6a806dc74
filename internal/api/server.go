package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-notice-extractor/internal/pdf"
)

// Options configures the HTTP API
type Options struct {
	APIKey      string
	MaxFileSize int64
	// MCPHandler, when set, serves MCP over SSE at /sse and /message
	MCPHandler http.Handler
}

// Server is the HTTP API of the notice extractor
type Server struct {
	router  chi.Router
	service *pdf.Service
	log     *zap.Logger
	opts    Options
}

// NewServer creates and configures the HTTP server
func NewServer(service *pdf.Service, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = service.GetMaxFileSize()
	}

	s := &Server{
		service: service,
		log:     log,
		opts:    opts,
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

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(AuthMiddleware(s.opts.APIKey, s.log))
		}

		r.Get("/api/fields", s.handleFields)
		r.Post("/api/extract", s.handleExtract)

		if s.opts.MCPHandler != nil {
			r.Handle("/sse", s.opts.MCPHandler)
			r.Handle("/message", s.opts.MCPHandler)
		}
	})

	s.router = r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
