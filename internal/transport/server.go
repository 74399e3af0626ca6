// Package transport binds the drive engine to HTTP.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/driveline/driveline/internal/config"
	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/services/auth"
	"github.com/driveline/driveline/internal/services/drive"
)

// Server exposes the drive and auth services over HTTP.
type Server struct {
	cfg    config.HTTPConfig
	drive  *drive.Service
	auth   *auth.Service
	logger *events.Logger
}

// NewServer creates an HTTP server.
func NewServer(cfg config.HTTPConfig, driveSvc *drive.Service, authSvc *auth.Service, logger *events.Logger) *Server {
	return &Server{
		cfg:    cfg,
		drive:  driveSvc,
		auth:   authSvc,
		logger: logger.WithField("component", "http"),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/api/auth/login", s.handleLogin)

	r.Route("/api/files", func(r chi.Router) {
		r.Use(s.authenticate)

		// Reads open to both roles.
		r.With(s.requireRead).Get("/", s.handleList)
		r.With(s.requireRead).Get("/{id}/preview", s.handlePreview)

		// Everything else needs write access.
		r.Group(func(r chi.Router) {
			r.Use(s.requireWrite)

			r.Post("/upload", s.handleUpload)
			r.Post("/folder", s.handleCreateFolder)
			r.Get("/recent", s.handleRecent)
			r.Get("/quota", s.handleQuota)
			r.Get("/path/{id}", s.handlePathChain)
			r.Get("/{id}/download", s.handleDownload)
			r.Get("/{id}/download-zip", s.handleDownloadZip)
			r.Put("/{id}/rename", s.handleRename)
			r.Delete("/{id}", s.handleDelete)
		})
	})

	return r
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger records every request with its duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}
