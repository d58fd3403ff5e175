// Package web serves the browser front end: a catalog browse page, a
// watch page with resume and auto-advance, and the progress API backing
// them.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/localdata"
	"github.com/wibustream/anistream/internal/progress"
)

// Options configure the web server.
type Options struct {
	// Listen is the address to bind, e.g. "127.0.0.1:8080".
	Listen string
	// AutoPlayDefault and AutoNextDefault seed the watch page flags when
	// the query string leaves them unset.
	AutoPlayDefault bool
	AutoNextDefault bool
	// CountdownSeconds is the auto-advance countdown shown on the watch
	// page.
	CountdownSeconds int
}

// Server is the HTTP front end.
type Server struct {
	catalog  *catalog.Catalog
	local    *localdata.Store
	progress *progress.Store
	logger   *slog.Logger
	opts     Options

	httpServer *http.Server
}

// NewServer wires the front end against the catalog and stores.
func NewServer(cat *catalog.Catalog, local *localdata.Store, prog *progress.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:8080"
	}
	if opts.CountdownSeconds <= 0 {
		opts.CountdownSeconds = 5
	}
	s := &Server{
		catalog:  cat,
		local:    local,
		progress: prog,
		logger:   logger,
		opts:     opts,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Router builds the route tree. Exposed for tests.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleBrowse)
	r.Get("/watch/{show}/{episode}", s.handleWatch)
	r.Post("/theme", s.handleSetTheme)

	r.Route("/api", func(r chi.Router) {
		r.Get("/progress/{show}/{episode}", s.handleGetProgress)
		r.Post("/progress/{show}/{episode}", s.handleSaveProgress)
	})

	r.NotFound(s.handleNotFound)
	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.opts.Listen)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Listen
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
