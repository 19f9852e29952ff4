// Package server exposes the careboard HTTP API: dashboard refresh,
// single-widget execution, scenario simulation and metadata CRUD.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/careops-labs/careboard/internal/dispatch"
	"github.com/careops-labs/careboard/internal/scenario"
	"github.com/careops-labs/careboard/internal/store"
)

// Config holds server collaborators and settings.
type Config struct {
	Store      *store.Store
	Dispatcher *dispatch.Dispatcher
	Bridge     *scenario.Bridge

	Addr            string
	ShutdownTimeout time.Duration

	// Watch re-seeds templates when TemplatesFile changes.
	Watch         bool
	TemplatesFile string

	Logger *slog.Logger
}

// Server is the careboard HTTP server.
type Server struct {
	store           *store.Store
	dispatcher      *dispatch.Dispatcher
	bridge          *scenario.Bridge
	addr            string
	shutdownTimeout time.Duration
	watch           bool
	templatesFile   string
	logger          *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:           cfg.Store,
		dispatcher:      cfg.Dispatcher,
		bridge:          cfg.Bridge,
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		watch:           cfg.Watch,
		templatesFile:   cfg.TemplatesFile,
		logger:          cfg.Logger,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)
	s.setupRoutes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.templatesFile != "" {
		eg.Go(func() error {
			return s.watchTemplates(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchTemplates re-seeds query templates when the seed file changes.
func (s *Server) watchTemplates(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.templatesFile); err != nil {
		s.logger.Error("failed to watch templates file", "path", s.templatesFile, "error", err)
		// Continue without watching.
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("templates file changed, re-seeding", "file", event.Name)
				if _, err := s.store.SeedTemplates(ctx, s.templatesFile); err != nil {
					s.logger.Error("re-seed failed", "error", err)
				}
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
