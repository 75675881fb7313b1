// Package ui runs the Sightline web server: the dashboard pages, their
// live-update streams, and the data upload form.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/page"
	"github.com/sightline-labs/sightline/internal/state"
	"github.com/sightline-labs/sightline/internal/ui/features"
	"github.com/sightline-labs/sightline/internal/ui/notifier"
	"github.com/sightline-labs/sightline/internal/ui/router"
	"github.com/sightline-labs/sightline/internal/upload"
)

// Server is the web server.
type Server struct {
	cfg          *config.Config
	renderer     *page.Renderer
	store        *state.Store
	installer    *upload.Installer
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// Config holds the server's dependencies.
type Config struct {
	Config    *config.Config
	Renderer  *page.Renderer
	Store     *state.Store
	Installer *upload.Installer
	Logger    *slog.Logger
}

// NewServer creates a Server. When no session secret is configured a
// random one is generated; sessions then reset on restart.
func NewServer(cfg Config) *Server {
	secret := cfg.Config.Listen.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		cfg.Logger.Warn("no session secret configured, filter selections will not survive restarts")
	}

	sessionStore := sessions.NewCookieStore([]byte(secret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		cfg:          cfg.Config,
		renderer:     cfg.Renderer,
		store:        cfg.Store,
		installer:    cfg.Installer,
		sessionStore: sessionStore,
		notifier:     notifier.New(),
		logger:       cfg.Logger,
	}
}

// Notifier returns the server's notifier for data-change pings.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Listen.Port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Listen.Port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	deps := features.Deps{
		Config:    s.cfg,
		Renderer:  s.renderer,
		Store:     s.store,
		Installer: s.installer,
		Sessions:  s.sessionStore,
		Notifier:  s.notifier,
		Logger:    s.logger,
	}
	if err := router.SetupRoutes(r, deps); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Listen.Watch {
		eg.Go(func() error {
			return s.watchData(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchData pings open dashboards when a data file changes on disk, so
// out-of-band edits show up without a reload.
func (s *Server) watchData(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.cfg.DataDir); err != nil {
		s.logger.Error("failed to watch data directory", "dir", s.cfg.DataDir, "error", err)
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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isDataFile(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("data file changed", "file", event.Name)
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// isDataFile filters watcher noise down to the delimited files the
// loader reads. Staged upload temp files start with a dot and are
// excluded by name.
func isDataFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}
