// Package server composes the portal: backend client, page and API
// handlers, middleware chain and HTTP server lifecycle.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/AdanAlnoor/costportal/internal/config"
	"github.com/AdanAlnoor/costportal/internal/health"
	"github.com/AdanAlnoor/costportal/internal/metrics"
	"github.com/AdanAlnoor/costportal/internal/middleware"
	"github.com/AdanAlnoor/costportal/internal/project"
	"github.com/AdanAlnoor/costportal/internal/supabase"
	"github.com/AdanAlnoor/costportal/internal/web"
)

//go:embed static
var staticFS embed.FS

// authSkipPaths are served without a session. Static assets are skipped
// by prefix inside the auth middleware itself.
var authSkipPaths = []string{
	"/login",
	"/login/notice",
	"/api/health",
	"/api/health/cache",
	"/metrics",
}

const shutdownTimeout = 10 * time.Second

// Server is the composed portal application.
type Server struct {
	cfg     *config.Config
	log     zerolog.Logger
	router  *mux.Router
	httpSrv *http.Server
	cache   *project.Cache
	watcher *project.Watcher
}

// New wires the whole application from configuration.
func New(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	backend, err := supabase.New(supabase.Config{
		URL:     cfg.Supabase.URL,
		APIKey:  cfg.Supabase.APIKey,
		Timeout: cfg.Supabase.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("server: backend client: %w", err)
	}

	m := metrics.New()
	store := project.NewSupabaseStore(backend)
	cache := project.NewCache(store, m.RecordFetch)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("server: templates: %w", err)
	}

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, log, authSkipPaths)
	pages, err := web.NewPages(renderer, cache, store, backend, auth, log, cfg.Environment, config.Version)
	if err != nil {
		return nil, fmt.Errorf("server: pages: %w", err)
	}
	probes := health.New(backend, log, config.Version, cfg.Environment)

	router := mux.NewRouter()
	router.Use(
		middleware.Recovery(log),
		middleware.Trace,
		middleware.RequestLogger(log),
		middleware.Metrics(m),
		middleware.NewCORS(cfg.Server.AllowedOrigins).Handler,
		auth.Handler,
		// After auth so authenticated clients are keyed by user id.
		middleware.NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst, log).Handler,
	)

	router.HandleFunc("/", pages.Home).Methods(http.MethodGet)
	router.HandleFunc("/projects", pages.ProjectsList).Methods(http.MethodGet)
	router.HandleFunc("/projects/{id}", pages.ProjectRedirect).Methods(http.MethodGet)
	router.HandleFunc("/projects/{id}/{section}", pages.ProjectSection).Methods(http.MethodGet)
	router.HandleFunc("/login", pages.LoginForm).Methods(http.MethodGet)
	router.HandleFunc("/login", pages.Login).Methods(http.MethodPost)
	router.HandleFunc("/login/notice", pages.LoginNotice).Methods(http.MethodGet)
	router.HandleFunc("/logout", pages.Logout).Methods(http.MethodPost)

	router.HandleFunc("/api/health", probes.Database).Methods(http.MethodGet)
	router.HandleFunc("/api/health/cache", probes.Cache).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS)))

	// mux's NotFoundHandler bypasses the middleware chain, so the 404 page
	// is served without auth. It leaks nothing beyond its own existence.
	router.NotFoundHandler = http.HandlerFunc(pages.NotFound)

	s := &Server{
		cfg:    cfg,
		log:    log,
		router: router,
		cache:  cache,
		httpSrv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
	if cfg.Supabase.Realtime {
		s.watcher = project.NewWatcher(backend, cache, log)
	}
	return s, nil
}

// Handler exposes the composed router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			// The portal stays up without realtime; cached snapshots just
			// live until their loaders are invalidated by hand.
			s.log.Warn().Err(err).Msg("realtime watcher unavailable")
			s.watcher = nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpSrv.Addr).Str("environment", s.cfg.Environment).Msg("portal listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the HTTP server and releases session resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("portal shutting down")
	err := s.httpSrv.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	s.cache.Close()
}
