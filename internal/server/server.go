package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// SessionStore persists signed-in sessions. Implemented by repositories.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
}

// StateStore issues one-time OAuth state values. Implemented by repositories.StateRepository.
type StateStore interface {
	Issue(ctx context.Context, redirect string) (*models.OAuthState, error)
	Consume(ctx context.Context, state string) (*models.OAuthState, error)
	Purge(ctx context.Context) (int64, error)
}

// EmailFetcher returns the email of the user a token belongs to.
type EmailFetcher func(ctx context.Context, ts oauth2.TokenSource) (string, error)

// Deps are the collaborators a [Server] is built from.
type Deps struct {
	Config   *shared.Config
	Tokens   *services.TokenManager
	Sessions SessionStore
	States   StateStore
	Backends services.BackendFactory
	Email    EmailFetcher // defaults to services.FetchEmail
	Logger   *log.Logger
}

// Server is the ledger's HTTP API.
type Server struct {
	cfg      *shared.Config
	tokens   *services.TokenManager
	sessions SessionStore
	states   StateStore
	backends services.BackendFactory
	email    EmailFetcher
	names    *shared.Directory
	logger   *log.Logger
	router   *BasicRouter
}

// New creates a [Server] and registers its routes.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	if deps.Email == nil {
		deps.Email = func(ctx context.Context, ts oauth2.TokenSource) (string, error) {
			return services.FetchEmail(ctx, ts)
		}
	}

	s := &Server{
		cfg:      deps.Config,
		tokens:   deps.Tokens,
		sessions: deps.Sessions,
		states:   deps.States,
		backends: deps.Backends,
		email:    deps.Email,
		names:    shared.NewDirectory(deps.Config.Identity.Names),
		logger:   deps.Logger,
		router:   NewBasicRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(Recoverer(s.logger), RequestLogger(s.logger))

	r.Handle(http.MethodGet, "/health", http.HandlerFunc(s.handleHealth))

	r.Handle(http.MethodGet, "/auth/login", http.HandlerFunc(s.handleLogin))
	r.Handle(http.MethodGet, "/auth/callback", http.HandlerFunc(s.handleCallback))
	r.Handle(http.MethodPost, "/auth/logout", http.HandlerFunc(s.handleLogout))
	r.Handle(http.MethodGet, "/auth/session", s.requireSession(http.HandlerFunc(s.handleSession)))

	r.Handle(http.MethodPost, "/api/parse", s.requireSession(http.HandlerFunc(s.handleParse)))
	r.Handle(http.MethodPost, "/api/save", s.requireSession(http.HandlerFunc(s.handleSave)))
	r.Handle(http.MethodGet, "/api/leaderboard", s.requireSession(http.HandlerFunc(s.handleLeaderboard)))
	r.Handle(http.MethodPost, "/api/rate", s.requireSession(http.HandlerFunc(s.handleRate)))
	r.Handle(http.MethodPost, "/api/sync-playlist", s.requireSession(http.HandlerFunc(s.handleSync)))
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is canceled, then shuts down gracefully.
//
// Expired OAuth states are purged in the background while the server runs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.purgeStates(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) purgeStates(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.states.Purge(ctx); err != nil {
				s.logger.Warn("failed to purge oauth states", "error", err)
			} else if n > 0 {
				s.logger.Debug("purged oauth states", "count", n)
			}
		}
	}
}
