package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
)

type contextKey int

const sessionKey contextKey = iota

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request with its status and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).Round(time.Millisecond),
			)
		})
	}
}

// Recoverer turns a handler panic into a 500 response.
func Recoverer(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panicked", "path", r.URL.Path, "panic", v)
					writeError(w, logger, fmt.Errorf("panic: %v", v))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requireSession loads the caller's session from its cookie and makes sure its token is usable.
//
// A refreshed token is persisted. A token that can no longer be refreshed marks the session
// [models.SessionRefreshFailed] so later requests fail fast with TOKEN_EXPIRED.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cookie, err := r.Cookie(s.cfg.Server.CookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, s.logger, shared.ErrAuthRequired)
			return
		}

		sess, err := s.sessions.Get(ctx, cookie.Value)
		if errors.Is(err, shared.ErrNotFound) {
			writeError(w, s.logger, fmt.Errorf("%w: unknown session", shared.ErrAuthRequired))
			return
		}
		if err != nil {
			writeError(w, s.logger, err)
			return
		}

		if sess.Expired() {
			writeError(w, s.logger, shared.ErrRefreshFailed)
			return
		}

		tok, refreshed, err := s.tokens.Ensure(ctx, sess.Token())
		if err != nil {
			if errors.Is(err, shared.ErrAuthExpired) {
				sess.SetStatus(models.SessionRefreshFailed)
				if uerr := s.sessions.Update(ctx, sess); uerr != nil {
					s.logger.Warn("failed to mark session", "session", sess.ID(), "error", uerr)
				}
			}
			writeError(w, s.logger, err)
			return
		}

		if refreshed {
			sess.SetToken(tok)
			if err := s.sessions.Update(ctx, sess); err != nil {
				s.logger.Warn("failed to persist refreshed token", "session", sess.ID(), "error", err)
			} else {
				s.logger.Debug("token refreshed", "email", sess.Email())
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey, sess)))
	})
}

// sessionFrom returns the session stored by requireSession.
func sessionFrom(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionKey).(*models.Session)
	return sess
}
