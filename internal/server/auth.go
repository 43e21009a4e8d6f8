package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
)

const sessionMaxAge = 30 * 24 * time.Hour

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}

// handleLogin stores a one-time state and redirects to Google's consent screen.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	st, err := s.states.Issue(r.Context(), localRedirect(r.URL.Query().Get("redirect")))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	http.Redirect(w, r, s.tokens.AuthCodeURL(st.State), http.StatusFound)
}

// handleCallback consumes the state, exchanges the code and starts a session.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		writeError(w, s.logger, fmt.Errorf("%w: authorization denied: %s", shared.ErrAuthRequired, e))
		return
	}

	st, err := s.states.Consume(ctx, q.Get("state"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	tok, err := s.tokens.Exchange(ctx, q.Get("code"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	email, err := s.email(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	sess := models.NewSession(email, tok)
	if err := s.sessions.Create(ctx, sess); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info("signed in", "email", email, "name", s.names.DisplayName(email))

	http.SetCookie(w, s.sessionCookie(sess.ID(), sessionMaxAge))
	http.Redirect(w, r, localRedirect(st.Redirect), http.StatusFound)
}

// handleLogout deletes the caller's session, if any, and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cfg.Server.CookieName); err == nil && cookie.Value != "" {
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil && !errors.Is(err, shared.ErrNotFound) {
			writeError(w, s.logger, err)
			return
		}
	}

	http.SetCookie(w, s.sessionCookie("", -1))
	writeData(w, map[string]bool{"loggedOut": true})
}

// handleSession reports who is signed in.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeData(w, map[string]string{
		"email":  sess.Email(),
		"name":   s.names.DisplayName(sess.Email()),
		"status": string(sess.Status()),
	})
}

func (s *Server) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     s.cfg.Server.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}

// localRedirect keeps post-login redirects on this site.
func localRedirect(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return "/"
	}
	return path
}
