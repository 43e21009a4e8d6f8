package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
)

// SessionStatus records whether a session's token can still be refreshed.
type SessionStatus string

const (
	SessionActive        SessionStatus = "active"
	SessionRefreshFailed SessionStatus = "refresh_failed"
)

// Session is a signed-in user and the Google token issued to them.
type Session struct {
	id        string
	email     string
	token     *oauth2.Token
	status    SessionStatus
	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates an active session for email holding token.
func NewSession(email string, token *oauth2.Token) *Session {
	now := time.Now().UTC()
	return &Session{
		email:     email,
		token:     token,
		status:    SessionActive,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) Email() string { return s.email }
func (s *Session) Token() *oauth2.Token { return s.token }
func (s *Session) Status() SessionStatus { return s.status }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

func (s *Session) SetID(id string) { s.id = id }
func (s *Session) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time) { s.updatedAt = t }

// SetStatus records a status change and bumps the update time.
func (s *Session) SetStatus(st SessionStatus) {
	s.status = st
	s.touch()
}

// SetToken replaces the stored token, typically after a refresh.
func (s *Session) SetToken(token *oauth2.Token) {
	s.token = token
	s.touch()
}

// Expired reports whether the session can no longer be used without signing in again.
func (s *Session) Expired() bool {
	return s.status == SessionRefreshFailed
}

// Validate checks required fields.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.email) == "" {
		return fmt.Errorf("%w: session email is required", shared.ErrInvalidInput)
	}
	if s.token == nil {
		return fmt.Errorf("%w: session token is required", shared.ErrInvalidInput)
	}
	switch s.status {
	case SessionActive, SessionRefreshFailed:
	default:
		return fmt.Errorf("%w: unknown session status %q", shared.ErrInvalidInput, s.status)
	}
	return nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}

// OAuthState is a one-time state value issued when a login starts.
type OAuthState struct {
	State     string
	Redirect  string
	CreatedAt time.Time
}
