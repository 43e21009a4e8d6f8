package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/youtube/v3"
)

// Scopes requested at sign-in. Playlist writes need the full YouTube scope.
var Scopes = []string{
	youtube.YoutubeScope,
	sheetsapi.SpreadsheetsScope,
	oauth2api.OpenIDScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
}

// TokenState is the lifecycle position of an access token.
type TokenState int

const (
	TokenFresh         TokenState = iota // usable, expiry beyond the margin
	TokenStale                           // still valid but inside the refresh margin
	TokenNeedsRefresh                    // expired or missing
	TokenRefreshFailed                   // terminal until the user signs in again
)

func (s TokenState) String() string {
	switch s {
	case TokenFresh:
		return "fresh"
	case TokenStale:
		return "stale"
	case TokenNeedsRefresh:
		return "needs_refresh"
	case TokenRefreshFailed:
		return "refresh_failed"
	default:
		return ""
	}
}

// OAuthConfig builds the Google authorization-code configuration.
func OAuthConfig(cfg shared.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       Scopes,
	}
}

// TokenManager issues, classifies and refreshes Google tokens.
//
// A refresh is attempted at most once per [TokenManager.Ensure] call; failures are reported, never retried.
type TokenManager struct {
	config *oauth2.Config
	margin time.Duration
	now    func() time.Time
	logger *log.Logger
}

// NewTokenManager creates a [TokenManager]. A non-positive margin falls back to five minutes.
func NewTokenManager(config *oauth2.Config, margin time.Duration, logger *log.Logger) *TokenManager {
	if margin <= 0 {
		margin = 5 * time.Minute
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenManager{config: config, margin: margin, now: time.Now, logger: logger}
}

// Config returns the underlying OAuth2 configuration.
func (m *TokenManager) Config() *oauth2.Config {
	return m.config
}

// AuthCodeURL returns the consent URL. Offline access with forced consent makes Google issue a refresh token.
func (m *TokenManager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (m *TokenManager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}
	tok, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %w", shared.ErrAuthRequired, err)
	}
	return tok, nil
}

// Classify reports the state of tok at the current time.
func (m *TokenManager) Classify(tok *oauth2.Token) TokenState {
	if tok == nil || tok.AccessToken == "" {
		return TokenNeedsRefresh
	}
	if tok.Expiry.IsZero() {
		return TokenFresh
	}

	now := m.now()
	switch {
	case !now.Before(tok.Expiry):
		return TokenNeedsRefresh
	case !now.Add(m.margin).Before(tok.Expiry):
		return TokenStale
	default:
		return TokenFresh
	}
}

// SessionState classifies a persisted session, honouring a recorded refresh failure.
func (m *TokenManager) SessionState(s *models.Session) TokenState {
	if s.Expired() {
		return TokenRefreshFailed
	}
	return m.Classify(s.Token())
}

// Ensure returns a token that is usable now, refreshing tok when it is stale or expired.
//
// The boolean reports whether a refresh happened so callers can persist the new token.
// A stale token without a refresh token is still returned as-is; an expired one is [shared.ErrNoRefreshToken].
func (m *TokenManager) Ensure(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, bool, error) {
	if tok == nil {
		return nil, false, shared.ErrAuthRequired
	}

	state := m.Classify(tok)
	if state == TokenFresh {
		return tok, false, nil
	}

	if tok.RefreshToken == "" {
		if state == TokenStale {
			return tok, false, nil
		}
		return nil, false, shared.ErrNoRefreshToken
	}

	m.logger.Debug("refreshing token", "state", state, "expiry", tok.Expiry)

	src := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	refreshed, err := src.Token()
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return nil, false, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	return refreshed, true, nil
}
