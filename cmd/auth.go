package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/server"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization-code flow and stores the token as the CLI session.
//
// Starts a local HTTP server on the redirect URL's address, opens the browser for consent, and exchanges the code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.config.Google.ClientID == "" || r.config.Google.ClientSecret == "" {
		return shared.ErrMissingCredentials
	}

	token, err := r.doOAuth(ctx, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	email, err := services.FetchEmail(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return err
	}

	repo, err := r.sessions()
	if err != nil {
		return err
	}
	sess := models.NewSession(email, token)
	sess.SetID(localSessionID)
	if err := repo.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	r.logger.Info("signed in", "email", email)
	r.writePlainln("✓ Signed in as %s (%s)", email, r.names.DisplayName(email))
	return nil
}

// AuthStatus reports the stored session without touching the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.sessions()
	if err != nil {
		return err
	}

	sess, err := repo.Get(ctx, localSessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return r.writePlain("✗ Not signed in. Run 'songpick auth login'.\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("Account: %s\n", sess.Email())
	r.writePlain("Name:    %s\n", r.names.DisplayName(sess.Email()))
	r.writePlain("Token:   %s\n", r.tokens.SessionState(sess))
	if exp := sess.Token().Expiry; !exp.IsZero() {
		r.writePlain("Expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthLogout deletes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.sessions()
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, localSessionID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// doOAuth runs the consent flow against a temporary callback server and returns the issued token.
func (r *Runner) doOAuth(ctx context.Context, openBrowser bool) (*oauth2.Token, error) {
	addr, err := callbackAddr(r.config.Google.RedirectURL)
	if err != nil {
		return nil, err
	}

	state := shared.GenerateID()
	authURL := r.tokens.AuthCodeURL(state)
	oauthHandler := server.NewOAuthHandler(r.tokens, state)
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger))
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for Google sign-in...\n")
		if err := shared.OpenConsentURL(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthRequired)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthRequired)
	}
	return result.Token, nil
}

// callbackAddr returns the host:port the redirect URL points at.
func callbackAddr(redirectURL string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: google.redirect_url %q is not an absolute URL", shared.ErrConfiguration, redirectURL)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(host, port), nil
}
