// Package repositories implements SQLite persistence for sign-in state.
//
// Key Implementations:
//   - [SessionRepository] : OAuth tokens per signed-in user, including the refresh_failed marker
//   - [StateRepository] : one-time OAuth state values issued by the login handler
//
// Tokens never leave the server; the browser only carries the opaque session id.
// Schema lives in internal/shared/sql and is applied by [shared.RunMigrations].
package repositories
