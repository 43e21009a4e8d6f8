// Package server exposes the ledger over HTTP and handles the CLI's OAuth callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method patterns on [http.ServeMux].
//
// # API
//
// [Server] serves the JSON API. Responses are {"success": true, "data": ...} on success and
// {"error": ..., "code": ...} on failure, where code is one of the [shared.ErrorKind] codes.
//
//	GET  /health
//	GET  /auth/login           redirect to Google consent
//	GET  /auth/callback        exchange code, set session cookie
//	POST /auth/logout
//	GET  /auth/session
//	POST /api/parse            {url}
//	POST /api/save             {artist, title, url}
//	GET  /api/leaderboard
//	POST /api/rate             {originalRow | row, rating}
//	POST /api/sync-playlist
//
// Every /api route runs behind a session check that refreshes the token at most once and builds the Google
// clients for that request only.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the CLI sign-in. The CLI starts a temporary server on the redirect URL's address; the
// handler validates the state parameter, exchanges the code and sends the result through a channel. It only
// processes one callback.
package server
