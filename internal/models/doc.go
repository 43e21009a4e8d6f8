// Package models defines the domain types shared by the ledger, the playlist reconciler and the HTTP/CLI layers.
//
// The package contains two categories of types:
//
// 1. Value types describing sheet and playlist data
//   - [Video] : metadata resolved from a YouTube URL
//   - [Submission] : one row of the submission sheet
//   - [LeaderboardEntry] : a row of a leaderboard sheet joined with the caller's rating
//   - [Rating] : the closed set of rating tokens
//   - [SyncResult], [SaveResult], [RatingResult] : operation outcomes returned to callers
//
// 2. Persistent entities backed by SQLite
//   - [Session] : a signed-in user's OAuth token and refresh status
//   - [OAuthState] : a one-time CSRF state issued by the login handler
//
// Persistent entities implement the [Model] interface; the [Repository] interface defines CRUD for them.
package models
