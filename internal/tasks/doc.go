// Package tasks runs the ledger's operations on top of the sheet and video clients.
//
// # Ledger
//
// [Ledger] is built per request (or per command) from a [services.Backend]:
//
//  1. [Ledger.Parse] : resolve a URL to artist (channel) and title, no writes
//  2. [Ledger.Save] : append a submission row, then sync the playlist best effort
//  3. [Ledger.SetRating] : write one rating cell in the member's column
//  4. [Ledger.Leaderboard] : read every leaderboard sheet with the member's ratings
//  5. [Ledger.Sync] : rebuild the playlist from the sheet
//
// # Playlist Reconciliation
//
// [PlaylistEngine.Reconcile] is delete-all-then-insert. Listing follows page tokens until the last page; list and
// delete failures abort, insert failures are counted. Running it twice with the same ids leaves the same playlist.
// Mutations are paced with a [rate.Limiter] when youtube.mutations_per_second is set.
//
// # Progress Reporting
//
// Reconciliation emits [ProgressUpdate] values on an optional channel. Sends never block: a full channel drops
// the update.
package tasks
