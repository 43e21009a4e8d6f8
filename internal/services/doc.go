// Package services adapts the Google APIs behind the ledger and owns the OAuth2 token lifecycle.
//
// # Token Manager
//
// [TokenManager] wraps an [oauth2.Config] for Google. It builds the consent URL (offline access, forced consent),
// exchanges authorization codes and keeps tokens usable:
//   - [TokenFresh] tokens are returned untouched
//   - [TokenStale] (inside the refresh margin) and [TokenNeedsRefresh] tokens are refreshed once
//   - a failed refresh is reported as [shared.ErrRefreshFailed]; the caller persists [TokenRefreshFailed]
//
// There is no retry loop. The caller decides whether to ask the user to sign in again.
//
// # Google Clients
//
// [YouTubeService] implements [VideoPlatform] on youtube/v3 and [SheetsService] implements [sheets.Client] on
// sheets/v4. [GoogleBackend] builds both from one token source so the HTTP server can create them per request.
// [FetchEmail] reads the signed-in user's email from the oauth2/v2 userinfo endpoint.
//
// # Metadata Resolver
//
// [ExtractVideoID] validates URLs locally before any network call; [Resolver] then fetches the snippet and maps
// artist to the channel title.
//
// # Error Handling
//
// Every Google call passes through [Classify]:
//   - 401/403 : [shared.ErrAuthExpired], whichever API answered
//   - 404 : [shared.ErrNotFound]
//   - anything else : [shared.ErrUpstream]
package services
