// package services adapts the Google APIs used by the ledger: YouTube Data, Sheets and OAuth2 userinfo.
package services

import (
	"context"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/sheets"
	"golang.org/x/oauth2"
)

// VideoPlatform is the subset of the YouTube Data API used for metadata lookup and playlist reconciliation.
type VideoPlatform interface {
	// Video returns snippet metadata for a single video id.
	Video(ctx context.Context, id string) (*models.Video, error)

	// PlaylistItemIDs returns one page of playlist item ids and the token of the next page ("" on the last page).
	PlaylistItemIDs(ctx context.Context, playlistID, pageToken string) ([]string, string, error)

	// DeletePlaylistItem removes a playlist item by its item id (not its video id).
	DeletePlaylistItem(ctx context.Context, itemID string) error

	// InsertPlaylistItem appends a video to the end of a playlist.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error
}

// Backend bundles the API clients built for one user's token.
type Backend struct {
	Sheets   sheets.Client
	Platform VideoPlatform
}

// BackendFactory builds a [Backend] authorized by ts. The HTTP server calls it once per request.
type BackendFactory func(ctx context.Context, ts oauth2.TokenSource) (*Backend, error)
