// YouTube Data API v3 implementation of [VideoPlatform]
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const playlistPageSize int64 = 50

// YouTubeService implements [VideoPlatform] on the YouTube Data API.
type YouTubeService struct {
	svc *youtube.Service
}

// NewYouTubeService creates a YouTube client. Pass [option.WithTokenSource] for user credentials.
func NewYouTubeService(ctx context.Context, opts ...option.ClientOption) (*YouTubeService, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	return &YouTubeService{svc: svc}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Video looks up a single video's snippet.
func (y *YouTubeService) Video(ctx context.Context, id string) (*models.Video, error) {
	resp, err := y.svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, Classify(err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
	}

	snippet := resp.Items[0].Snippet
	return &models.Video{ID: id, Title: snippet.Title, ChannelTitle: snippet.ChannelTitle}, nil
}

// PlaylistItemIDs returns one page of playlist item ids.
func (y *YouTubeService) PlaylistItemIDs(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	call := y.svc.PlaylistItems.List([]string{"id"}).PlaylistId(playlistID).MaxResults(playlistPageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", Classify(err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ids = append(ids, item.Id)
	}
	return ids, resp.NextPageToken, nil
}

// DeletePlaylistItem removes one playlist item.
func (y *YouTubeService) DeletePlaylistItem(ctx context.Context, itemID string) error {
	if err := y.svc.PlaylistItems.Delete(itemID).Context(ctx).Do(); err != nil {
		return Classify(err)
	}
	return nil
}

// InsertPlaylistItem appends videoID to the playlist.
func (y *YouTubeService) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}

	if _, err := y.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return Classify(err)
	}
	return nil
}
