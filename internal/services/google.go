package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleBackend returns a [BackendFactory] that builds Sheets and YouTube clients for spreadsheetID.
//
// extra options are appended after the token source, which lets tests point the clients at a local server.
func GoogleBackend(spreadsheetID string, extra ...option.ClientOption) BackendFactory {
	return func(ctx context.Context, ts oauth2.TokenSource) (*Backend, error) {
		opts := append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)

		sheetsSvc, err := NewSheetsService(ctx, spreadsheetID, opts...)
		if err != nil {
			return nil, err
		}
		ytSvc, err := NewYouTubeService(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return &Backend{Sheets: sheetsSvc, Platform: ytSvc}, nil
	}
}

// FetchEmail returns the verified email of the user ts belongs to.
func FetchEmail(ctx context.Context, ts oauth2.TokenSource, extra ...option.ClientOption) (string, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", Classify(err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("%w: userinfo has no email", shared.ErrAuthRequired)
	}
	return info.Email, nil
}
