package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/sheets"
	"github.com/desertthunder/songpick/internal/shared"
)

// Parse resolves url into the artist and title a submission row would carry. Nothing is written.
func (l *Ledger) Parse(ctx context.Context, url string) (*models.Submission, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	video, err := l.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	return &models.Submission{Artist: video.ChannelTitle, Title: video.Title, URL: url}, nil
}

// Save appends sub to the submission sheet, creating the sheet first if needed, then syncs the playlist.
//
// The sync is best effort: its failure is logged and leaves [models.SaveResult.PlaylistSync] nil; the row stays.
func (l *Ledger) Save(ctx context.Context, sub models.Submission) (*models.SaveResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sub.UserName) == "" {
		return nil, fmt.Errorf("%w: submitter name", shared.ErrMissingArgument)
	}

	if _, err := l.book.EnsureSheet(ctx); err != nil {
		return nil, err
	}

	row, err := l.book.AppendRow(ctx, []any{sub.UserName, sub.Artist, sub.Title, sheets.EncodeHyperlink(sub.URL)})
	if err != nil {
		return nil, err
	}
	l.logger.Info("submission saved", "user", sub.UserName, "row", row, "title", sub.Title)

	result := &models.SaveResult{Submission: sub, Row: row}
	sync, err := l.Sync(ctx, nil)
	if err != nil {
		l.logger.Warn("playlist sync after save failed", "error", err)
		return result, nil
	}
	result.PlaylistSync = sync
	return result, nil
}

// Submit parses url and saves the result under userName in one step.
func (l *Ledger) Submit(ctx context.Context, userName, url string) (*models.SaveResult, error) {
	sub, err := l.Parse(ctx, url)
	if err != nil {
		return nil, err
	}
	sub.UserName = userName
	return l.Save(ctx, *sub)
}
