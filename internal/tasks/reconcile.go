package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/sheets"
	"github.com/desertthunder/songpick/internal/shared"
)

// Reconcile replaces the playlist's contents with ids, in order.
//
// Every existing item is enumerated and deleted before ids are inserted. Listing and deletion failures abort the
// run; an insert failure is logged, recorded in [models.SyncResult.Failed] and skipped.
func (e *PlaylistEngine) Reconcile(ctx context.Context, progress chan<- ProgressUpdate, ids []string) (*models.SyncResult, error) {
	if e.playlistID == "" {
		return nil, shared.ErrMissingPlaylistID
	}
	if e.platform == nil {
		return nil, fmt.Errorf("%w: video platform not initialized", shared.ErrConfiguration)
	}

	items, err := e.listItems(ctx, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist items: %w", err)
	}

	result := &models.SyncResult{Total: len(ids)}

	for i, itemID := range items {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := e.platform.DeletePlaylistItem(ctx, itemID); err != nil {
			return nil, fmt.Errorf("failed to delete playlist item %s: %w", itemID, services.Classify(err))
		}
		result.Deleted++
		e.sendProgress(progress, deleteItemUpdate(i+1, len(items)))
	}

	for i, videoID := range ids {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		err := e.platform.InsertPlaylistItem(ctx, e.playlistID, videoID)
		e.sendProgress(progress, insertItemUpdate(i+1, len(ids), videoID, err))
		if err != nil {
			e.logger.Warn("failed to add video", "video", videoID, "error", err)
			result.Failed = append(result.Failed, videoID)
			continue
		}
		result.Added++
	}

	e.logger.Info("playlist synced", "deleted", result.Deleted, "added", result.Added, "total", result.Total)
	e.sendProgress(progress, doneUpdate(result.Deleted, result.Added, result.Total))
	return result, nil
}

// SyncFromSheet rebuilds the playlist from the submission sheet's link column.
func (e *PlaylistEngine) SyncFromSheet(ctx context.Context, progress chan<- ProgressUpdate, book *sheets.Book) (*models.SyncResult, error) {
	if e.playlistID == "" {
		return nil, shared.ErrMissingPlaylistID
	}

	cells, err := book.LinkCells(ctx)
	if err != nil {
		return nil, err
	}

	ids, skipped := VideoIDs(cells)
	if skipped > 0 {
		e.logger.Debug("skipped links", "count", skipped)
	}
	e.sendProgress(progress, readSheetUpdate(len(ids), skipped))

	return e.Reconcile(ctx, progress, ids)
}

// VideoIDs decodes each cell's link and extracts its video id, top to bottom.
//
// Blank cells are ignored. Cells that do not hold a YouTube link, and repeats of an id already seen, are counted
// as skipped.
func VideoIDs(cells []sheets.Cell) ([]string, int) {
	var (
		ids     []string
		skipped int
		seen    = make(map[string]bool)
	)
	for _, cell := range cells {
		link := sheets.DecodeLink(cell)
		if link == "" {
			if cell != (sheets.Cell{}) {
				skipped++
			}
			continue
		}

		id, err := services.ExtractVideoID(link)
		if err != nil || seen[id] {
			skipped++
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, skipped
}

func (e *PlaylistEngine) listItems(ctx context.Context, progress chan<- ProgressUpdate) ([]string, error) {
	var (
		items []string
		token string
		page  int
	)
	for {
		ids, next, err := e.platform.PlaylistItemIDs(ctx, e.playlistID, token)
		if err != nil {
			return nil, services.Classify(err)
		}
		page++
		items = append(items, ids...)
		e.sendProgress(progress, listPageUpdate(page, len(items)))

		if next == "" || next == token {
			return items, nil
		}
		token = next
	}
}
