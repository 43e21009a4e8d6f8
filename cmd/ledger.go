package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songpick/internal/formatter"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"github.com/desertthunder/songpick/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Parse prints the metadata of a YouTube link.
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	ledger, _, err := r.ledger(ctx)
	if err != nil {
		return err
	}

	sub, err := ledger.Parse(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sub, true)
	}
	r.writePlain("Artist: %s\n", sub.Artist)
	r.writePlain("Title:  %s\n", sub.Title)
	r.writePlain("URL:    %s\n", sub.URL)
	return nil
}

// Save appends the given submission under the signed-in user's display name.
func (r *Runner) Save(ctx context.Context, cmd *cli.Command) error {
	ledger, sess, err := r.ledger(ctx)
	if err != nil {
		return err
	}

	result, err := ledger.Save(ctx, models.Submission{
		UserName: r.names.DisplayName(sess.Email()),
		Artist:   cmd.String("artist"),
		Title:    cmd.String("title"),
		URL:      cmd.String("url"),
	})
	if err != nil {
		return err
	}
	return r.printSaveResult(result, cmd.Bool("json"))
}

// Submit parses a link and saves it.
func (r *Runner) Submit(ctx context.Context, cmd *cli.Command) error {
	ledger, sess, err := r.ledger(ctx)
	if err != nil {
		return err
	}

	result, err := ledger.Submit(ctx, r.names.DisplayName(sess.Email()), cmd.StringArg("url"))
	if err != nil {
		return err
	}
	return r.printSaveResult(result, cmd.Bool("json"))
}

func (r *Runner) printSaveResult(result *models.SaveResult, asJSON bool) error {
	if asJSON {
		return r.writeJSON(result, true)
	}

	r.writePlain("✓ Saved row %d: %s - %s (by %s)\n", result.Row, result.Artist, result.Title, result.UserName)
	if result.PlaylistSync == nil {
		r.writePlain("⚠ Playlist was not synced; run 'songpick sync' to retry\n")
		return nil
	}
	r.printSyncResult(result.PlaylistSync)
	return nil
}

// Leaderboard renders every leaderboard sheet in the requested format.
func (r *Runner) Leaderboard(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ledger, sess, err := r.ledger(ctx)
	if err != nil {
		return err
	}

	board, err := ledger.Leaderboard(ctx, r.names.DisplayName(sess.Email()))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(board, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("leaderboard exported", "path", written, "entries", len(board.Entries))
		return r.writePlain("✓ Wrote %d entries to %s\n", len(board.Entries), written)
	}

	data, err := formatter.Export(board, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Rate writes the signed-in user's rating for a row. An explicit empty rating clears the cell.
func (r *Runner) Rate(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("rating") {
		return fmt.Errorf("%w: --rating", shared.ErrMissingArgument)
	}
	rating, err := models.ParseRating(cmd.String("rating"))
	if err != nil {
		return err
	}

	row := int(cmd.Int("row"))
	if row < 1 {
		return fmt.Errorf("%w: --row must be 1 or greater", shared.ErrInvalidInput)
	}

	ledger, sess, err := r.ledger(ctx)
	if err != nil {
		return err
	}

	result, err := ledger.SetRating(ctx, row, r.names.DisplayName(sess.Email()), rating)
	if err != nil {
		return err
	}

	if result.Rating == models.RatingNone {
		return r.writePlain("✓ Cleared rating at %s%d\n", result.Column, result.OriginalRow)
	}
	return r.writePlain("✓ Rated row %d %s (%s%d)\n", result.OriginalRow, result.Rating, result.Column, result.OriginalRow)
}

// Sync rebuilds the playlist from the sheet, printing progress as it goes.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	ledger, _, err := r.ledger(ctx)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ReadSheet:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ListItems:
				r.writePlain("   %s\n", update.Message)
			case tasks.DeleteItems:
				if update.Step == 1 {
					r.writePlain("\n🗑  Clearing %d playlist items\n", update.Total)
				}
			case tasks.InsertItems:
				if update.Step == 1 {
					r.writePlain("\n➕ Adding %d videos\n", update.Total)
				}
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := ledger.Sync(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	r.printSyncResult(result)
	return nil
}

func (r *Runner) printSyncResult(result *models.SyncResult) {
	r.writePlain("Playlist: removed %d, added %d of %d\n", result.Deleted, result.Added, result.Total)
	if len(result.Failed) > 0 {
		r.writePlain("Failed to add %d videos:\n", len(result.Failed))
		for _, id := range result.Failed {
			r.writePlain("  ✗ %s\n", id)
		}
	}
}
