package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/sheets"
	"github.com/desertthunder/songpick/internal/shared"
)

// Ledger runs the submission, rating and leaderboard operations for one signed-in user's clients.
type Ledger struct {
	book     *sheets.Book
	resolver *services.Resolver
	engine   *PlaylistEngine
	logger   *log.Logger
}

// NewLedger wires a [Ledger] to backend using the spreadsheet and playlist settings in cfg.
func NewLedger(backend *services.Backend, cfg *shared.Config, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Ledger{
		book:     sheets.NewBook(backend.Sheets, cfg.Spreadsheet, shared.WithLogger(logger, "component", "sheets")),
		resolver: services.NewResolver(backend.Platform),
		engine:   NewPlaylistEngine(backend.Platform, cfg.YouTube.PlaylistID, cfg.YouTube.MutationsPerSecond, logger),
		logger:   logger,
	}
}

// Book returns the sheet wrapper the ledger writes through.
func (l *Ledger) Book() *sheets.Book {
	return l.book
}

// Engine returns the playlist engine used for syncs.
func (l *Ledger) Engine() *PlaylistEngine {
	return l.engine
}

// SetRating writes rating into the displayName column of the submission sheet at row.
//
// The rating and row are validated before the sheet is read. A member without a rating column gets
// [shared.ErrUserColumnNotFound]; columns are never created.
func (l *Ledger) SetRating(ctx context.Context, row int, displayName string, rating models.Rating) (*models.RatingResult, error) {
	if !rating.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidRating, string(rating))
	}
	if row < 1 {
		return nil, fmt.Errorf("%w: row must be 1 or greater, got %d", shared.ErrInvalidInput, row)
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("%w: display name", shared.ErrMissingArgument)
	}

	column, ok, err := l.book.FindUserColumn(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserColumnNotFound, displayName)
	}

	if err := l.book.WriteCell(ctx, column, row, string(rating)); err != nil {
		return nil, err
	}

	l.logger.Info("rating saved", "user", displayName, "row", row, "column", column, "rating", rating)
	return &models.RatingResult{OriginalRow: row, Rating: rating, Column: column}, nil
}

// Leaderboard collects the rows of every leaderboard sheet along with displayName's rating of each.
//
// No leaderboard sheets yields an empty list. A member without a rating column sees empty ratings.
func (l *Ledger) Leaderboard(ctx context.Context, displayName string) (*models.Leaderboard, error) {
	offsets, err := leaderboardOffsets(l.book.Layout())
	if err != nil {
		return nil, err
	}

	titles, err := l.book.LeaderboardSheets(ctx)
	if err != nil {
		return nil, err
	}

	board := &models.Leaderboard{Entries: []models.LeaderboardEntry{}, PlaylistID: l.engine.PlaylistID()}
	for _, title := range titles {
		grid, err := l.book.ReadLeaderboard(ctx, title)
		if err != nil {
			return nil, err
		}
		board.Entries = append(board.Entries, leaderboardEntries(grid, title, displayName, offsets)...)
	}

	l.logger.Debug("leaderboard read", "sheets", len(titles), "entries", len(board.Entries))
	return board, nil
}

// Sync rebuilds the playlist from the submission sheet.
func (l *Ledger) Sync(ctx context.Context, progress chan<- ProgressUpdate) (*models.SyncResult, error) {
	return l.engine.SyncFromSheet(ctx, progress, l.book)
}

// columnOffsets are positions within a leaderboard row relative to its first column.
type columnOffsets struct {
	rating      int
	originalRow int
}

func leaderboardOffsets(layout shared.SpreadsheetConfig) (columnOffsets, error) {
	first, err := sheets.ColumnIndex(layout.LeaderboardFirstColumn)
	if err != nil {
		return columnOffsets{}, fmt.Errorf("%w: leaderboard_first_column: %v", shared.ErrConfiguration, err)
	}
	rating, err := sheets.ColumnIndex(layout.LeaderboardRatingColumn)
	if err != nil {
		return columnOffsets{}, fmt.Errorf("%w: leaderboard_rating_column: %v", shared.ErrConfiguration, err)
	}
	original, err := sheets.ColumnIndex(layout.LeaderboardOriginalRowColumn)
	if err != nil {
		return columnOffsets{}, fmt.Errorf("%w: leaderboard_original_row_column: %v", shared.ErrConfiguration, err)
	}
	if rating < first || original < first {
		return columnOffsets{}, fmt.Errorf("%w: leaderboard columns start before leaderboard_first_column", shared.ErrConfiguration)
	}
	return columnOffsets{rating: rating - first, originalRow: original - first}, nil
}

// leaderboardEntries maps one leaderboard sheet; grid[0] is its header row.
func leaderboardEntries(grid [][]sheets.Cell, sheet, displayName string, at columnOffsets) []models.LeaderboardEntry {
	if len(grid) == 0 {
		return nil
	}

	header := make([]string, len(grid[0]))
	for i, c := range grid[0] {
		header[i] = c.Value
	}
	userCol, hasColumn := sheets.FindUserColumn(header, displayName, at.rating)

	var entries []models.LeaderboardEntry
	for _, row := range grid[1:] {
		artist := cellAt(row, 0).Value
		title := cellAt(row, 1).Value
		if strings.TrimSpace(artist) == "" && strings.TrimSpace(title) == "" {
			continue
		}

		entry := models.LeaderboardEntry{
			Artist: artist,
			Title:  title,
			URL:    sheets.DecodeLink(cellAt(row, 2)),
			Sheet:  sheet,
		}
		if n, err := strconv.Atoi(strings.TrimSpace(cellAt(row, at.originalRow).Value)); err == nil {
			entry.OriginalRow = n
		}
		if hasColumn {
			entry.Rating = models.Rating(cellAt(row, userCol).Value)
		}
		entries = append(entries, entry)
	}
	return entries
}

func cellAt(row []sheets.Cell, i int) sheets.Cell {
	if i < 0 || i >= len(row) {
		return sheets.Cell{}
	}
	return row[i]
}
