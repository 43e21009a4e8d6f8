package sheets

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/shared"
)

const (
	newSheetRows = 1000
	newSheetCols = 4
)

// SubmissionHeader is written above the first submission row when the submission sheet is created.
var SubmissionHeader = []any{"선곡자", "아티스트", "곡명", "유튜브 링크"}

// Book binds a [Client] to the configured sheet layout.
type Book struct {
	client Client
	layout shared.SpreadsheetConfig
	logger *log.Logger
}

// NewBook creates a [Book]. A nil logger falls back to [shared.NewLogger].
func NewBook(client Client, layout shared.SpreadsheetConfig, logger *log.Logger) *Book {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Book{client: client, layout: layout, logger: logger}
}

// Layout returns the sheet layout the book was built with.
func (b *Book) Layout() shared.SpreadsheetConfig {
	return b.layout
}

// EnsureSheet creates the submission sheet with its header row when it does not exist yet.
// It reports whether the sheet was created.
func (b *Book) EnsureSheet(ctx context.Context) (bool, error) {
	titles, err := b.client.SheetTitles(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list sheets: %w", err)
	}
	if slices.Contains(titles, b.layout.SubmissionSheet) {
		return false, nil
	}

	if err := b.client.AddSheet(ctx, b.layout.SubmissionSheet, newSheetRows, newSheetCols); err != nil {
		return false, fmt.Errorf("failed to create sheet %s: %w", b.layout.SubmissionSheet, err)
	}

	first, last, err := b.span(len(SubmissionHeader))
	if err != nil {
		return true, err
	}
	rng := RowRef(b.layout.SubmissionSheet, first, last, b.layout.StartRow)
	if err := b.client.Update(ctx, rng, [][]any{SubmissionHeader}, Raw); err != nil {
		return true, fmt.Errorf("failed to write header: %w", err)
	}

	b.logger.Info("created submission sheet", "sheet", b.layout.SubmissionSheet)
	return true, nil
}

// AppendRow writes values into the first free submission row and returns that row.
//
// Values are written USER_ENTERED so that formulas in them are evaluated.
func (b *Book) AppendRow(ctx context.Context, values []any) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: empty row", shared.ErrInvalidInput)
	}

	first, last, err := b.span(len(values))
	if err != nil {
		return 0, err
	}

	rows, err := b.client.Values(ctx, ColumnsRef(b.layout.SubmissionSheet, first, last))
	if err != nil {
		return 0, fmt.Errorf("failed to read submissions: %w", err)
	}

	row := FindAppendTarget(rows, b.layout.StartRow)
	rng := RowRef(b.layout.SubmissionSheet, first, last, row)
	if err := b.client.Update(ctx, rng, [][]any{values}, UserEntered); err != nil {
		return 0, fmt.Errorf("failed to write row %d: %w", row, err)
	}

	b.logger.Debug("appended row", "range", rng)
	return row, nil
}

// ReadColumnRange returns the cells of one submission-sheet column from fromRow to the last populated row.
func (b *Book) ReadColumnRange(ctx context.Context, column string, fromRow int) ([]Cell, error) {
	rng := fmt.Sprintf("%s!%s%d:%s", QuoteSheet(b.layout.SubmissionSheet), column, max(fromRow, 1), column)
	grid, err := b.client.Cells(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read column %s: %w", column, err)
	}

	cells := make([]Cell, len(grid))
	for i, row := range grid {
		if len(row) > 0 {
			cells[i] = row[0]
		}
	}
	return cells, nil
}

// LinkCells returns the link column below the member header row.
func (b *Book) LinkCells(ctx context.Context) ([]Cell, error) {
	return b.ReadColumnRange(ctx, b.layout.LinkColumn, b.layout.RatingHeaderRow+1)
}

// FindUserColumn locates the rating column headed by name and returns its A1 letters.
//
// Columns are never provisioned: a missing header reports ok=false.
func (b *Book) FindUserColumn(ctx context.Context, name string) (string, bool, error) {
	base, err := ColumnIndex(b.layout.RatingBaseColumn)
	if err != nil {
		return "", false, fmt.Errorf("%w: rating_base_column: %v", shared.ErrConfiguration, err)
	}

	rng := RowRef(b.layout.SubmissionSheet, b.layout.RatingBaseColumn, b.layout.RatingLastColumn, b.layout.RatingHeaderRow)
	rows, err := b.client.Values(ctx, rng)
	if err != nil {
		return "", false, fmt.Errorf("failed to read rating header: %w", err)
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}

	offset, ok := FindUserColumn(header, name, 0)
	if !ok {
		return "", false, nil
	}
	return ColumnLetter(base + offset), true, nil
}

// WriteCell writes a single RAW value to the submission sheet.
func (b *Book) WriteCell(ctx context.Context, column string, row int, value string) error {
	rng := CellRef(b.layout.SubmissionSheet, column, row)
	if err := b.client.Update(ctx, rng, [][]any{{value}}, Raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", rng, err)
	}
	return nil
}

// LeaderboardSheets lists every sheet whose title contains the configured leaderboard marker.
func (b *Book) LeaderboardSheets(ctx context.Context) ([]string, error) {
	titles, err := b.client.SheetTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}

	var matched []string
	for _, title := range titles {
		if strings.Contains(title, b.layout.LeaderboardMatch) {
			matched = append(matched, title)
		}
	}
	return matched, nil
}

// ReadLeaderboard reads the configured column span of a leaderboard sheet. Row 0 of the result is its header.
func (b *Book) ReadLeaderboard(ctx context.Context, title string) ([][]Cell, error) {
	grid, err := b.client.Cells(ctx, ColumnsRef(title, b.layout.LeaderboardFirstColumn, b.layout.LeaderboardLastColumn))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", title, err)
	}
	return grid, nil
}

// span returns the first and last column letters of an n-wide submission row.
func (b *Book) span(n int) (string, string, error) {
	first, err := ColumnIndex(b.layout.SubmissionFirstColumn)
	if err != nil {
		return "", "", fmt.Errorf("%w: submission_first_column: %v", shared.ErrConfiguration, err)
	}
	return ColumnLetter(first), ColumnLetter(first + n - 1), nil
}
