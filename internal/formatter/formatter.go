// package formatter renders the leaderboard in the CLI's output formats (table, CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
)

// Format names a leaderboard output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatTable, FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat accepts a format name case-insensitively; "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, s)
}

// Extension returns the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// PlaylistURL returns the public YouTube URL of a playlist id.
func PlaylistURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/playlist?list=" + id
}

var csvHeaders = []string{"Sheet", "Row", "Artist", "Title", "URL", "Rating"}

// ExportToCSV writes one record per entry with columns: Sheet, Row, Artist, Title, URL, Rating
func ExportToCSV(board *models.Leaderboard) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range board.Entries {
		record := []string{e.Sheet, rowLabel(e.OriginalRow), e.Artist, e.Title, e.URL, string(e.Rating)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders entries grouped by sheet, in sheet order.
func ExportToMarkdown(board *models.Leaderboard) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Leaderboard\n\n")
	if url := PlaylistURL(board.PlaylistID); url != "" {
		buf.WriteString(fmt.Sprintf("**Playlist**: [%s](%s)\n", board.PlaylistID, url))
	}
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n", len(board.Entries)))

	for _, group := range bySheet(board.Entries) {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", group.sheet))
		for i, e := range group.entries {
			title := e.Title
			if e.URL != "" {
				title = fmt.Sprintf("[%s](%s)", e.Title, e.URL)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s", i+1, e.Artist, title))
			if e.Rating != models.RatingNone {
				buf.WriteString(fmt.Sprintf(" **%s**", e.Rating))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts the leaderboard to plain text
func ExportToText(board *models.Leaderboard) ([]byte, error) {
	var buf bytes.Buffer

	if board.PlaylistID != "" {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", PlaylistURL(board.PlaylistID)))
	}
	buf.WriteString(fmt.Sprintf("Entries: %d\n", len(board.Entries)))

	for _, group := range bySheet(board.Entries) {
		buf.WriteString(fmt.Sprintf("\n%s\n", group.sheet))
		for i, e := range group.entries {
			buf.WriteString(fmt.Sprintf("%d. %s - %s", i+1, e.Artist, e.Title))
			if e.Rating != models.RatingNone {
				buf.WriteString(fmt.Sprintf(" (%s)", e.Rating))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the leaderboard the way the HTTP API returns it.
func ExportToJSON(board *models.Leaderboard) ([]byte, error) {
	return shared.MarshalJSON(board, true)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	ratedStyle  = cellStyle.Foreground(lipgloss.Color("10"))
)

// ExportToTable renders a bordered terminal table. Rated cells are highlighted.
func ExportToTable(board *models.Leaderboard) string {
	rows := make([][]string, 0, len(board.Entries))
	for _, e := range board.Entries {
		rows = append(rows, []string{e.Sheet, rowLabel(e.OriginalRow), e.Artist, e.Title, string(e.Rating)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Sheet", "Row", "Artist", "Title", "Rating").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 4 && row >= 0 && row < len(rows) && rows[row][4] != "":
				return ratedStyle
			default:
				return cellStyle
			}
		})

	return t.Render()
}

// Export renders board in format f.
func Export(board *models.Leaderboard, f Format) ([]byte, error) {
	switch f {
	case FormatTable:
		return []byte(ExportToTable(board) + "\n"), nil
	case FormatCSV:
		return ExportToCSV(board)
	case FormatMarkdown:
		return ExportToMarkdown(board)
	case FormatText:
		return ExportToText(board)
	case FormatJSON:
		return ExportToJSON(board)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, string(f))
	}
}

// WriteExport writes board to path in format f and returns the path written.
//
// Defaults to leaderboard{ext} in the working directory.
func WriteExport(board *models.Leaderboard, f Format, path string) (string, error) {
	if path == "" {
		path = "leaderboard" + f.Extension()
	}

	data, err := Export(board, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

type sheetGroup struct {
	sheet   string
	entries []models.LeaderboardEntry
}

func bySheet(entries []models.LeaderboardEntry) []sheetGroup {
	var groups []sheetGroup
	index := map[string]int{}
	for _, e := range entries {
		i, ok := index[e.Sheet]
		if !ok {
			i = len(groups)
			index[e.Sheet] = i
			groups = append(groups, sheetGroup{sheet: e.Sheet})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	return groups
}

func rowLabel(row int) string {
	if row <= 0 {
		return ""
	}
	return strconv.Itoa(row)
}
