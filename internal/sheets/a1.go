package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/desertthunder/songpick/internal/shared"
)

// Range is a parsed A1 range. Columns are 0-based, rows are 1-based.
//
// EndCol is -1 and EndRow is 0 when the range is open in that direction (e.g. "E:E" or "E2:E").
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ColumnLetter converts a 0-based column index to its A1 letters (0 → A, 25 → Z, 26 → AA).
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index; n >= 0; n = n/26 - 1 {
		b = append([]byte{byte('A' + n%26)}, b...)
	}
	return string(b)
}

// ColumnIndex converts A1 column letters to a 0-based index.
func ColumnIndex(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column", shared.ErrInvalidInput)
	}

	n := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: bad column %q", shared.ErrInvalidInput, letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// QuoteSheet returns title in the form accepted in A1 notation, quoting it when it contains anything besides
// letters, digits and underscores.
func QuoteSheet(title string) string {
	plain := title != ""
	for _, r := range title {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if plain {
		return title
	}
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// CellRef builds a single cell reference such as "선곡!V12".
func CellRef(sheet, column string, row int) string {
	return fmt.Sprintf("%s!%s%d", QuoteSheet(sheet), column, row)
}

// RowRef builds a range spanning columns first..last of one row, e.g. "선곡!A4:D4".
func RowRef(sheet, first, last string, row int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", QuoteSheet(sheet), first, row, last, row)
}

// ColumnsRef builds an open-ended range over whole columns, e.g. "선곡!A:D".
func ColumnsRef(sheet, first, last string) string {
	return fmt.Sprintf("%s!%s:%s", QuoteSheet(sheet), first, last)
}

// ParseRange parses an A1 range of the forms used by this app: "S!A1", "S!A1:D3", "S!E:E", "S!E2:E".
func ParseRange(a1 string) (Range, error) {
	idx := strings.LastIndex(a1, "!")
	if idx <= 0 {
		return Range{}, fmt.Errorf("%w: range %q has no sheet", shared.ErrInvalidInput, a1)
	}

	sheet := a1[:idx]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	rng := Range{Sheet: sheet, EndCol: -1}
	start, end, hasEnd := strings.Cut(a1[idx+1:], ":")

	col, row, err := parseCell(start)
	if err != nil {
		return Range{}, fmt.Errorf("%w: range %q", err, a1)
	}
	rng.StartCol = col
	rng.StartRow = max(row, 1)

	if !hasEnd {
		rng.EndCol = col
		if row > 0 {
			rng.EndRow = row
		}
		return rng, nil
	}

	col, row, err = parseCell(end)
	if err != nil {
		return Range{}, fmt.Errorf("%w: range %q", err, a1)
	}
	rng.EndCol = col
	rng.EndRow = row

	if rng.EndCol < rng.StartCol || (rng.EndRow > 0 && rng.EndRow < rng.StartRow) {
		return Range{}, fmt.Errorf("%w: inverted range %q", shared.ErrInvalidInput, a1)
	}
	return rng, nil
}

// parseCell splits "ZY12" into its column index and row; row is 0 when absent.
func parseCell(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && (ref[i] >= 'A' && ref[i] <= 'Z' || ref[i] >= 'a' && ref[i] <= 'z') {
		i++
	}

	col, err = ColumnIndex(ref[:i])
	if err != nil {
		return 0, 0, err
	}

	if digits := ref[i:]; digits != "" {
		row, err = strconv.Atoi(digits)
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("%w: bad row in %q", shared.ErrInvalidInput, ref)
		}
	}
	return col, row, nil
}
