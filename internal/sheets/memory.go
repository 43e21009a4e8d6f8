package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/songpick/internal/shared"
)

// MemoryClient is an in-memory [Client] used by tests and dry runs.
//
// Writes entered as USER_ENTERED that start with "=" are stored as formulas; a HYPERLINK formula also sets
// the cell's hyperlink, matching what the Sheets API reports back.
type MemoryClient struct {
	mu     sync.Mutex
	order  []string
	sheets map[string][][]Cell
	fail   map[string]error

	Calls []string // method names in call order
}

// NewMemoryClient creates an empty [MemoryClient].
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{sheets: map[string][][]Cell{}, fail: map[string]error{}}
}

// Seed replaces a sheet's contents, creating it if needed. rows[0] is row 1.
func (m *MemoryClient) Seed(title string, rows [][]Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sheets[title]; !ok {
		m.order = append(m.order, title)
	}
	m.sheets[title] = rows
}

// SeedValues seeds a sheet with plain values.
func (m *MemoryClient) SeedValues(title string, rows [][]string) {
	grid := make([][]Cell, len(rows))
	for i, row := range rows {
		grid[i] = make([]Cell, len(row))
		for j, v := range row {
			grid[i][j] = Cell{Value: v}
		}
	}
	m.Seed(title, grid)
}

// FailOn makes every subsequent call to method return err. A nil err clears it.
func (m *MemoryClient) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, method)
		return
	}
	m.fail[method] = err
}

// Cell returns the cell at a 1-based row and 0-based column.
func (m *MemoryClient) Cell(title string, row, col int) Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.sheets[title]
	if row < 1 || row > len(grid) || col < 0 || col >= len(grid[row-1]) {
		return Cell{}
	}
	return grid[row-1][col]
}

// Count reports how many times method was called.
func (m *MemoryClient) Count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MemoryClient) enter(method string) error {
	m.Calls = append(m.Calls, method)
	return m.fail[method]
}

func (m *MemoryClient) Values(ctx context.Context, rng string) ([][]string, error) {
	grid, err := m.read(ctx, "Values", rng)
	if err != nil {
		return nil, err
	}

	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Value
		}
	}
	return trimRows(out, func(s string) bool { return s == "" }), nil
}

func (m *MemoryClient) Cells(ctx context.Context, rng string) ([][]Cell, error) {
	return m.read(ctx, "Cells", rng)
}

func (m *MemoryClient) read(ctx context.Context, method, rng string) ([][]Cell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(method); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	grid, ok := m.sheets[r.Sheet]
	if !ok {
		return nil, fmt.Errorf("%w: sheet %q", shared.ErrNotFound, r.Sheet)
	}

	last := len(grid)
	if r.EndRow > 0 {
		last = min(last, r.EndRow)
	}

	var out [][]Cell
	for row := r.StartRow; row <= last; row++ {
		src := grid[row-1]
		end := len(src) - 1
		if r.EndCol >= 0 {
			end = min(end, r.EndCol)
		}

		var cells []Cell
		for col := r.StartCol; col <= end; col++ {
			cells = append(cells, src[col])
		}
		out = append(out, cells)
	}
	return trimRows(out, func(c Cell) bool { return c == Cell{} }), nil
}

func (m *MemoryClient) Update(ctx context.Context, rng string, rows [][]any, input ValueInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("Update"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	grid, ok := m.sheets[r.Sheet]
	if !ok {
		return fmt.Errorf("%w: sheet %q", shared.ErrNotFound, r.Sheet)
	}

	for i, values := range rows {
		row := r.StartRow + i
		for len(grid) < row {
			grid = append(grid, nil)
		}
		for j, v := range values {
			col := r.StartCol + j
			for len(grid[row-1]) <= col {
				grid[row-1] = append(grid[row-1], Cell{})
			}
			grid[row-1][col] = toCell(fmt.Sprint(v), input)
		}
	}
	m.sheets[r.Sheet] = grid
	return nil
}

func (m *MemoryClient) SheetTitles(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("SheetTitles"); err != nil {
		return nil, err
	}
	return append([]string(nil), m.order...), ctx.Err()
}

func (m *MemoryClient) AddSheet(ctx context.Context, title string, rows, cols int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("AddSheet"); err != nil {
		return err
	}
	if _, ok := m.sheets[title]; ok {
		return fmt.Errorf("%w: sheet %q already exists", shared.ErrInvalidInput, title)
	}
	m.order = append(m.order, title)
	m.sheets[title] = nil
	return ctx.Err()
}

func toCell(s string, input ValueInput) Cell {
	if input != UserEntered || !strings.HasPrefix(s, "=") {
		return Cell{Value: s}
	}

	c := Cell{Formula: s}
	if m := hyperlinkFormula.FindStringSubmatch(s); m != nil {
		c.Hyperlink = m[1]
		c.Value = "URL"
	}
	return c
}

// trimRows drops trailing empty cells from each row and trailing empty rows, as the Sheets API does.
func trimRows[T any](rows [][]T, empty func(T) bool) [][]T {
	for i, row := range rows {
		n := len(row)
		for n > 0 && empty(row[n-1]) {
			n--
		}
		rows[i] = row[:n]
	}

	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	return rows[:n]
}
