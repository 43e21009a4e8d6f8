// package sheets models the shared spreadsheet used as the submission and rating ledger.
//
// It holds the pure row/column locators, the hyperlink codec and [Book], a layout-aware wrapper over a narrow [Client].
package sheets

import "context"

// ValueInput selects how written values are interpreted.
type ValueInput string

const (
	Raw         ValueInput = "RAW"          // stored verbatim
	UserEntered ValueInput = "USER_ENTERED" // parsed as if typed, so formulas are evaluated
)

// Client is the set of spreadsheet operations the app depends on. Ranges use A1 notation.
type Client interface {
	// Values reads formatted values. Trailing empty rows and cells are omitted.
	Values(ctx context.Context, rng string) ([][]string, error)

	// Cells reads formatted value, hyperlink and formula for every cell in the range.
	Cells(ctx context.Context, rng string) ([][]Cell, error)

	// Update writes rows starting at the top-left of rng.
	Update(ctx context.Context, rng string, rows [][]any, input ValueInput) error

	// SheetTitles lists the titles of every sheet in the spreadsheet, in order.
	SheetTitles(ctx context.Context) ([]string, error)

	// AddSheet creates a sheet with the given grid size.
	AddSheet(ctx context.Context, title string, rows, cols int) error
}
