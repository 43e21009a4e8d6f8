// Google Sheets API v4 implementation of [sheets.Client]
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/songpick/internal/sheets"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const cellFields googleapi.Field = "sheets.data.rowData.values(formattedValue,hyperlink,userEnteredValue)"

// SheetsService implements [sheets.Client] for one spreadsheet.
type SheetsService struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewSheetsService creates a Sheets client bound to spreadsheetID.
func NewSheetsService(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsService, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsService{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *SheetsService) Values(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, Classify(err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}

func (s *SheetsService) Cells(ctx context.Context, rng string) ([][]sheets.Cell, error) {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Ranges(rng).
		Fields(cellFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, Classify(err)
	}

	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return nil, nil
	}

	data := resp.Sheets[0].Data[0]
	grid := make([][]sheets.Cell, len(data.RowData))
	for i, row := range data.RowData {
		if row == nil {
			continue
		}
		cells := make([]sheets.Cell, len(row.Values))
		for j, v := range row.Values {
			cells[j] = toSheetCell(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

func (s *SheetsService) Update(ctx context.Context, rng string, rows [][]any, input sheets.ValueInput) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption(string(input)).
		Context(ctx).
		Do()
	return Classify(err)
}

func (s *SheetsService) SheetTitles(ctx context.Context) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, Classify(err)
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *SheetsService) AddSheet(ctx context.Context, title string, rows, cols int) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}

	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return Classify(err)
}

func toSheetCell(v *sheetsapi.CellData) sheets.Cell {
	if v == nil {
		return sheets.Cell{}
	}
	c := sheets.Cell{Value: v.FormattedValue, Hyperlink: v.Hyperlink}
	if v.UserEnteredValue != nil && v.UserEnteredValue.FormulaValue != nil {
		c.Formula = *v.UserEnteredValue.FormulaValue
	}
	return c
}
