// Package sheets implements the ledger client against the Google Sheets v4
// API. Addressing is 1-based row/column translated to A1 notation; all
// errors surface with their raw API text, which callers treat as a
// whole-batch failure.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/apexguild/guildops/internal/app/ports"
)

// Client is a ports.LedgerClient backed by a service account.
type Client struct {
	svc *sheetsapi.Service
}

// New builds a Sheets client from a service-account credentials file.
func New(ctx context.Context, credentialsFile string) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ReadGrid fetches the full grid of the first sheet, header row included.
func (c *Client) ReadGrid(ctx context.Context, sheetID string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(sheetID, "A1:ZZ").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	grid := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// BatchUpdate applies all cell updates in a single values.batchUpdate call.
func (c *Client) BatchUpdate(ctx context.Context, sheetID string, updates []ports.CellUpdate) error {
	data := make([]*sheetsapi.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheetsapi.ValueRange{
			Range:  cellRef(u.Row, u.Col),
			Values: [][]any{{u.Value}},
		})
	}
	req := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(sheetID, req).Context(ctx).Do()
	return err
}

// AppendRows appends all rows in a single values.append call.
func (c *Client) AppendRows(ctx context.Context, sheetID string, rows [][]string) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	_, err := c.svc.Spreadsheets.Values.Append(sheetID, "A1", &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// cellRef converts 1-based row/column to an A1 cell reference.
func cellRef(row, col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return fmt.Sprintf("%s%d", letters, row)
}
