package ports

import "context"

// CellUpdate addresses one cell with 1-based row/column indices.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// LedgerClient is the external spreadsheet boundary. Errors are opaque text;
// any failure is treated as a whole-batch failure by the caller.
type LedgerClient interface {
	// ReadGrid returns the full grid, header row included, as it exists now.
	ReadGrid(ctx context.Context, sheetID string) ([][]string, error)
	// BatchUpdate applies all cell updates in one round trip.
	BatchUpdate(ctx context.Context, sheetID string, updates []CellUpdate) error
	// AppendRows appends all rows in one round trip.
	AppendRows(ctx context.Context, sheetID string, rows [][]string) error
}
