package sheets

import "context"

// Worksheet describes one tab of the spreadsheet.
type Worksheet struct {
	Title       string
	SheetID     int64
	Index       int64
	RowCount    int64
	ColumnCount int64
}

// ValueRange pairs a range with the values to write into it.
type ValueRange struct {
	Values [][]any
	Range  CellRange
}

// Spreadsheet is the subset of the spreadsheet API the writer relies on.
type Spreadsheet interface {
	// Worksheets lists every tab with its grid size.
	Worksheets(ctx context.Context) ([]Worksheet, error)
	// AppendRows grows a worksheet's grid by count rows.
	AppendRows(ctx context.Context, ws Worksheet, count int64) error
	// Clear blanks every cell in the range.
	Clear(ctx context.Context, rng CellRange) error
	// Update writes values row by row starting at the range's top-left cell.
	Update(ctx context.Context, rng CellRange, values [][]any) error
	// BatchUpdate writes several ranges in one call.
	BatchUpdate(ctx context.Context, data []ValueRange) error
}
