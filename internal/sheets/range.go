package sheets

import (
	"fmt"
	"strings"
)

// CellRange is a rectangular block of cells. Rows and columns are 1-based and inclusive.
type CellRange struct {
	Sheet    string
	StartRow int64
	EndRow   int64
	StartCol int
	EndCol   int
}

// A1 renders the range in A1 notation, e.g. 'Bills'!A2:Q6.
func (r CellRange) A1() string {
	start := fmt.Sprintf("%s%d", ColumnLetter(r.StartCol), r.StartRow)
	end := fmt.Sprintf("%s%d", ColumnLetter(r.EndCol), r.EndRow)

	cells := start
	if start != end {
		cells = start + ":" + end
	}

	if r.Sheet == "" {
		return cells
	}
	return quoteSheet(r.Sheet) + "!" + cells
}

// Rows returns the number of rows covered.
func (r CellRange) Rows() int64 {
	return r.EndRow - r.StartRow + 1
}

// Cols returns the number of columns covered.
func (r CellRange) Cols() int {
	return r.EndCol - r.StartCol + 1
}

// Cell returns the range covering a single cell.
func Cell(sheet string, row int64, col int) CellRange {
	return CellRange{Sheet: sheet, StartRow: row, EndRow: row, StartCol: col, EndCol: col}
}

// ColumnLetter converts a 1-based column index to its letter name (1 → A, 27 → AA).
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}

	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
