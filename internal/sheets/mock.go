package sheets

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemorySpreadsheet is an in-memory Spreadsheet for tests and dry runs.
// It enforces grid limits the same way the real API does.
type MemorySpreadsheet struct {
	sheets map[string]*memorySheet
	errs   map[string]error
	Calls  []string
	nextID int64
	mu     sync.Mutex
}

type memorySheet struct {
	cells map[cellKey]any
	info  Worksheet
}

type cellKey struct {
	row int64
	col int
}

// NewMemorySpreadsheet creates an empty spreadsheet.
func NewMemorySpreadsheet() *MemorySpreadsheet {
	return &MemorySpreadsheet{
		sheets: make(map[string]*memorySheet),
		errs:   make(map[string]error),
	}
}

// AddWorksheet adds a tab with the given grid size and returns it.
func (m *MemorySpreadsheet) AddWorksheet(title string, rows int64) Worksheet {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws := Worksheet{
		Title:       title,
		SheetID:     m.nextID,
		Index:       int64(len(m.sheets)),
		RowCount:    rows,
		ColumnCount: clearColumns,
	}
	m.nextID++
	m.sheets[title] = &memorySheet{info: ws, cells: make(map[cellKey]any)}
	return ws
}

// SetColumnCount resizes a worksheet's grid width.
func (m *MemorySpreadsheet) SetColumnCount(title string, cols int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sheet, ok := m.sheets[title]; ok {
		sheet.info.ColumnCount = cols
	}
}

// SetError makes every subsequent call to method fail with err.
func (m *MemorySpreadsheet) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs[method] = err
}

// Cell returns the value stored at row/col, or nil when blank.
func (m *MemorySpreadsheet) Cell(title string, row int64, col int) any {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet, ok := m.sheets[title]
	if !ok {
		return nil
	}
	return sheet.cells[cellKey{row: row, col: col}]
}

// Row returns the first cols values of a row.
func (m *MemorySpreadsheet) Row(title string, row int64, cols int) []any {
	out := make([]any, cols)
	for c := 1; c <= cols; c++ {
		out[c-1] = m.Cell(title, row, c)
	}
	return out
}

// Snapshot returns a copy of every non-blank cell of a worksheet keyed by A1 address.
func (m *MemorySpreadsheet) Snapshot(title string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]any)
	sheet, ok := m.sheets[title]
	if !ok {
		return out
	}
	for k, v := range sheet.cells {
		out[Cell("", k.row, k.col).A1()] = v
	}
	return out
}

// RowCount returns a worksheet's current grid height.
func (m *MemorySpreadsheet) RowCount(title string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sheet, ok := m.sheets[title]; ok {
		return sheet.info.RowCount
	}
	return 0
}

// GetCalls returns a copy of the recorded calls.
func (m *MemorySpreadsheet) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

// Worksheets implements Spreadsheet.
func (m *MemorySpreadsheet) Worksheets(_ context.Context) ([]Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Worksheets", ""); err != nil {
		return nil, err
	}

	out := make([]Worksheet, 0, len(m.sheets))
	for _, sheet := range m.sheets {
		out = append(out, sheet.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// AppendRows implements Spreadsheet.
func (m *MemorySpreadsheet) AppendRows(_ context.Context, ws Worksheet, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("AppendRows", fmt.Sprintf("%s+%d", ws.Title, count)); err != nil {
		return err
	}

	sheet, err := m.lookup(ws.Title)
	if err != nil {
		return err
	}
	sheet.info.RowCount += count
	return nil
}

// Clear implements Spreadsheet.
func (m *MemorySpreadsheet) Clear(_ context.Context, rng CellRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Clear", rng.A1()); err != nil {
		return err
	}

	sheet, err := m.inGrid(rng)
	if err != nil {
		return err
	}
	for k := range sheet.cells {
		if k.row >= rng.StartRow && k.row <= rng.EndRow && k.col >= rng.StartCol && k.col <= rng.EndCol {
			delete(sheet.cells, k)
		}
	}
	return nil
}

// Update implements Spreadsheet.
func (m *MemorySpreadsheet) Update(_ context.Context, rng CellRange, values [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Update", rng.A1()); err != nil {
		return err
	}
	return m.write(rng, values)
}

// BatchUpdate implements Spreadsheet.
func (m *MemorySpreadsheet) BatchUpdate(_ context.Context, data []ValueRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("BatchUpdate", fmt.Sprintf("%d ranges", len(data))); err != nil {
		return err
	}
	for _, d := range data {
		if err := m.write(d.Range, d.Values); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemorySpreadsheet) record(method, detail string) error {
	call := method
	if detail != "" {
		call += " " + detail
	}
	m.Calls = append(m.Calls, call)
	return m.errs[method]
}

func (m *MemorySpreadsheet) lookup(title string) (*memorySheet, error) {
	sheet, ok := m.sheets[title]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", title)
	}
	return sheet, nil
}

func (m *MemorySpreadsheet) inGrid(rng CellRange) (*memorySheet, error) {
	sheet, err := m.lookup(rng.Sheet)
	if err != nil {
		return nil, err
	}
	if rng.EndRow > sheet.info.RowCount || int64(rng.EndCol) > sheet.info.ColumnCount {
		return nil, fmt.Errorf("range (%s) exceeds grid limits: max rows %d, max columns %d",
			rng.A1(), sheet.info.RowCount, sheet.info.ColumnCount)
	}
	return sheet, nil
}

func (m *MemorySpreadsheet) write(rng CellRange, values [][]any) error {
	sheet, err := m.inGrid(rng)
	if err != nil {
		return err
	}
	if int64(len(values)) > rng.Rows() {
		return fmt.Errorf("requested writing within range [%s], but tried writing %d rows", rng.A1(), len(values))
	}

	for i, row := range values {
		if len(row) > rng.Cols() {
			return fmt.Errorf("requested writing within range [%s], but tried writing %d columns", rng.A1(), len(row))
		}
		for j, v := range row {
			key := cellKey{row: rng.StartRow + int64(i), col: rng.StartCol + j}
			if v == nil || v == "" {
				delete(sheet.cells, key)
				continue
			}
			sheet.cells[key] = v
		}
	}
	return nil
}

// Ensure MemorySpreadsheet implements the Spreadsheet interface.
var _ Spreadsheet = (*MemorySpreadsheet)(nil)
