package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/model"
)

const (
	// firstDataRow is the first row below the header.
	firstDataRow = 2
	// clearColumns is how many columns (A–Z) get blanked per data row.
	clearColumns = 26

	summaryRow      = 2
	balanceColumn   = 1 // A
	goalsColumn     = 2 // B
	updatedAtColumn = 6 // F
)

// Writer pushes balances and transactions into the budget spreadsheet.
type Writer struct {
	sheet  Spreadsheet
	logger *slog.Logger
	now    func() time.Time
	config Config
}

// NewWriter creates a writer on top of an authenticated spreadsheet.
func NewWriter(sheet Spreadsheet, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TransactionsSheet == "" {
		config.TransactionsSheet = DefaultTransactionsSheet
	}
	return &Writer{
		sheet:  sheet,
		config: config,
		logger: logger.With("component", "writer"),
		now:    time.Now,
	}
}

// FindWorksheet returns the worksheet with the given title.
func (w *Writer) FindWorksheet(ctx context.Context, title string) (Worksheet, error) {
	worksheets, err := w.sheet.Worksheets(ctx)
	if err != nil {
		return Worksheet{}, err
	}

	for _, ws := range worksheets {
		if ws.Title == title {
			return ws, nil
		}
	}

	return Worksheet{}, fmt.Errorf("worksheet with title not found: %s: %w", title, common.ErrNotFound)
}

// summaryWorksheet returns the configured summary worksheet, or the first tab
// that is not the transactions worksheet.
func (w *Writer) summaryWorksheet(ctx context.Context) (Worksheet, error) {
	if w.config.SummarySheet != "" {
		if w.config.SummarySheet == w.config.TransactionsSheet {
			return Worksheet{}, fmt.Errorf("summary worksheet %q is also the transactions worksheet: %w",
				w.config.SummarySheet, common.ErrInvalidConfig)
		}
		return w.FindWorksheet(ctx, w.config.SummarySheet)
	}

	worksheets, err := w.sheet.Worksheets(ctx)
	if err != nil {
		return Worksheet{}, err
	}

	var first *Worksheet
	for i := range worksheets {
		ws := &worksheets[i]
		if ws.Title == w.config.TransactionsSheet {
			continue
		}
		if first == nil || ws.Index < first.Index {
			first = ws
		}
	}
	if first == nil {
		return Worksheet{}, fmt.Errorf("spreadsheet has no worksheet besides %s: %w",
			w.config.TransactionsSheet, common.ErrNotFound)
	}
	return *first, nil
}

// ClearWorksheet blanks columns A–Z, or as many of them as the grid has, from
// the first data row through lastRow.
func (w *Writer) ClearWorksheet(ctx context.Context, ws Worksheet, lastRow int64) error {
	if lastRow < firstDataRow {
		return nil
	}

	endCol := clearColumns
	if ws.ColumnCount > 0 && ws.ColumnCount < clearColumns {
		endCol = int(ws.ColumnCount)
	}

	rng := CellRange{
		Sheet:    ws.Title,
		StartRow: firstDataRow,
		EndRow:   lastRow,
		StartCol: 1,
		EndCol:   endCol,
	}
	if err := w.sheet.Clear(ctx, rng); err != nil {
		return err
	}

	w.logger.Debug("cleared worksheet", "worksheet", ws.Title, "range", rng.A1())
	return nil
}

// WriteHeader writes the column titles into the first row.
func (w *Writer) WriteHeader(ctx context.Context, ws Worksheet) error {
	rng := CellRange{
		Sheet:    ws.Title,
		StartRow: 1,
		EndRow:   1,
		StartCol: 1,
		EndCol:   len(Headers),
	}
	return w.sheet.Update(ctx, rng, HeaderValues())
}

// UpdateTransactions replaces the transactions worksheet's data rows with
// one row per transaction. Callers pass the already filtered month.
func (w *Writer) UpdateTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := w.updateTransactions(ctx, transactions); err != nil {
		common.LogError(w.logger, err, "failed to update transactions", common.Fields{
			"worksheet":    w.config.TransactionsSheet,
			"transactions": len(transactions),
		})
		return fmt.Errorf("update transactions: %w", err)
	}

	w.logger.Info("~> Updated transactions.", "rows", len(transactions))
	return nil
}

func (w *Writer) updateTransactions(ctx context.Context, transactions []model.Transaction) error {
	ws, err := w.FindWorksheet(ctx, w.config.TransactionsSheet)
	if err != nil {
		return err
	}

	lastRow := int64(len(transactions)) + firstDataRow - 1

	// Grow the grid so every row we write is inside the worksheet.
	if lastRow > ws.RowCount {
		if err := w.sheet.AppendRows(ctx, ws, lastRow-ws.RowCount); err != nil {
			return err
		}
		ws.RowCount = lastRow
	}

	if w.config.WriteHeader {
		if err := w.WriteHeader(ctx, ws); err != nil {
			return err
		}
	}

	if err := w.ClearWorksheet(ctx, ws, max(ws.RowCount, lastRow)); err != nil {
		return err
	}

	if len(transactions) == 0 {
		return nil
	}

	rng := CellRange{
		Sheet:    ws.Title,
		StartRow: firstDataRow,
		EndRow:   lastRow,
		StartCol: 1,
		EndCol:   len(Headers),
	}
	return w.sheet.Update(ctx, rng, TransactionValues(transactions))
}

// UpdateBalances writes the current balance, goals and update time into the
// summary row.
func (w *Writer) UpdateBalances(ctx context.Context, balances model.Balances) error {
	if err := w.updateBalances(ctx, balances); err != nil {
		common.LogError(w.logger, err, "failed to update balances", nil)
		return fmt.Errorf("update balances: %w", err)
	}

	w.logger.Info("~> Updated balances.",
		"current", balances.Current().String(),
		"goals", balances.GoalsAmount().String())
	return nil
}

func (w *Writer) updateBalances(ctx context.Context, balances model.Balances) error {
	ws, err := w.summaryWorksheet(ctx)
	if err != nil {
		return err
	}

	data := []ValueRange{
		{
			Range:  Cell(ws.Title, summaryRow, balanceColumn),
			Values: [][]any{{balances.Current().InexactFloat64()}},
		},
		{
			Range:  Cell(ws.Title, summaryRow, goalsColumn),
			Values: [][]any{{balances.GoalsAmount().InexactFloat64()}},
		},
		{
			Range:  Cell(ws.Title, summaryRow, updatedAtColumn),
			Values: [][]any{{FormatTimestamp(w.now())}},
		},
	}

	return w.sheet.BatchUpdate(ctx, data)
}
