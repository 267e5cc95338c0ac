// Package syncer runs one bank-to-spreadsheet synchronization.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/budget-sync/internal/bank"
	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/model"
	"github.com/Veraticus/budget-sync/internal/sheets"
	"github.com/Veraticus/budget-sync/internal/timerange"
)

// Connector opens an authenticated spreadsheet.
type Connector func(ctx context.Context) (sheets.Spreadsheet, error)

// Config controls a sync run.
type Config struct {
	Location *time.Location
	Sheets   sheets.Config
	DryRun   bool
}

// Result describes what a run fetched and wrote.
type Result struct {
	RunID        string
	Transactions []model.Transaction
	Rows         []sheets.Row
	Balances     model.Balances
	Range        timerange.Range
	Fetched      int
	DryRun       bool
}

// Syncer pulls balances and transactions from a bank account and writes them
// into the budget spreadsheet.
type Syncer struct {
	account bank.Account
	connect Connector
	logger  *slog.Logger
	now     func() time.Time
	config  Config
}

// New creates a syncer. connect is only called for non dry runs.
func New(account bank.Account, connect Connector, config Config, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Syncer{
		account: account,
		connect: connect,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Run logs in, fetches balances and transactions, and writes the current
// month into the spreadsheet. The first error aborts the run.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:  uuid.NewString(),
		DryRun: s.config.DryRun,
	}
	logger := s.logger.With("component", "syncer", "run_id", result.RunID)

	logger.Info("starting sync", "dry_run", s.config.DryRun)

	if err := s.account.Login(ctx); err != nil {
		common.LogError(logger, err, "bank login failed", nil)
		return nil, fmt.Errorf("bank login: %w", err)
	}

	var transactions model.TransactionList
	fetch, fetchCtx := errgroup.WithContext(ctx)
	fetch.Go(func() error {
		balances, err := s.account.Balance(fetchCtx)
		if err != nil {
			return fmt.Errorf("fetch balances: %w", err)
		}
		result.Balances = balances
		return nil
	})
	fetch.Go(func() error {
		list, err := s.account.Transactions(fetchCtx)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		transactions = list
		return nil
	})
	if err := fetch.Wait(); err != nil {
		common.LogError(logger, err, "bank fetch failed", nil)
		return nil, err
	}

	result.Fetched = len(transactions.Transactions)
	result.Range = timerange.CurrentMonth(s.now().In(s.config.Location))
	result.Transactions = timerange.Filter(result.Range, transactions.Transactions)
	result.Rows = make([]sheets.Row, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		result.Rows = append(result.Rows, sheets.MapTransaction(tx))
	}

	logger.Info("fetched bank data",
		"transactions", result.Fetched,
		"current_month", len(result.Transactions),
		"month_start", result.Range.StartTime(s.config.Location).Format(time.DateOnly))

	if s.config.DryRun {
		logger.Info("dry run, skipping spreadsheet update")
		return result, nil
	}

	sheet, err := s.connect(ctx)
	if err != nil {
		common.LogError(logger, err, "failed to connect to spreadsheet", nil)
		return nil, fmt.Errorf("connect spreadsheet: %w", err)
	}

	writer := sheets.NewWriter(sheet, s.config.Sheets, logger)

	update, updateCtx := errgroup.WithContext(ctx)
	update.Go(func() error {
		return writer.UpdateBalances(updateCtx, result.Balances)
	})
	update.Go(func() error {
		return writer.UpdateTransactions(updateCtx, result.Transactions)
	})
	if err := update.Wait(); err != nil {
		return nil, err
	}

	common.LogInfo(logger, "sync complete", common.Fields{
		"rows":      len(result.Rows),
		"fetched":   result.Fetched,
		"worksheet": s.config.Sheets.TransactionsSheet,
	})
	return result, nil
}
