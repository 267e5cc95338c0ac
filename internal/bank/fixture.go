package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/budget-sync/internal/model"
)

const (
	// BalancesFixture is the file name of cached balances.
	BalancesFixture = "balances.json"
	// TransactionsFixture is the file name of cached transactions.
	TransactionsFixture = "transactions.json"
)

// FixtureAccount logs in through a live account but serves balances and
// transactions from JSON files previously captured from the bank.
type FixtureAccount struct {
	live   Account
	logger *slog.Logger
	dir    string
}

// NewFixtureAccount wraps live so data reads come from dir.
func NewFixtureAccount(live Account, dir string, logger *slog.Logger) *FixtureAccount {
	if logger == nil {
		logger = slog.Default()
	}
	return &FixtureAccount{
		live:   live,
		dir:    dir,
		logger: logger.With("component", "fixtures"),
	}
}

// Login delegates to the live account.
func (f *FixtureAccount) Login(ctx context.Context) error {
	f.logger.Info("populating account with cached data", "dir", f.dir)
	return f.live.Login(ctx)
}

// Balance reads balances.json.
func (f *FixtureAccount) Balance(_ context.Context) (model.Balances, error) {
	var balances model.Balances
	if err := f.load(BalancesFixture, &balances); err != nil {
		return model.Balances{}, err
	}
	return balances, nil
}

// Transactions reads transactions.json.
func (f *FixtureAccount) Transactions(_ context.Context) (model.TransactionList, error) {
	var list model.TransactionList
	if err := f.load(TransactionsFixture, &list); err != nil {
		return model.TransactionList{}, err
	}
	return list, nil
}

func (f *FixtureAccount) load(name string, v any) error {
	path := filepath.Join(f.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}

	f.logger.Debug("loaded fixture", "path", path)
	return nil
}

// Ensure FixtureAccount implements the Account interface.
var _ Account = (*FixtureAccount)(nil)
