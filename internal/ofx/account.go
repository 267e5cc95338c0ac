package ofx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Veraticus/budget-sync/internal/bank"
	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/model"
)

// Account serves balances and transactions from a statement file.
// Login reads and parses the file.
type Account struct {
	parser    *Parser
	statement *Statement
	path      string
	mu        sync.RWMutex
}

// NewAccount creates an account backed by the OFX/QFX file at path.
func NewAccount(path string, logger *slog.Logger) (*Account, error) {
	if path == "" {
		return nil, fmt.Errorf("ofx path is required: %w", common.ErrMissingConfig)
	}
	return &Account{path: path, parser: NewParser(logger)}, nil
}

// Login parses the statement file.
func (a *Account) Login(_ context.Context) error {
	f, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	statement, err := a.parser.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", a.path, err)
	}

	a.mu.Lock()
	a.statement = statement
	a.mu.Unlock()
	return nil
}

// Balance returns the statement's ledger balance.
func (a *Account) Balance(_ context.Context) (model.Balances, error) {
	statement, err := a.loaded()
	if err != nil {
		return model.Balances{}, err
	}
	return statement.Balances, nil
}

// Transactions returns every transaction in the statement.
func (a *Account) Transactions(_ context.Context) (model.TransactionList, error) {
	statement, err := a.loaded()
	if err != nil {
		return model.TransactionList{}, err
	}

	transactions := make([]model.Transaction, len(statement.Transactions))
	copy(transactions, statement.Transactions)
	return model.TransactionList{Transactions: transactions}, nil
}

func (a *Account) loaded() (*Statement, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.statement == nil {
		return nil, common.ErrNotLoggedIn
	}
	return a.statement, nil
}

// Ensure Account implements the bank.Account interface.
var _ bank.Account = (*Account)(nil)
