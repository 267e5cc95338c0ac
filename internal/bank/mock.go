package bank

import (
	"context"
	"sync"

	"github.com/Veraticus/budget-sync/internal/model"
)

// MockAccount is a mock implementation of Account for testing.
type MockAccount struct {
	// Functions that can be set by tests to control behavior
	LoginFn        func(ctx context.Context) error
	BalanceFn      func(ctx context.Context) (model.Balances, error)
	TransactionsFn func(ctx context.Context) (model.TransactionList, error)

	// Call tracking
	LoginCalls        int
	BalanceCalls      int
	TransactionsCalls int

	mu sync.Mutex
}

// NewMockAccount creates a mock that returns the given data.
func NewMockAccount(balances model.Balances, transactions []model.Transaction) *MockAccount {
	return &MockAccount{
		BalanceFn: func(context.Context) (model.Balances, error) {
			return balances, nil
		},
		TransactionsFn: func(context.Context) (model.TransactionList, error) {
			return model.TransactionList{Transactions: transactions}, nil
		},
	}
}

// Login implements Account.Login.
func (m *MockAccount) Login(ctx context.Context) error {
	m.mu.Lock()
	m.LoginCalls++
	m.mu.Unlock()

	if m.LoginFn != nil {
		return m.LoginFn(ctx)
	}
	return nil
}

// Balance implements Account.Balance.
func (m *MockAccount) Balance(ctx context.Context) (model.Balances, error) {
	m.mu.Lock()
	m.BalanceCalls++
	m.mu.Unlock()

	if m.BalanceFn != nil {
		return m.BalanceFn(ctx)
	}
	return model.Balances{}, nil
}

// Transactions implements Account.Transactions.
func (m *MockAccount) Transactions(ctx context.Context) (model.TransactionList, error) {
	m.mu.Lock()
	m.TransactionsCalls++
	m.mu.Unlock()

	if m.TransactionsFn != nil {
		return m.TransactionsFn(ctx)
	}

	// Default behavior: return empty list
	return model.TransactionList{}, nil
}

// Ensure MockAccount implements the Account interface.
var _ Account = (*MockAccount)(nil)
