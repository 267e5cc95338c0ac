// Package bank defines the contract every bank provider implements.
package bank

import (
	"context"

	"github.com/Veraticus/budget-sync/internal/model"
)

// Account is a logged-in view of a single bank account.
// Balance and Transactions may be called concurrently once Login has returned.
type Account interface {
	Login(ctx context.Context) error
	Balance(ctx context.Context) (model.Balances, error)
	Transactions(ctx context.Context) (model.TransactionList, error)
}
