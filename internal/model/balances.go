package model

import "github.com/shopspring/decimal"

// Balances is the account summary returned by the bank. All values are scaled.
type Balances struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Goals   int64 `json:"goals"`
}

// Current returns the spendable balance: total minus pending.
func (b Balances) Current() decimal.Decimal {
	return Scale(b.Total).Sub(Scale(b.Pending))
}

// GoalsAmount returns the amount set aside in goals.
func (b Balances) GoalsAmount() decimal.Decimal {
	return Scale(b.Goals)
}
