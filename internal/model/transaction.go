// Package model defines the bank data that flows into the budget spreadsheet.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single transaction as reported by the bank.
type Transaction struct {
	Geo             *Geo       `json:"geo,omitempty"`
	TransactionType string     `json:"transaction_type"`
	RawDescription  string     `json:"raw_description"`
	Description     string     `json:"description"`
	Memo            string     `json:"memo"`
	Categories      []Category `json:"categories"`
	Times           Times      `json:"times"`
	Amounts         Amounts    `json:"amounts"`
}

// Times holds the transaction timestamps in epoch milliseconds.
type Times struct {
	WhenRecorded int64 `json:"when_recorded"`
}

// Amounts holds the scaled transaction amount (see Scale).
type Amounts struct {
	Amount int64 `json:"amount"`
}

// Geo is the optional location attached to card transactions.
type Geo struct {
	Street string  `json:"street"`
	City   string  `json:"city"`
	State  string  `json:"state"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// TransactionList is the envelope the bank wraps transactions in.
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// RecordedAt returns when the transaction was recorded, in UTC.
func (t *Transaction) RecordedAt() time.Time {
	return time.UnixMilli(t.Times.WhenRecorded).UTC()
}

// Amount returns the transaction amount in currency units.
func (t *Transaction) Amount() decimal.Decimal {
	return Scale(t.Amounts.Amount)
}

// PrimaryCategory returns the first category, or the zero Category when none is set.
func (t *Transaction) PrimaryCategory() Category {
	if len(t.Categories) == 0 {
		return Category{}
	}
	return t.Categories[0]
}
