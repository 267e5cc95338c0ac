// Package timerange selects the transactions that belong to the current budget month.
package timerange

import (
	"time"

	"github.com/Veraticus/budget-sync/internal/model"
)

// Range is an inclusive interval of epoch milliseconds.
type Range struct {
	Start int64
	End   int64
}

// CurrentMonth returns the first and last millisecond of the calendar month
// containing now, evaluated in now's location.
func CurrentMonth(now time.Time) Range {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)

	return Range{
		Start: start.UnixMilli(),
		End:   end.UnixMilli(),
	}
}

// Contains reports whether ms lies within the range, boundaries included.
func (r Range) Contains(ms int64) bool {
	return ms >= r.Start && ms <= r.End
}

// StartTime returns the range start in loc.
func (r Range) StartTime(loc *time.Location) time.Time {
	return time.UnixMilli(r.Start).In(loc)
}

// EndTime returns the range end in loc.
func (r Range) EndTime(loc *time.Location) time.Time {
	return time.UnixMilli(r.End).In(loc)
}

// Filter returns the transactions recorded inside r, in their original order.
func Filter(r Range, transactions []model.Transaction) []model.Transaction {
	filtered := make([]model.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if r.Contains(tx.Times.WhenRecorded) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}
