package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/budget-sync/internal/model"
	"github.com/shopspring/decimal"
)

// Headers are the column titles of the transactions worksheet, in order.
var Headers = []string{
	"Date",
	"Recorded at",
	"Scheduled for",
	"Amount",
	"Activity",
	"Pending",
	"Raw description",
	"Description",
	"Category folder",
	"Category",
	"Street address",
	"City",
	"State",
	"Zip",
	"Latitude",
	"Longitude",
	"Memo",
}

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const dateLayout = "2006/01/02"

// Row is one transaction laid out in the worksheet's column order.
type Row struct {
	Amount         decimal.Decimal
	Date           string
	RecordedAt     string
	ScheduledFor   string
	Activity       string
	RawDescription string
	Description    string
	CategoryFolder string
	Category       string
	StreetAddress  string
	City           string
	State          string
	Zip            string
	Memo           string
	Latitude       float64
	Longitude      float64
	Pending        bool
}

// MapTransaction converts a transaction into its worksheet row.
//
// Pending is always false and Zip carries the state: both mirror the
// spreadsheet layout the budget has always been fed with.
func MapTransaction(tx model.Transaction) Row {
	recorded := tx.RecordedAt()
	category := tx.PrimaryCategory()

	row := Row{
		Date:           recorded.Format(dateLayout),
		RecordedAt:     FormatTimestamp(recorded),
		Amount:         tx.Amount(),
		Activity:       tx.TransactionType,
		Pending:        false,
		RawDescription: tx.RawDescription,
		Description:    tx.Description,
		CategoryFolder: category.Folder,
		Category:       category.Name,
		Memo:           tx.Memo,
	}

	if geo := tx.Geo; geo != nil {
		row.StreetAddress = geo.Street
		row.City = geo.City
		row.State = geo.State
		row.Zip = geo.State
		row.Latitude = geo.Lat
		row.Longitude = geo.Lon
	}

	return row
}

// Values returns the row's cells in Headers order.
func (r Row) Values() []any {
	return []any{
		r.Date,
		r.RecordedAt,
		r.ScheduledFor,
		r.Amount.InexactFloat64(),
		r.Activity,
		r.Pending,
		r.RawDescription,
		r.Description,
		r.CategoryFolder,
		r.Category,
		r.StreetAddress,
		r.City,
		r.State,
		r.Zip,
		coordinate(r.Latitude),
		coordinate(r.Longitude),
		r.Memo,
	}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TransactionValues maps every transaction into worksheet values.
func TransactionValues(transactions []model.Transaction) [][]any {
	values := make([][]any, 0, len(transactions))
	for _, tx := range transactions {
		values = append(values, MapTransaction(tx).Values())
	}
	return values
}

// HeaderValues returns Headers as a single worksheet row.
func HeaderValues() [][]any {
	row := make([]any, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	return [][]any{row}
}

// String renders the row as a tab separated line, for dry runs.
func (r Row) String() string {
	cells := r.Values()
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = stringify(c)
	}
	return strings.Join(parts, "\t")
}

func coordinate(v float64) any {
	if v == 0 {
		return ""
	}
	return v
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
