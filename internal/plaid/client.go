// Package plaid implements bank.Account on top of the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/budget-sync/internal/bank"
	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/model"
)

const (
	pageSize   = int32(500) // Plaid's max page size
	dateLayout = "2006-01-02"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	// Endpoint overrides the environment URL.
	Endpoint string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required: %w", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required: %w", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("plaid access token is required: %w", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required: %w", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid Plaid environment %q, must be sandbox or production: %w",
			c.Environment, common.ErrInvalidConfig)
	}

	return nil
}

// Client implements bank.Account for a single Plaid item.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	now         func() time.Time
	accessToken string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	configuration.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	switch {
	case cfg.Endpoint != "":
		configuration.UseEnvironment(plaid.Environment(cfg.Endpoint))
	case cfg.Environment == "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		configuration.UseEnvironment(plaid.Sandbox)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      logger.With("component", "plaid"),
		now:         time.Now,
	}, nil
}

// Login verifies the access token by listing the item's accounts.
func (c *Client) Login(ctx context.Context) error {
	request := plaid.NewAccountsGetRequest(c.accessToken)
	resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return fmt.Errorf("plaid login failed: %w", apiError(err, common.ErrAuthentication))
	}

	c.logger.Info("logged in", "accounts", len(resp.GetAccounts()))
	return nil
}

// Balance sums the real-time balances of the item's depository accounts.
// Pending is the difference between current and available; Plaid has no goals.
func (c *Client) Balance(ctx context.Context) (model.Balances, error) {
	request := plaid.NewAccountsBalanceGetRequest(c.accessToken)
	resp, _, err := c.client.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(*request).Execute()
	if err != nil {
		return model.Balances{}, fmt.Errorf("failed to fetch balances: %w", apiError(err, common.ErrUnexpectedResponse))
	}

	total := decimal.Zero
	pending := decimal.Zero
	for _, account := range resp.GetAccounts() {
		if account.GetType() != plaid.ACCOUNTTYPE_DEPOSITORY {
			continue
		}

		balances := account.GetBalances()
		current := decimal.NewFromFloat(balances.GetCurrent())
		total = total.Add(current)

		if available, ok := balances.GetAvailableOk(); ok && available != nil {
			pending = pending.Add(current.Sub(decimal.NewFromFloat(*available)))
		}
	}

	return model.Balances{
		Total:   model.Unscale(total),
		Pending: model.Unscale(pending),
	}, nil
}

// Transactions lists the previous and current month's transactions.
func (c *Client) Transactions(ctx context.Context) (model.TransactionList, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())

	raw, err := c.fetchTransactions(ctx, start, now)
	if err != nil {
		return model.TransactionList{}, err
	}

	list := model.TransactionList{Transactions: make([]model.Transaction, 0, len(raw))}
	for _, pt := range raw {
		tx, err := mapTransaction(pt)
		if err != nil {
			c.logger.Warn("skipping transaction", "transaction_id", pt.GetTransactionId(), "error", err)
			continue
		}
		list.Transactions = append(list.Transactions, tx)
	}

	return list, nil
}

func (c *Client) fetchTransactions(ctx context.Context, startDate, endDate time.Time) ([]plaid.Transaction, error) {
	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(dateLayout),
		"end_date", endDate.Format(dateLayout))

	var all []plaid.Transaction
	offset := int32(0)

	for {
		request := plaid.NewTransactionsGetRequest(
			c.accessToken,
			startDate.Format(dateLayout),
			endDate.Format(dateLayout),
		)
		request.SetOptions(plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		})

		resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transactions: %w", apiError(err, common.ErrUnexpectedResponse))
		}

		page := resp.GetTransactions()
		all = append(all, page...)

		c.logger.Debug("Fetched transaction batch",
			"count", len(page),
			"offset", offset,
			"total", resp.GetTotalTransactions())

		if len(page) == 0 || int32(len(all)) >= resp.GetTotalTransactions() {
			break
		}
		offset += int32(len(page))
	}

	c.logger.Info("Fetched all transactions", "count", len(all))
	return all, nil
}

// mapTransaction converts a Plaid transaction into the bank model.
// Plaid reports outflows as positive amounts; the model uses negative.
func mapTransaction(pt plaid.Transaction) (model.Transaction, error) {
	date, err := time.Parse(dateLayout, pt.GetDate())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid transaction date %q: %w", pt.GetDate(), err)
	}
	// Midday UTC keeps the calendar date stable across local month boundaries.
	recorded := date.Add(12 * time.Hour)

	description := pt.GetMerchantName()
	if description == "" {
		description = pt.GetName()
	}

	return model.Transaction{
		Times:           model.Times{WhenRecorded: recorded.UnixMilli()},
		Amounts:         model.Amounts{Amount: model.Unscale(decimal.NewFromFloat(pt.GetAmount()).Neg())},
		TransactionType: pt.GetPaymentChannel(),
		RawDescription:  pt.GetName(),
		Description:     description,
		Categories:      mapCategories(pt.GetCategory()),
		Geo:             mapLocation(pt.GetLocation()),
	}, nil
}

func mapCategories(hierarchy []string) []model.Category {
	switch len(hierarchy) {
	case 0:
		return nil
	case 1:
		return []model.Category{{Folder: hierarchy[0]}}
	default:
		return []model.Category{{Folder: hierarchy[0], Name: hierarchy[1]}}
	}
}

func mapLocation(loc plaid.Location) *model.Geo {
	geo := &model.Geo{
		Street: loc.GetAddress(),
		City:   loc.GetCity(),
		State:  loc.GetRegion(),
		Lat:    loc.GetLat(),
		Lon:    loc.GetLon(),
	}
	if *geo == (model.Geo{}) {
		return nil
	}
	return geo
}

// apiError unwraps Plaid's error payload and tags it with sentinel.
func apiError(err error, sentinel error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("plaid API error: %s - %s: %w", plaidErr.ErrorCode, plaidErr.ErrorMessage, sentinel)
}

// Ensure Client implements the bank.Account interface.
var _ bank.Account = (*Client)(nil)
