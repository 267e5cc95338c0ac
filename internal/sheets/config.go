// Package sheets writes bank balances and transactions into a Google Sheets budget.
package sheets

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/budget-sync/internal/common"
)

// DefaultTransactionsSheet is the worksheet that receives the monthly transactions.
const DefaultTransactionsSheet = "Bills"

// DefaultSecretsPath is the service-account key file used when no inline JSON is set.
const DefaultSecretsPath = "secrets/secrets.json"

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	CredentialsJSON   string
	SecretsPath       string
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	SpreadsheetID     string
	TransactionsSheet string
	SummarySheet      string
	WriteHeader       bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SecretsPath:       DefaultSecretsPath,
		TransactionsSheet: DefaultTransactionsSheet,
	}
}

// LoadFromEnv loads the configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	// Service account credentials, inline or on disk
	if v := os.Getenv("GOOG_SECRETS"); v != "" {
		c.CredentialsJSON = v
	}
	if v := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); v != "" {
		c.SecretsPath = v
	}

	// OAuth2 credentials
	c.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	c.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	c.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")

	c.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")

	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: GOOGLE_SHEETS_SPREADSHEET_ID is not set", common.ErrMissingConfig)
	}

	return nil
}

// UsesOAuth reports whether a complete set of OAuth2 credentials is configured.
func (c *Config) UsesOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet ID is required")
	}

	partialOAuth := c.ClientID != "" || c.ClientSecret != "" || c.RefreshToken != ""
	if partialOAuth && !c.UsesOAuth() {
		return fmt.Errorf("incomplete OAuth2 credentials: client ID, client secret and refresh token are all required")
	}

	hasServiceAccount := c.CredentialsJSON != "" || c.SecretsPath != ""
	if !c.UsesOAuth() && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if c.UsesOAuth() && c.CredentialsJSON != "" {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if strings.TrimSpace(c.TransactionsSheet) == "" {
		return fmt.Errorf("transactions worksheet title is required")
	}

	if c.SummarySheet != "" && c.SummarySheet == c.TransactionsSheet {
		return fmt.Errorf("%w: summary worksheet must differ from the transactions worksheet %q", common.ErrInvalidConfig, c.TransactionsSheet)
	}

	return nil
}

// serviceAccountKey is the subset of a service-account key file we insist on.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// ServiceAccountJSON returns the service-account key, preferring inline JSON
// over the secrets file.
func (c *Config) ServiceAccountJSON() ([]byte, error) {
	var data []byte
	if c.CredentialsJSON != "" {
		data = []byte(c.CredentialsJSON)
	} else {
		raw, err := os.ReadFile(c.SecretsPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		data = raw
	}

	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("%w: service account key needs client_email and private_key", common.ErrInvalidConfig)
	}

	return data, nil
}
