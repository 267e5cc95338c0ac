// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/plaid"
	"github.com/Veraticus/budget-sync/internal/sheets"
	"github.com/Veraticus/budget-sync/internal/simple"
)

// Bank providers.
const (
	ProviderSimple = "simple"
	ProviderPlaid  = "plaid"
	ProviderOFX    = "ofx"
)

// BankConfig selects and configures the bank provider.
type BankConfig struct {
	Provider    string
	FixturesDir string
	OFXPath     string
	Simple      simple.Config
	Plaid       plaid.Config
	UseFixtures bool
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bank.provider", ProviderSimple)
	v.SetDefault("bank.base_url", simple.DefaultBaseURL)
	v.SetDefault("bank.use_fixtures", false)
	v.SetDefault("bank.fixtures_dir", "data")
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("sheets.secrets_path", sheets.DefaultSecretsPath)
	v.SetDefault("sheets.transactions_sheet", sheets.DefaultTransactionsSheet)
	v.SetDefault("sheets.write_header", false)
	v.SetDefault("sync.timezone", "Local")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// LoadBankConfig loads the bank provider configuration.
// It follows this precedence:
// 1. Viper configuration (from config file or BUDGETSYNC_ env vars)
// 2. Direct environment variables (SIMPLE_*, PLAID_*, USE_CACHED_SIMPLE_DATA)
// 3. Default values
func LoadBankConfig(v *viper.Viper) (BankConfig, error) {
	config := BankConfig{
		Provider:    strings.ToLower(v.GetString("bank.provider")),
		FixturesDir: ExpandPath(v.GetString("bank.fixtures_dir")),
		OFXPath:     ExpandPath(v.GetString("ofx.path")),
		UseFixtures: v.GetBool("bank.use_fixtures"),
		Simple: simple.Config{
			Username: firstNonEmpty(v.GetString("bank.username"), os.Getenv("SIMPLE_USERNAME")),
			Password: firstNonEmpty(v.GetString("bank.password"), os.Getenv("SIMPLE_PASSWORD")),
			BaseURL:  v.GetString("bank.base_url"),
		},
		Plaid: plaid.Config{
			ClientID:    firstNonEmpty(v.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
			Secret:      firstNonEmpty(v.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
			Environment: firstNonEmpty(os.Getenv("PLAID_ENV"), v.GetString("plaid.environment")),
			AccessToken: firstNonEmpty(v.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
		},
	}

	if !config.UseFixtures {
		if raw := os.Getenv("USE_CACHED_SIMPLE_DATA"); raw != "" {
			enabled, err := strconv.ParseBool(raw)
			if err != nil {
				return BankConfig{}, fmt.Errorf("USE_CACHED_SIMPLE_DATA=%q: %w", raw, common.ErrInvalidConfig)
			}
			config.UseFixtures = enabled
		}
	}

	if err := config.Validate(); err != nil {
		return BankConfig{}, err
	}
	return config, nil
}

// Validate checks the selected provider's settings.
func (c *BankConfig) Validate() error {
	switch c.Provider {
	case ProviderSimple:
		return c.Simple.Validate()
	case ProviderPlaid:
		return c.Plaid.Validate()
	case ProviderOFX:
		if c.OFXPath == "" {
			return fmt.Errorf("ofx.path is required for the ofx provider: %w", common.ErrMissingConfig)
		}
		return nil
	default:
		return fmt.Errorf("unknown bank provider %q: %w", c.Provider, common.ErrInvalidConfig)
	}
}

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// Viper values win; the GOOG_SECRETS and GOOGLE_SHEETS_* variables fill the gaps.
func LoadSheetsConfig(v *viper.Viper) (sheets.Config, error) {
	config := sheets.DefaultConfig()

	if err := config.LoadFromEnv(); err != nil && v.GetString("sheets.spreadsheet_id") == "" {
		return sheets.Config{}, err
	}

	if s := v.GetString("sheets.spreadsheet_id"); s != "" {
		config.SpreadsheetID = s
	}
	if s := v.GetString("sheets.credentials_json"); s != "" {
		config.CredentialsJSON = s
	}
	if s := v.GetString("sheets.secrets_path"); s != "" && s != sheets.DefaultSecretsPath {
		config.SecretsPath = s
	}
	if s := v.GetString("sheets.client_id"); s != "" {
		config.ClientID = s
	}
	if s := v.GetString("sheets.client_secret"); s != "" {
		config.ClientSecret = s
	}
	if s := v.GetString("sheets.refresh_token"); s != "" {
		config.RefreshToken = s
	}
	if s := v.GetString("sheets.transactions_sheet"); s != "" {
		config.TransactionsSheet = s
	}
	config.SummarySheet = v.GetString("sheets.summary_sheet")
	config.WriteHeader = v.GetBool("sheets.write_header")
	config.SecretsPath = ExpandPath(config.SecretsPath)

	if err := config.Validate(); err != nil {
		return sheets.Config{}, err
	}
	return config, nil
}

// LoadLocation returns the time zone that defines the budget month.
func LoadLocation(v *viper.Viper) (*time.Location, error) {
	name := v.GetString("sync.timezone")
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("sync.timezone %q: %w", name, common.ErrInvalidConfig)
	}
	return loc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
