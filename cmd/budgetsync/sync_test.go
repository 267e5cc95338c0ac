package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budget-sync/internal/bank"
	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/config"
	"github.com/Veraticus/budget-sync/internal/ofx"
	"github.com/Veraticus/budget-sync/internal/plaid"
	"github.com/Veraticus/budget-sync/internal/sheets"
	"github.com/Veraticus/budget-sync/internal/simple"
)

const emptyStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1500.25
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestNewAccount(t *testing.T) {
	tests := []struct {
		check   func(t *testing.T, account bank.Account)
		wantErr error
		name    string
		config  config.BankConfig
	}{
		{
			name: "simple",
			config: config.BankConfig{
				Provider: config.ProviderSimple,
				Simple:   simple.Config{Username: "u", Password: "p"},
			},
			check: func(t *testing.T, account bank.Account) {
				t.Helper()
				assert.IsType(t, &simple.Client{}, account)
			},
		},
		{
			name: "plaid",
			config: config.BankConfig{
				Provider: config.ProviderPlaid,
				Plaid:    plaid.Config{ClientID: "c", Secret: "s", Environment: "sandbox", AccessToken: "a"},
			},
			check: func(t *testing.T, account bank.Account) {
				t.Helper()
				assert.IsType(t, &plaid.Client{}, account)
			},
		},
		{
			name:   "ofx",
			config: config.BankConfig{Provider: config.ProviderOFX, OFXPath: "statement.qfx"},
			check: func(t *testing.T, account bank.Account) {
				t.Helper()
				assert.IsType(t, &ofx.Account{}, account)
			},
		},
		{
			name: "fixtures wrap the live provider",
			config: config.BankConfig{
				Provider:    config.ProviderSimple,
				Simple:      simple.Config{Username: "u", Password: "p"},
				UseFixtures: true,
				FixturesDir: "data",
			},
			check: func(t *testing.T, account bank.Account) {
				t.Helper()
				assert.IsType(t, &bank.FixtureAccount{}, account)
			},
		},
		{
			name:    "unknown provider",
			config:  config.BankConfig{Provider: "mint"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "invalid provider settings",
			config:  config.BankConfig{Provider: config.ProviderSimple},
			wantErr: common.ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := newAccount(tt.config, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, account)
		})
	}
}

func TestRunSync_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.ofx")
	require.NoError(t, os.WriteFile(path, []byte(emptyStatement), 0o600))

	v := viper.New()
	config.SetDefaults(v)
	v.Set("bank.provider", "ofx")
	v.Set("ofx.path", path)
	v.Set("sync.timezone", "UTC")
	t.Setenv("USE_CACHED_SIMPLE_DATA", "")

	var out bytes.Buffer
	require.NoError(t, runSync(context.Background(), &out, v, true))

	assert.Contains(t, out.String(), "Dry run: nothing was written")
	assert.Contains(t, out.String(), "1500.25")
	assert.Contains(t, out.String(), "Transactions: 0 of 0 fetched")
}

func TestRunSync_MissingConfig(t *testing.T) {
	for _, name := range []string{"SIMPLE_USERNAME", "SIMPLE_PASSWORD", "USE_CACHED_SIMPLE_DATA", "GOOGLE_SHEETS_SPREADSHEET_ID"} {
		t.Setenv(name, "")
	}

	v := viper.New()
	config.SetDefaults(v)

	err := runSync(context.Background(), &bytes.Buffer{}, v, false)
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "bank configuration is incomplete", userErr.UserMessage)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Food / Groceries", categoryLabel(sheets.Row{CategoryFolder: "Food", Category: "Groceries"}))
	assert.Equal(t, "Transfer", categoryLabel(sheets.Row{CategoryFolder: "Transfer"}))
	assert.Empty(t, categoryLabel(sheets.Row{}))
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Equal(t, "budgetsync version dev\n", out.String())
}
