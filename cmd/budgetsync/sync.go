package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/budget-sync/internal/bank"
	"github.com/Veraticus/budget-sync/internal/cli"
	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/config"
	"github.com/Veraticus/budget-sync/internal/ofx"
	"github.com/Veraticus/budget-sync/internal/plaid"
	"github.com/Veraticus/budget-sync/internal/sheets"
	"github.com/Veraticus/budget-sync/internal/simple"
	"github.com/Veraticus/budget-sync/internal/syncer"
)

// dryRunPreview is how many mapped rows a dry run prints.
const dryRunPreview = 15

func syncCmd() *cobra.Command {
	var (
		dryRun      bool
		writeHeader bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write the current balance and this month's transactions to the spreadsheet",
		Long: `Log into the configured bank, fetch balances and transactions, keep the
transactions recorded this calendar month, then clear the transactions worksheet
and rewrite it along with the summary balances.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("write-header") {
				viper.Set("sheets.write_header", writeHeader)
			}
			return runSync(cmd.Context(), cmd.OutOrStdout(), viper.GetViper(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and map transactions without touching the spreadsheet")
	cmd.Flags().BoolVar(&writeHeader, "write-header", false, "also write the column titles into row 1")

	return cmd
}

func runSync(ctx context.Context, out io.Writer, v *viper.Viper, dryRun bool) error {
	logger := slog.Default()

	bankConfig, err := config.LoadBankConfig(v)
	if err != nil {
		return common.NewUserError("bank configuration is incomplete", err)
	}

	location, err := config.LoadLocation(v)
	if err != nil {
		return err
	}

	var sheetsConfig sheets.Config
	if !dryRun {
		sheetsConfig, err = config.LoadSheetsConfig(v)
		if err != nil {
			return common.NewUserError("Google Sheets configuration is incomplete", err)
		}
	}

	account, err := newAccount(bankConfig, logger)
	if err != nil {
		return err
	}

	connect := func(ctx context.Context) (sheets.Spreadsheet, error) {
		return sheets.NewClient(ctx, sheetsConfig, logger)
	}

	s := syncer.New(account, connect, syncer.Config{
		Location: location,
		Sheets:   sheetsConfig,
		DryRun:   dryRun,
	}, logger)

	result, err := s.Run(ctx)
	if err != nil {
		return err
	}

	printResult(out, result, location)
	return nil
}

// newAccount builds the configured bank provider, optionally serving data
// from cached fixtures.
func newAccount(cfg config.BankConfig, logger *slog.Logger) (bank.Account, error) {
	var (
		account bank.Account
		err     error
	)

	switch cfg.Provider {
	case config.ProviderSimple:
		account, err = simple.NewClient(cfg.Simple, logger)
	case config.ProviderPlaid:
		account, err = plaid.NewClient(cfg.Plaid, logger)
	case config.ProviderOFX:
		account, err = ofx.NewAccount(cfg.OFXPath, logger)
	default:
		err = fmt.Errorf("unknown bank provider %q: %w", cfg.Provider, common.ErrInvalidConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s account: %w", cfg.Provider, err)
	}

	if cfg.UseFixtures {
		account = bank.NewFixtureAccount(account, cfg.FixturesDir, logger)
	}
	return account, nil
}

func printResult(out io.Writer, result *syncer.Result, location *time.Location) {
	month := result.Range.StartTime(location).Format("January 2006")

	summary := fmt.Sprintf("Run:          %s\nMonth:        %s\nCurrent:      %s\nGoals:        %s\nTransactions: %d of %d fetched",
		result.RunID,
		month,
		result.Balances.Current().StringFixed(2),
		result.Balances.GoalsAmount().StringFixed(2),
		len(result.Transactions),
		result.Fetched)

	if !result.DryRun {
		fmt.Fprintln(out, cli.FormatSuccess("Spreadsheet updated"))
		fmt.Fprintln(out, cli.RenderBox("Sync summary", summary))
		return
	}

	fmt.Fprintln(out, cli.FormatTitle("Dry run: nothing was written"))
	fmt.Fprintln(out, cli.RenderBox("Sync summary", summary))

	rows := make([][]string, 0, min(len(result.Rows), dryRunPreview))
	for _, row := range result.Rows[:min(len(result.Rows), dryRunPreview)] {
		rows = append(rows, []string{
			row.Date,
			row.Amount.StringFixed(2),
			row.Description,
			categoryLabel(row),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, cli.RenderTable([]string{"Date", "Amount", "Description", "Category"}, rows))
	}
	if hidden := len(result.Rows) - len(rows); hidden > 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d more rows not shown", hidden)))
	}
}

func categoryLabel(row sheets.Row) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{row.CategoryFolder, row.Category} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}
