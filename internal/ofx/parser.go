// Package ofx implements bank.Account for downloaded OFX/QFX statements.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/budget-sync/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line that are missing their closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the balances and transactions of one OFX download.
type Statement struct {
	Balances     model.Balances
	Transactions []model.Transaction
}

// Parser converts OFX/QFX files into statements.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "ofx")}
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Parse reads every bank and credit card statement in the file.
// Balances come from bank statements only; credit card ledgers are debts.
func (p *Parser) Parse(reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	statement := &Statement{}
	total := decimal.Zero
	pending := decimal.Zero
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		bankStmts++

		ledger := amount(stmt.BalAmt)
		total = total.Add(ledger)
		if stmt.AvailBalAmt != nil {
			pending = pending.Add(ledger.Sub(amount(*stmt.AvailBalAmt)))
		}

		if stmt.BankTranList != nil {
			statement.Transactions = append(statement.Transactions, convertTransactions(stmt.BankTranList.Transactions)...)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		ccStmts++

		if stmt.BankTranList != nil {
			statement.Transactions = append(statement.Transactions, convertTransactions(stmt.BankTranList.Transactions)...)
		}
	}

	statement.Balances = model.Balances{
		Total:   model.Unscale(total),
		Pending: model.Unscale(pending),
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(statement.Transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return statement, nil
}

func convertTransactions(txs []ofxgo.Transaction) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, convertTransaction(tx))
	}
	return out
}

// convertTransaction converts an OFX transaction to the bank model.
// OFX amounts are already signed with debits negative.
func convertTransaction(ofxTx ofxgo.Transaction) model.Transaction {
	trnType := ofxTx.TrnType.String()

	tx := model.Transaction{
		Times:           model.Times{WhenRecorded: ofxTx.DtPosted.Time.UnixMilli()},
		Amounts:         model.Amounts{Amount: model.Unscale(amount(ofxTx.TrnAmt))},
		TransactionType: strings.ToLower(trnType),
		RawDescription:  rawDescription(ofxTx),
		Description:     extractMerchantName(ofxTx),
		Memo:            strings.TrimSpace(string(ofxTx.Memo)),
		Categories:      inferCategories(trnType),
	}

	if payee := ofxTx.Payee; payee != nil {
		geo := model.Geo{
			Street: strings.TrimSpace(string(payee.Addr1)),
			City:   strings.TrimSpace(string(payee.City)),
			State:  strings.TrimSpace(string(payee.State)),
		}
		if geo != (model.Geo{}) {
			tx.Geo = &geo
		}
	}

	return tx
}

// inferCategories maps the few transaction types that imply a category.
func inferCategories(trnType string) []model.Category {
	switch trnType {
	case "INT", "DIV":
		return []model.Category{{Folder: "Income", Name: "Interest"}}
	case "FEE", "SRVCHG":
		return []model.Category{{Folder: "Bank Fees", Name: "Fees"}}
	case "ATM":
		return []model.Category{{Folder: "Cash & ATM", Name: "ATM"}}
	}
	return nil
}

func amount(a ofxgo.Amount) decimal.Decimal {
	d, err := decimal.NewFromString(a.Rat.FloatString(model.AmountExponent))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func rawDescription(tx ofxgo.Transaction) string {
	if tx.Name != "" {
		return strings.TrimSpace(string(tx.Name))
	}
	if tx.Payee != nil {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	return ""
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE is usually the cleaner merchant name
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " date stamps
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
