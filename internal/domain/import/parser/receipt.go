package parser

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// Tried in order; the first one yielding a positive amount wins.
// Group 1 always captures the number.
var receiptAmountPatterns = []*regexp.Regexp{
	// bare decimal: 45.00, 12,50, 1,234.50
	regexp.MustCompile(`((?:\d{1,3}(?:,\d{3})+|\d+)[.,]\d{2})\b`),
	// number followed by a currency code: 12 USD, 3.5 EUR
	regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(?:usd|eur|gbp|brl|cad|aud|chf|jpy)\b`),
	regexp.MustCompile(`(?i)total\s*:?\s*\D?\s*(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`(?i)amount\s*:?\s*\D?\s*(\d+(?:[.,]\d+)?)`),
}

// ReceiptScanner is the heuristic, model-free line scanner.
type ReceiptScanner struct {
	keywords *categorization.Engine
}

// NewReceiptScanner builds a scanner over the receipt keyword table.
func NewReceiptScanner() *ReceiptScanner {
	return &ReceiptScanner{keywords: categorization.NewEngine(categorization.ReceiptKeywords)}
}

// Scan emits one EXPENSE candidate dated now for every line carrying an amount.
func (s *ReceiptScanner) Scan(text string, now time.Time) []Candidate {
	lines, _ := splitLines(text)

	var out []Candidate
	for _, line := range lines {
		amount, ok := lineAmount(line)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Date:        now,
			Description: line,
			Category:    s.keywords.Categorize(line),
			Amount:      amount,
			Type:        transactions.TypeExpense,
		})
	}
	return out
}

// ScanReceipt is Scan with the default keyword table.
func ScanReceipt(text string, now time.Time) []Candidate {
	return NewReceiptScanner().Scan(text, now)
}

func lineAmount(line string) (decimal.Decimal, bool) {
	for _, re := range receiptAmountPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, err := money.ParseLoose(m[1])
		if err == nil && amount.IsPositive() {
			return amount, true
		}
	}
	return decimal.Zero, false
}
