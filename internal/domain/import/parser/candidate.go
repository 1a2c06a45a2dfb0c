// Package parser turns extracted document text into transaction candidates
// awaiting user confirmation.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// Candidate is an extracted, not yet persisted transaction.
type Candidate struct {
	Date        time.Time
	Description string
	Category    string
	Amount      decimal.Decimal
	Type        transactions.Type
}

// ParseError describes a line that could not be turned into a candidate.
type ParseError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	RawData string `json:"rawData"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, %s: %s", e.Row, e.Column, e.Message)
}

// cleanDescription collapses internal whitespace.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitLines returns the trimmed non-empty lines of text with their 1-based line numbers.
func splitLines(text string) ([]string, []int) {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	rows := make([]int, 0, len(raw))
	for i, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
			rows = append(rows, i+1)
		}
	}
	return lines, rows
}
