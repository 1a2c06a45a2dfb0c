package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

func TestParseStatement_Line(t *testing.T) {
	res := ParseStatement("2024-01-15 Coffee Shop Dining 12.50 EXPENSE", time.UTC)
	require.Len(t, res.Candidates, 1)
	assert.Zero(t, res.Skipped)

	c := res.Candidates[0]
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), c.Date)
	assert.Equal(t, "Coffee Shop", c.Description)
	assert.Equal(t, "Dining", c.Category)
	assert.True(t, decimal.RequireFromString("12.50").Equal(c.Amount))
	assert.Equal(t, transactions.TypeExpense, c.Type)
}

func TestParseStatement_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		column string
	}{
		{"four tokens", "2024-01-15 Dining 12.50 EXPENSE", "description"},
		{"bad type", "2024-01-15 Coffee Shop Dining 12.50 TRANSFER", "type"},
		{"bad amount", "2024-01-15 Coffee Shop Dining twelve EXPENSE", "amount"},
		{"no date", "Jan-15 Coffee Shop Dining 12.50 EXPENSE", "date"},
		{"impossible date", "2024-02-30 Coffee Shop Dining 12.50 EXPENSE", "date"},
		{"single token", "EXPENSE", "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseStatement(tt.line, time.UTC)
			assert.Empty(t, res.Candidates)
			assert.Equal(t, 1, res.Skipped)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.column, res.Errors[0].Column)
			assert.Equal(t, tt.line, res.Errors[0].RawData)
		})
	}
}

func TestParseStatement_Mixed(t *testing.T) {
	lines := []string{
		"ACME BANK STATEMENT",
		"",
		"2024-01-15 Coffee Shop Dining 12.50 expense",
		"2024-01-31 ACME Corp payroll Salary $3,200.00 INCOME",
		"2024-1-5 Refund Shopping -20.00 INCOME",
	}
	for i := 0; i < 7; i++ {
		lines = append(lines, "garbage line")
	}

	res := ParseStatement(strings.Join(lines, "\n"), time.UTC)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, 11, res.TotalLines)
	assert.Equal(t, 8, res.Skipped)
	assert.Len(t, res.Errors, maxStatementExamples)
	assert.Equal(t, 1, res.Errors[0].Row)

	assert.Equal(t, "ACME Corp payroll", res.Candidates[1].Description)
	assert.True(t, decimal.RequireFromString("3200").Equal(res.Candidates[1].Amount))
	assert.Equal(t, transactions.TypeIncome, res.Candidates[1].Type)

	assert.Equal(t, time.January, res.Candidates[2].Date.Month())
	assert.Equal(t, 5, res.Candidates[2].Date.Day())
	assert.True(t, decimal.NewFromInt(20).Equal(res.Candidates[2].Amount))
}
