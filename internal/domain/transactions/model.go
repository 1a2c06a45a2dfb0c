// Package transactions owns the transaction store: persistence, filtering,
// aggregation and the manual-entry service.
package transactions

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the direction of a transaction.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// ParseType accepts INCOME or EXPENSE in any case.
func ParseType(s string) (Type, bool) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome, true
	case TypeExpense:
		return TypeExpense, true
	default:
		return "", false
	}
}

// Source records how a transaction entered the system.
type Source string

const (
	SourceManual    Source = "manual"
	SourceReceipt   Source = "receipt"
	SourceStatement Source = "statement"
	SourceAI        Source = "ai"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidType     = errors.New("type must be INCOME or EXPENSE")
	ErrInvalidCategory = errors.New("category is required")
	ErrEmptyBatch      = errors.New("batch is empty")
)

// Transaction is a persisted income or expense. Amounts are minor units.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        Type
	AmountMinor int64
	Category    string
	Description string
	Date        time.Time
	Source      Source
	CreatedAt   time.Time
}

// NewTransaction is the input for Create and CreateBatch.
type NewTransaction struct {
	Type        Type
	AmountMinor int64
	Category    string
	Description string
	Date        time.Time
	Source      Source
}

// Validate checks the store invariants.
func (n NewTransaction) Validate() error {
	if n.AmountMinor <= 0 {
		return ErrInvalidAmount
	}
	if _, ok := ParseType(string(n.Type)); !ok {
		return ErrInvalidType
	}
	if strings.TrimSpace(n.Category) == "" {
		return ErrInvalidCategory
	}
	return nil
}

// Filter narrows queries. Zero fields match everything; From and To are inclusive.
// Category matches case-insensitively.
type Filter struct {
	From     *time.Time
	To       *time.Time
	Type     Type
	Category string
	Limit    int
	// After resumes a List strictly past this row in list order.
	After *Cursor
}

// Cursor is the keyset position of a row in list order.
type Cursor struct {
	Date      time.Time
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the keyset position of t.
func CursorOf(t Transaction) *Cursor {
	return &Cursor{Date: t.Date, CreatedAt: t.CreatedAt, ID: t.ID}
}

// Between returns a copy of f restricted to [from, to].
func (f Filter) Between(from, to time.Time) Filter {
	f.From, f.To = &from, &to
	return f
}

// Expenses returns a copy of f restricted to EXPENSE rows.
func (f Filter) Expenses() Filter {
	f.Type = TypeExpense
	return f
}

// Totals aggregates a filtered set of transactions.
type Totals struct {
	IncomeMinor  int64
	ExpenseMinor int64
	Count        int
}

// NetMinor is income minus expenses.
func (t Totals) NetMinor() int64 {
	return t.IncomeMinor - t.ExpenseMinor
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	Category    string
	AmountMinor int64
	Count       int
}
