package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// SpendReader sums transaction amounts; satisfied by transactions.Store.
type SpendReader interface {
	Sum(ctx context.Context, userID uuid.UUID, f transactions.Filter) (int64, error)
}

// Status is the month-to-date view of the budget. Amounts are minor units.
type Status struct {
	MonthlyBudget  int64
	Spent          int64
	Remaining      int64
	PercentageUsed float64
	IsOverBudget   bool
	Month          string
}

// Service sets the budget and computes its status.
type Service struct {
	store    Store
	spend    SpendReader
	currency string
	logger   *slog.Logger
}

func NewService(store Store, spend SpendReader, currency string, logger *slog.Logger) *Service {
	return &Service{store: store, spend: spend, currency: currency, logger: logger}
}

// Currency returns the ISO code amounts are denominated in.
func (s *Service) Currency() string {
	return s.currency
}

// Set stores a non-negative monthly budget and returns the stored value in minor units.
func (s *Service) Set(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, httpx.NewValidationError("monthlyBudget", ErrNegativeBudget.Error())
	}

	minor, err := money.ToMinor(amount, s.currency)
	if err != nil {
		return 0, httpx.NewValidationError("monthlyBudget", err.Error())
	}

	stored, err := s.store.SetMonthlyBudget(ctx, userID, minor)
	if err != nil {
		return 0, err
	}

	s.logger.Info("monthly budget updated",
		slog.String("user_id", userID.String()),
		slog.Int64("monthly_budget_minor", stored),
	)
	return stored, nil
}

// Status reports expenses against the budget for the calendar month containing now.
func (s *Service) Status(ctx context.Context, userID uuid.UUID, now time.Time) (*Status, error) {
	budget, err := s.store.GetMonthlyBudget(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := MonthBounds(now)
	spent, err := s.spend.Sum(ctx, userID, transactions.Filter{}.Between(start, end).Expenses())
	if err != nil {
		return nil, fmt.Errorf("failed to sum month expenses: %w", err)
	}

	return ComputeStatus(budget, spent, now), nil
}

// ComputeStatus derives the status figures. Remaining may be negative;
// PercentageUsed is rounded to two decimals and is 0 without a budget.
func ComputeStatus(budget, spent int64, now time.Time) *Status {
	st := &Status{
		MonthlyBudget: budget,
		Spent:         spent,
		Remaining:     budget - spent,
		IsOverBudget:  budget > 0 && spent > budget,
		Month:         now.Format("January 2006"),
	}
	if budget > 0 {
		st.PercentageUsed = decimal.NewFromInt(spent).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(budget)).
			Round(2).
			InexactFloat64()
	}
	return st
}

// MonthBounds returns the first instant of now's month and the last millisecond of it.
func MonthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Millisecond)
}
