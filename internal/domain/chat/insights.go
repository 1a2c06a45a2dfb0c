package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// Ledger is the read side of the transaction store used by chat.
type Ledger interface {
	List(ctx context.Context, userID uuid.UUID, f transactions.Filter) ([]transactions.Transaction, error)
	Count(ctx context.Context, userID uuid.UUID, f transactions.Filter) (int, error)
	Sum(ctx context.Context, userID uuid.UUID, f transactions.Filter) (int64, error)
	Totals(ctx context.Context, userID uuid.UUID, f transactions.Filter) (transactions.Totals, error)
	CategoryTotals(ctx context.Context, userID uuid.UUID, f transactions.Filter) ([]transactions.CategoryTotal, error)
}

// BudgetReader returns the user's monthly budget in minor units (0 = not set).
type BudgetReader interface {
	GetMonthlyBudget(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Reply is the answer to a chat message. Transactions is nil unless the
// model listed specific rows.
type Reply struct {
	Reply        string             `json:"reply"`
	Transactions []ReplyTransaction `json:"transactions"`
}

type ReplyTransaction struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

const (
	tipCategoryReview = "Review your spending by category each week and pick one to cut back on."
	tipDeferPurchase  = "Wait 24 hours before any non-essential purchase; many impulse buys don't survive the night."
)

// Insights answers classified intents from the user's own data without the model.
type Insights struct {
	ledger   Ledger
	budgets  BudgetReader
	currency string
}

func NewInsights(ledger Ledger, budgets BudgetReader, currency string) *Insights {
	return &Insights{ledger: ledger, budgets: budgets, currency: currency}
}

// Answer computes the reply for intent. rng may be nil for all time.
// Budget questions always look at the calendar month containing now.
func (e *Insights) Answer(ctx context.Context, userID uuid.UUID, intent Intent, rng *DateRange, now time.Time) (*Reply, error) {
	switch intent.Kind {
	case IntentCountCategory:
		return e.countCategory(ctx, userID, intent.Category, rng)
	case IntentSumCategory:
		return e.sumCategory(ctx, userID, intent.Category, rng)
	case IntentSumTotal:
		return e.sumTotal(ctx, userID, rng)
	case IntentBudgetSurvivability:
		return e.survivability(ctx, userID, now)
	case IntentRecommendations:
		return e.recommendations(ctx, userID, now)
	default:
		return nil, fmt.Errorf("no local answer for intent %s", intent.Kind)
	}
}

func (e *Insights) countCategory(ctx context.Context, userID uuid.UUID, category string, rng *DateRange) (*Reply, error) {
	f := scopedFilter(rng)
	f.Category = category

	n, err := e.ledger.Count(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", category, err)
	}

	return &Reply{
		Reply: fmt.Sprintf("You went for %s %d time(s) %s.", category, n, RangeLabel(rng)),
	}, nil
}

func (e *Insights) sumCategory(ctx context.Context, userID uuid.UUID, category string, rng *DateRange) (*Reply, error) {
	f := scopedFilter(rng).Expenses()
	f.Category = category

	total, err := e.ledger.Sum(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to sum %s: %w", category, err)
	}

	return &Reply{
		Reply: fmt.Sprintf("You spent %s on %s %s.", e.format(total), category, RangeLabel(rng)),
	}, nil
}

func (e *Insights) sumTotal(ctx context.Context, userID uuid.UUID, rng *DateRange) (*Reply, error) {
	total, err := e.ledger.Sum(ctx, userID, scopedFilter(rng).Expenses())
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}

	return &Reply{
		Reply: fmt.Sprintf("You spent %s in total %s.", e.format(total), RangeLabel(rng)),
	}, nil
}

// Survivability is the month-to-date budget outlook. Amounts are minor units.
type Survivability struct {
	Budget       int64
	Spent        int64
	DaysLeft     int
	NeededPerDay int64
	CanSurvive   bool
}

// ComputeSurvivability evaluates budget against spend on now's day of the month.
func ComputeSurvivability(budget, spent int64, now time.Time) Survivability {
	s := Survivability{
		Budget:     budget,
		Spent:      spent,
		DaysLeft:   daysInMonth(now) - now.Day(),
		CanSurvive: budget > 0 && spent <= budget,
	}
	if s.DaysLeft > 0 {
		s.NeededPerDay = max(budget-spent, 0) / int64(s.DaysLeft)
	}
	return s
}

func (e *Insights) monthToDate(ctx context.Context, userID uuid.UUID, now time.Time) (budget, spent int64, err error) {
	budget, err = e.budgets.GetMonthlyBudget(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load budget: %w", err)
	}

	f := transactions.Filter{}.Between(startOfMonth(now), endOfDay(now)).Expenses()
	spent, err = e.ledger.Sum(ctx, userID, f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum month expenses: %w", err)
	}
	return budget, spent, nil
}

func (e *Insights) survivability(ctx context.Context, userID uuid.UUID, now time.Time) (*Reply, error) {
	budget, spent, err := e.monthToDate(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	s := ComputeSurvivability(budget, spent, now)

	var reply string
	switch {
	case s.Budget == 0:
		reply = fmt.Sprintf("You haven't set a budget yet. So far this month you've spent %s.", e.format(s.Spent))
	case !s.CanSurvive:
		reply = fmt.Sprintf("You're over budget: you've spent %s against a monthly budget of %s, %s over, with %s left.",
			e.format(s.Spent), e.format(s.Budget), e.format(s.Spent-s.Budget), pluralDays(s.DaysLeft))
	case s.DaysLeft == 0:
		reply = fmt.Sprintf("Yes, you made it: you've spent %s of your %s budget and the month ends today.",
			e.format(s.Spent), e.format(s.Budget))
	default:
		reply = fmt.Sprintf("Yes, you can make it: you've spent %s of your %s budget. Keep it under %s per day for the remaining %s.",
			e.format(s.Spent), e.format(s.Budget), e.format(s.NeededPerDay), pluralDays(s.DaysLeft))
	}

	return &Reply{Reply: reply}, nil
}

func (e *Insights) recommendations(ctx context.Context, userID uuid.UUID, now time.Time) (*Reply, error) {
	budget, spent, err := e.monthToDate(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	var tips []string
	if budget > 0 {
		s := ComputeSurvivability(budget, spent, now)
		if s.CanSurvive && s.DaysLeft > 0 {
			tips = append(tips, fmt.Sprintf("To stay within your %s budget, aim for at most %s per day for the rest of the month.",
				e.format(budget), e.format(s.NeededPerDay)))
		} else if !s.CanSurvive {
			tips = append(tips, fmt.Sprintf("You're %s over your %s budget; pause discretionary spending until next month.",
				e.format(spent-budget), e.format(budget)))
		}
	}
	if spent > 0 {
		tips = append(tips, fmt.Sprintf("You're averaging %s per day this month.", e.format(spent/int64(now.Day()))))
	}
	tips = append(tips, tipCategoryReview, tipDeferPurchase)

	return &Reply{Reply: "Here are a few suggestions:\n- " + strings.Join(tips, "\n- ")}, nil
}

func (e *Insights) format(minor int64) string {
	return money.Format(minor, e.currency)
}

func scopedFilter(rng *DateRange) transactions.Filter {
	if rng == nil {
		return transactions.Filter{}
	}
	return transactions.Filter{}.Between(rng.Start, rng.End)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
