package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

func sampleLedger() *memLedger {
	return &memLedger{rows: []transactions.Transaction{
		tx(transactions.TypeExpense, 1250, "Dining", fixedNow.AddDate(0, 0, -1)),
		tx(transactions.TypeExpense, 3000, "Dining", fixedNow.AddDate(0, 0, -3)),
		tx(transactions.TypeExpense, 4500, "Groceries", fixedNow.AddDate(0, 0, -2)),
		tx(transactions.TypeExpense, 2000, "Dining", fixedNow.AddDate(0, -1, 0)),
		tx(transactions.TypeIncome, 500000, "Salary", fixedNow.AddDate(0, 0, -10)),
		tx(transactions.TypeIncome, 9900, "Dining", fixedNow.AddDate(0, 0, -1)),
	}}
}

func TestInsights_CountCategory(t *testing.T) {
	e := NewInsights(sampleLedger(), fixedBudget(0), "USD")

	t.Run("all time", func(t *testing.T) {
		reply, err := e.Answer(context.Background(), uuid.New(), Intent{Kind: IntentCountCategory, Category: "Dining"}, nil, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "You went for Dining 4 time(s) all time.", reply.Reply)
		assert.Nil(t, reply.Transactions)
	})

	t.Run("scoped to range", func(t *testing.T) {
		rng, ok := Infer("last week", fixedNow)
		require.True(t, ok)

		reply, err := e.Answer(context.Background(), uuid.New(), Intent{Kind: IntentCountCategory, Category: "Dining"}, &rng, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "You went for Dining 3 time(s) last week.", reply.Reply)
	})
}

func TestInsights_SumsIgnoreIncome(t *testing.T) {
	e := NewInsights(sampleLedger(), fixedBudget(0), "USD")
	rng, ok := Infer("this month", fixedNow)
	require.True(t, ok)

	t.Run("category", func(t *testing.T) {
		reply, err := e.Answer(context.Background(), uuid.New(), Intent{Kind: IntentSumCategory, Category: "Dining"}, &rng, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "You spent $42.50 on Dining this month.", reply.Reply)
	})

	t.Run("total", func(t *testing.T) {
		reply, err := e.Answer(context.Background(), uuid.New(), Intent{Kind: IntentSumTotal}, &rng, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "You spent $87.50 in total this month.", reply.Reply)
	})

	t.Run("total all time", func(t *testing.T) {
		reply, err := e.Answer(context.Background(), uuid.New(), Intent{Kind: IntentSumTotal}, nil, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "You spent $107.50 in total all time.", reply.Reply)
	})
}

func TestComputeSurvivability(t *testing.T) {
	// October has 31 days; the 15th leaves 16.
	s := ComputeSurvivability(100000, 36000, fixedNow)
	assert.Equal(t, 16, s.DaysLeft)
	assert.Equal(t, int64(4000), s.NeededPerDay)
	assert.True(t, s.CanSurvive)

	over := ComputeSurvivability(10000, 12000, fixedNow)
	assert.False(t, over.CanSurvive)
	assert.Zero(t, over.NeededPerDay)

	lastDay := ComputeSurvivability(10000, 5000, time.Date(2025, time.October, 31, 12, 0, 0, 0, time.UTC))
	assert.Zero(t, lastDay.DaysLeft)
	assert.Zero(t, lastDay.NeededPerDay)
	assert.True(t, lastDay.CanSurvive)

	noBudget := ComputeSurvivability(0, 0, fixedNow)
	assert.False(t, noBudget.CanSurvive)
}

func TestInsights_Survivability(t *testing.T) {
	intent := Intent{Kind: IntentBudgetSurvivability}

	t.Run("no budget reports spend only", func(t *testing.T) {
		for _, spent := range []int64{0, 1, 99999} {
			ledger := &memLedger{rows: []transactions.Transaction{}}
			if spent > 0 {
				ledger.rows = append(ledger.rows, tx(transactions.TypeExpense, spent, "Dining", fixedNow))
			}
			reply, err := NewInsights(ledger, fixedBudget(0), "USD").Answer(context.Background(), uuid.New(), intent, nil, fixedNow)
			require.NoError(t, err)
			assert.Contains(t, reply.Reply, "haven't set a budget")
		}
	})

	t.Run("ignores inferred range", func(t *testing.T) {
		ledger := sampleLedger()
		rng, ok := Infer("yesterday", fixedNow)
		require.True(t, ok)

		reply, err := NewInsights(ledger, fixedBudget(100000), "USD").Answer(context.Background(), uuid.New(), intent, &rng, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "Yes, you can make it: you've spent $87.50 of your $1,000.00 budget. Keep it under $57.03 per day for the remaining 16 days.", reply.Reply)

		last := ledger.filters[len(ledger.filters)-1]
		assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), *last.From)
	})

	t.Run("over budget", func(t *testing.T) {
		reply, err := NewInsights(sampleLedger(), fixedBudget(5000), "USD").Answer(context.Background(), uuid.New(), intent, nil, fixedNow)
		require.NoError(t, err)
		assert.Contains(t, reply.Reply, "over budget")
		assert.Contains(t, reply.Reply, "$37.50 over")
	})
}

func TestInsights_Recommendations(t *testing.T) {
	intent := Intent{Kind: IntentRecommendations}

	t.Run("always includes generic tips", func(t *testing.T) {
		reply, err := NewInsights(&memLedger{}, fixedBudget(0), "USD").Answer(context.Background(), uuid.New(), intent, nil, fixedNow)
		require.NoError(t, err)
		assert.Contains(t, reply.Reply, tipCategoryReview)
		assert.Contains(t, reply.Reply, tipDeferPurchase)
		assert.NotContains(t, reply.Reply, "averaging")
	})

	t.Run("adds budget target and average", func(t *testing.T) {
		reply, err := NewInsights(sampleLedger(), fixedBudget(100000), "USD").Answer(context.Background(), uuid.New(), intent, nil, fixedNow)
		require.NoError(t, err)
		assert.Contains(t, reply.Reply, "at most $57.03 per day")
		assert.Contains(t, reply.Reply, "averaging $5.83 per day")
		assert.Contains(t, reply.Reply, tipDeferPurchase)
	})
}

func TestInsights_NoneIsAnError(t *testing.T) {
	_, err := NewInsights(&memLedger{}, fixedBudget(0), "USD").Answer(context.Background(), uuid.New(), Intent{}, nil, fixedNow)
	assert.Error(t, err)
}
