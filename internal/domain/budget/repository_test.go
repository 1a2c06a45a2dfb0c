package budget_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/budget"
)

func TestRepository_GetMonthlyBudget(t *testing.T) {
	userID := uuid.New()

	t.Run("returns stored value", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT monthly_budget_minor FROM users").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"monthly_budget_minor"}).AddRow(int64(150000)))

		got, err := budget.NewRepository(mock).GetMonthlyBudget(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, int64(150000), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT monthly_budget_minor FROM users").
			WithArgs(userID).
			WillReturnError(pgx.ErrNoRows)

		_, err = budget.NewRepository(mock).GetMonthlyBudget(context.Background(), userID)
		assert.ErrorIs(t, err, budget.ErrUserNotFound)
	})
}

func TestRepository_SetMonthlyBudget(t *testing.T) {
	userID := uuid.New()

	t.Run("updates and returns the stored value", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("UPDATE users").
			WithArgs(userID, int64(200000)).
			WillReturnRows(pgxmock.NewRows([]string{"monthly_budget_minor"}).AddRow(int64(200000)))

		got, err := budget.NewRepository(mock).SetMonthlyBudget(context.Background(), userID, 200000)
		require.NoError(t, err)
		assert.Equal(t, int64(200000), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects negative without touching the database", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = budget.NewRepository(mock).SetMonthlyBudget(context.Background(), userID, -1)
		assert.ErrorIs(t, err, budget.ErrNegativeBudget)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
