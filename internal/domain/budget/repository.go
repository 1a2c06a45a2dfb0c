// Package budget stores the user's monthly spending budget and reports
// progress against it for the current calendar month.
package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/pocket-ledger/pkg/db"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNegativeBudget = errors.New("monthly budget must not be negative")
)

// Store reads and writes the budget column on users.
type Store interface {
	GetMonthlyBudget(ctx context.Context, userID uuid.UUID) (int64, error)
	SetMonthlyBudget(ctx context.Context, userID uuid.UUID, minor int64) (int64, error)
}

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

var _ Store = (*Repository)(nil)

// GetMonthlyBudget returns the budget in minor units; 0 means not set.
func (r *Repository) GetMonthlyBudget(ctx context.Context, userID uuid.UUID) (int64, error) {
	var minor int64
	err := r.db.QueryRow(ctx,
		`SELECT monthly_budget_minor FROM users WHERE id = $1`, userID,
	).Scan(&minor)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get monthly budget: %w", err)
	}
	return minor, nil
}

func (r *Repository) SetMonthlyBudget(ctx context.Context, userID uuid.UUID, minor int64) (int64, error) {
	if minor < 0 {
		return 0, ErrNegativeBudget
	}

	var stored int64
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET monthly_budget_minor = $2, updated_at = now()
		WHERE id = $1
		RETURNING monthly_budget_minor`,
		userID, minor,
	).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to set monthly budget: %w", err)
	}
	return stored, nil
}
