package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/pkg/db"
)

const defaultListLimit = 500

// Store is the persistence contract used by the services in this module.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, in NewTransaction) (*Transaction, error)
	CreateBatch(ctx context.Context, userID uuid.UUID, in []NewTransaction) ([]Transaction, error)
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error)
	Count(ctx context.Context, userID uuid.UUID, f Filter) (int, error)
	Sum(ctx context.Context, userID uuid.UUID, f Filter) (int64, error)
	Totals(ctx context.Context, userID uuid.UUID, f Filter) (Totals, error)
	CategoryTotals(ctx context.Context, userID uuid.UUID, f Filter) ([]CategoryTotal, error)
}

// Ensure Repository implements Store
var _ Store = (*Repository)(nil)

// Repository is the PostgreSQL Store.
type Repository struct {
	db db.Querier
}

// NewRepository creates a new transactions repository
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

const insertTransaction = `
	INSERT INTO transactions (id, user_id, type, amount_minor, category, description, occurred_at, source)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at`

// Create inserts a single transaction.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, in NewTransaction) (*Transaction, error) {
	tx := newRow(userID, in)
	err := r.db.QueryRow(ctx, insertTransaction,
		tx.ID, tx.UserID, tx.Type, tx.AmountMinor, tx.Category, tx.Description, tx.Date, tx.Source,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &tx, nil
}

// CreateBatch inserts every row inside one database transaction: all rows are
// committed together or none are.
func (r *Repository) CreateBatch(ctx context.Context, userID uuid.UUID, in []NewTransaction) ([]Transaction, error) {
	if len(in) == 0 {
		return nil, ErrEmptyBatch
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	out := make([]Transaction, 0, len(in))
	for i, n := range in {
		row := newRow(userID, n)
		err := tx.QueryRow(ctx, insertTransaction,
			row.ID, row.UserID, row.Type, row.AmountMinor, row.Category, row.Description, row.Date, row.Source,
		).Scan(&row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}
		out = append(out, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return out, nil
}

// List returns matching transactions, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	where, args := buildWhere(userID, f)

	limit := f.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	args = append(args, limit)

	query := `
		SELECT id, user_id, type, amount_minor, category, description, occurred_at, source, created_at
		FROM transactions
		` + where + `
		ORDER BY occurred_at DESC, created_at DESC, id DESC
		LIMIT $` + fmt.Sprint(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.AmountMinor, &t.Category, &t.Description, &t.Date, &t.Source, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns the number of matching transactions.
func (r *Repository) Count(ctx context.Context, userID uuid.UUID, f Filter) (int, error) {
	where, args := buildWhere(userID, f)

	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// Sum returns the total amount of matching transactions in minor units.
func (r *Repository) Sum(ctx context.Context, userID uuid.UUID, f Filter) (int64, error) {
	where, args := buildWhere(userID, f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount_minor), 0)::BIGINT FROM transactions `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// Totals returns income and expense sums plus the row count. f.Type is ignored.
func (r *Repository) Totals(ctx context.Context, userID uuid.UUID, f Filter) (Totals, error) {
	f.Type = ""
	where, args := buildWhere(userID, f)

	query := `
		SELECT
			COALESCE(SUM(amount_minor) FILTER (WHERE type = 'INCOME'), 0)::BIGINT,
			COALESCE(SUM(amount_minor) FILTER (WHERE type = 'EXPENSE'), 0)::BIGINT,
			COUNT(*)
		FROM transactions ` + where

	var t Totals
	if err := r.db.QueryRow(ctx, query, args...).Scan(&t.IncomeMinor, &t.ExpenseMinor, &t.Count); err != nil {
		return Totals{}, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	return t, nil
}

// CategoryTotals groups matching transactions by category, largest first.
func (r *Repository) CategoryTotals(ctx context.Context, userID uuid.UUID, f Filter) ([]CategoryTotal, error) {
	where, args := buildWhere(userID, f)

	query := `
		SELECT category, COALESCE(SUM(amount_minor), 0)::BIGINT AS total, COUNT(*)
		FROM transactions ` + where + `
		GROUP BY category
		ORDER BY total DESC, category`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group transactions: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Category, &c.AmountMinor, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func newRow(userID uuid.UUID, in NewTransaction) Transaction {
	source := in.Source
	if source == "" {
		source = SourceManual
	}
	return Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        in.Type,
		AmountMinor: in.AmountMinor,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Source:      source,
	}
}

// buildWhere renders the WHERE clause for f; $1 is always the user id.
func buildWhere(userID uuid.UUID, f Filter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Category != "" {
		add("lower(category) = lower($%d)", f.Category)
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at <= $%d", *f.To)
	}
	if f.After != nil {
		args = append(args, f.After.Date, f.After.CreatedAt, f.After.ID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(occurred_at, created_at, id) < ($%d, $%d, $%d)", n-2, n-1, n))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}
