package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/common"
	"github.com/FACorreiaa/pocket-ledger/pkg/db"
)

const uniqueViolation = "23505"

// User is an account row.
type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	HashedPassword string
	CreatedAt      time.Time
}

// AuthRepository persists accounts.
type AuthRepository interface {
	CreateUser(ctx context.Context, email, name, hashedPassword string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type PostgresAuthRepository struct {
	db db.Querier
}

func NewPostgresAuthRepository(q db.Querier) *PostgresAuthRepository {
	return &PostgresAuthRepository{db: q}
}

var _ AuthRepository = (*PostgresAuthRepository)(nil)

// CreateUser inserts a new account. Emails are stored lower-cased.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, name, hashedPassword string) (*User, error) {
	u := &User{
		ID:             uuid.New(),
		Email:          normalizeEmail(email),
		Name:           strings.TrimSpace(name),
		HashedPassword: hashedPassword,
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Email, u.Name, u.HashedPassword,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `WHERE email = $1`, normalizeEmail(email))
}

func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *PostgresAuthRepository) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &u.HashedPassword, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
