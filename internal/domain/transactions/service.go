package transactions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// CreateInput is a manual entry as submitted by the user.
type CreateInput struct {
	Type        string
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        *time.Time
}

// Summary is the dashboard view of a period.
type Summary struct {
	Totals     Totals
	Categories []CategoryTotal
}

// Service coordinates manual entry and read models over the Store.
type Service struct {
	store    Store
	quick    *QuickParser
	currency string
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a new transactions service
func NewService(store Store, currency string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		quick:    NewQuickParser(),
		currency: currency,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock overrides the wall clock used for default dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Currency returns the ISO code amounts are denominated in.
func (s *Service) Currency() string {
	return s.currency
}

// Location is the zone of the service clock; date-only inputs are midnight there.
func (s *Service) Location() *time.Location {
	return s.now().Location()
}

// Create validates a manual entry and stores it. A missing date means now.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Transaction, error) {
	verr := &httpx.ValidationError{}

	txType, ok := ParseType(in.Type)
	if !ok {
		verr.Add("type", ErrInvalidType.Error())
	}

	minor, err := money.ToMinor(in.Amount, s.currency)
	switch {
	case err != nil:
		verr.Add("amount", err.Error())
	case minor <= 0:
		verr.Add("amount", ErrInvalidAmount.Error())
	}

	if strings.TrimSpace(in.Category) == "" {
		verr.Add("category", ErrInvalidCategory.Error())
	}

	if verr.HasErrors() {
		return nil, verr
	}

	date := s.now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}

	tx, err := s.store.Create(ctx, userID, NewTransaction{
		Type:        txType,
		AmountMinor: minor,
		Category:    in.Category,
		Description: in.Description,
		Date:        date,
		Source:      SourceManual,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		slog.String("user_id", userID.String()),
		slog.String("type", string(tx.Type)),
		slog.Int64("amount_minor", tx.AmountMinor),
	)
	return tx, nil
}

// QuickCreate parses a one-line note like "Coffee 4.50" and stores it dated now.
func (s *Service) QuickCreate(ctx context.Context, userID uuid.UUID, text string) (*Transaction, error) {
	entry, ok := s.quick.Parse(text)
	if !ok {
		return nil, httpx.NewValidationError("text", "no amount found")
	}

	return s.Create(ctx, userID, CreateInput{
		Type:        string(entry.Type),
		Amount:      entry.Amount,
		Category:    entry.Category,
		Description: entry.Description,
	})
}

// List returns the user's transactions matching f.
func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, httpx.NewValidationError("from", "must not be after to")
	}
	return s.store.List(ctx, userID, f)
}

// Summary aggregates the period in f: totals over all rows, categories over expenses.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID, f Filter) (*Summary, error) {
	totals, err := s.store.Totals(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	categories, err := s.store.CategoryTotals(ctx, userID, f.Expenses())
	if err != nil {
		return nil, fmt.Errorf("failed to load category totals: %w", err)
	}

	return &Summary{Totals: totals, Categories: categories}, nil
}
