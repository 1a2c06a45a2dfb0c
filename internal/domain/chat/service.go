// Package chat answers natural-language questions about a user's spending.
// Messages are scoped by an inferred date range, matched against a fixed set
// of intents answered locally, and otherwise handed to the external model.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
)

// Answerer resolves a classified intent locally.
type Answerer interface {
	Answer(ctx context.Context, userID uuid.UUID, intent Intent, rng *DateRange, now time.Time) (*Reply, error)
}

// Fallback resolves anything the local engine cannot.
type Fallback interface {
	Resolve(ctx context.Context, userID uuid.UUID, message string, rng *DateRange, now time.Time) (*Reply, error)
}

type Service struct {
	classifier *Classifier
	insights   Answerer
	fallback   Fallback
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(insights Answerer, fallback Fallback, logger *slog.Logger) *Service {
	return &Service{
		classifier: NewClassifier(categorization.ChatAliases),
		insights:   insights,
		fallback:   fallback,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the wall clock used for date inference and budgets.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ask answers message for userID.
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, httpx.NewValidationError("message", "is required")
	}

	now := s.now()

	var rng *DateRange
	if r, ok := Infer(message, now); ok {
		rng = &r
	}

	intent := s.classifier.Classify(message)
	metrics.ChatIntents.WithLabelValues(intent.Kind.String()).Inc()

	s.logger.Debug("chat message classified",
		slog.String("user_id", userID.String()),
		slog.String("intent", intent.Kind.String()),
		slog.String("range", RangeLabel(rng)),
	)

	if intent.Kind == IntentNone {
		return s.fallback.Resolve(ctx, userID, message, rng, now)
	}
	return s.insights.Answer(ctx, userID, intent, rng, now)
}
