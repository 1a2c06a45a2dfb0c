package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/ai"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

var (
	// ErrAIUnavailable means no model is configured; it is never retried.
	ErrAIUnavailable = errors.New("AI assistant is not configured")
	// ErrAIFailed wraps any model failure left after the overload retry.
	ErrAIFailed = errors.New("AI assistant request failed")
)

const (
	recentWindow        = 7 * 24 * time.Hour
	maxRecentTxns       = 100
	maxRangeTxns        = 20
	defaultRetryDelay   = time.Second
	resolverTracerScope = "github.com/FACorreiaa/pocket-ledger/internal/domain/chat"
)

const preamble = `You are a personal finance assistant inside a budgeting app.
Rules:
- Answer ONLY from the data provided below. If the data does not contain the answer, say so.
- Be concise: two or three sentences at most.
- Dates: "today", "yesterday", "last week" and similar phrases are relative to the current time given below. Treat the inferred date range, when present, as authoritative.
- When listing transactions, include at most 10 of them.
- If an inferred date range is provided, answer the question directly for that range. Otherwise, if the question depends on a period that is not clear, ask ONE short clarifying question instead of guessing.
- Respond ONLY with a JSON object of the form {"reply": string, "transactions": [{"date": "YYYY-MM-DD", "category": string, "description": string, "amount": number}] | null}. No markdown, no extra text.`

// Resolver answers free-form questions with the external model.
type Resolver struct {
	gen      ai.Generator
	ledger   Ledger
	budgets  BudgetReader
	currency string
	logger   *slog.Logger

	// RetryDelay is the pause before the single retry after an overload.
	RetryDelay time.Duration
}

// NewResolver returns a resolver. gen may be nil, in which case every call
// fails with ErrAIUnavailable.
func NewResolver(gen ai.Generator, ledger Ledger, budgets BudgetReader, currency string, logger *slog.Logger) *Resolver {
	return &Resolver{
		gen:        gen,
		ledger:     ledger,
		budgets:    budgets,
		currency:   currency,
		logger:     logger,
		RetryDelay: defaultRetryDelay,
	}
}

// Resolve builds the prompt for message, calls the model and decodes its answer.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, message string, rng *DateRange, now time.Time) (*Reply, error) {
	if r.gen == nil {
		metrics.AIRequests.WithLabelValues("chat", "unavailable").Inc()
		return nil, ErrAIUnavailable
	}

	ctx, span := otel.Tracer(resolverTracerScope).Start(ctx, "chat.Resolve")
	defer span.End()
	span.SetAttributes(attribute.Bool("chat.range_inferred", rng != nil))

	prompt, err := r.BuildPrompt(ctx, userID, message, rng, now)
	if err != nil {
		return nil, err
	}

	raw, err := r.generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return ParseReply(raw), nil
}

// generate calls the model, retrying exactly once when it reports an overload.
func (r *Resolver) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := r.gen.Generate(ctx, prompt)
	if errors.Is(err, ai.ErrOverloaded) {
		metrics.AIRequests.WithLabelValues("chat", "overloaded").Inc()
		r.logger.Warn("model overloaded, retrying once", slog.Duration("delay", r.RetryDelay))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.RetryDelay):
		}
		raw, err = r.gen.Generate(ctx, prompt)
	}
	if err != nil {
		metrics.AIRequests.WithLabelValues("chat", "error").Inc()
		return "", fmt.Errorf("%w: %w", ErrAIFailed, err)
	}

	metrics.AIRequests.WithLabelValues("chat", "ok").Inc()
	return raw, nil
}

type aiTransaction struct {
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type aiReply struct {
	Reply        string          `json:"reply"`
	Transactions []aiTransaction `json:"transactions"`
}

// ParseReply decodes the model's {reply, transactions} object after removing
// code fences. Anything that does not decode becomes the reply text as-is.
func ParseReply(raw string) *Reply {
	var out aiReply
	if err := json.Unmarshal([]byte(ai.StripCodeFences(raw)), &out); err != nil || strings.TrimSpace(out.Reply) == "" {
		return &Reply{Reply: raw}
	}

	reply := &Reply{Reply: out.Reply}
	if out.Transactions != nil {
		reply.Transactions = make([]ReplyTransaction, 0, len(out.Transactions))
		for _, t := range out.Transactions {
			reply.Transactions = append(reply.Transactions, ReplyTransaction{
				Date:        t.Date,
				Category:    t.Category,
				Description: t.Description,
				Amount:      t.Amount.InexactFloat64(),
			})
		}
	}
	return reply
}

type aggregate struct {
	Income     float64            `json:"income"`
	Expenses   float64            `json:"expenses"`
	Net        float64            `json:"net"`
	Count      int                `json:"count"`
	Categories map[string]float64 `json:"expensesByCategory"`
}

type projection struct {
	AverageDailySpend   float64 `json:"averageDailySpend"`
	ProjectedMonthSpend float64 `json:"projectedMonthSpend"`
	MonthlyBudget       float64 `json:"monthlyBudget"`
	ProjectedOverBudget bool    `json:"projectedOverBudget"`
	ProjectedDifference float64 `json:"projectedDifference"`
}

type contextTransaction struct {
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type promptContext struct {
	Currency           string               `json:"currency"`
	MonthToDate        aggregate            `json:"monthToDate"`
	AllTime            aggregate            `json:"allTime"`
	Projection         projection           `json:"projection"`
	RecentTransactions []contextTransaction `json:"recentTransactions"`
}

type rangeContext struct {
	Kind         RangeKind            `json:"kind"`
	Start        string               `json:"start"`
	End          string               `json:"end"`
	Totals       aggregate            `json:"totals"`
	Transactions []contextTransaction `json:"transactions"`
}

// BuildPrompt assembles the instructions, the user's financial context and,
// when a range was inferred, the data for that range.
func (r *Resolver) BuildPrompt(ctx context.Context, userID uuid.UUID, message string, rng *DateRange, now time.Time) (string, error) {
	monthStart, today := startOfMonth(now), endOfDay(now)

	mtd, err := r.aggregate(ctx, userID, transactions.Filter{}.Between(monthStart, today))
	if err != nil {
		return "", err
	}

	all, err := r.aggregate(ctx, userID, transactions.Filter{})
	if err != nil {
		return "", err
	}

	budget, err := r.budgets.GetMonthlyBudget(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load budget: %w", err)
	}

	recent, err := r.ledger.List(ctx, userID, transactions.Filter{Limit: maxRecentTxns}.Between(now.Add(-recentWindow), now))
	if err != nil {
		return "", fmt.Errorf("failed to load recent transactions: %w", err)
	}

	pc := promptContext{
		Currency:           r.currency,
		MonthToDate:        mtd,
		AllTime:            all,
		Projection:         r.project(mtd.Expenses, budget, now),
		RecentTransactions: r.contextRows(recent),
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\nCurrent time: ")
	b.WriteString(now.Format(time.RFC3339))
	b.WriteString("\n\nFinancial context:\n")
	if err := writeJSON(&b, pc); err != nil {
		return "", err
	}

	if rng != nil {
		rc, err := r.rangeContext(ctx, userID, *rng)
		if err != nil {
			return "", err
		}
		b.WriteString("\n\nInferred date range:\n")
		if err := writeJSON(&b, rc); err != nil {
			return "", err
		}
	}

	b.WriteString("\n\nUser question: ")
	b.WriteString(message)
	return b.String(), nil
}

func (r *Resolver) rangeContext(ctx context.Context, userID uuid.UUID, rng DateRange) (rangeContext, error) {
	f := transactions.Filter{}.Between(rng.Start, rng.End)

	totals, err := r.aggregate(ctx, userID, f)
	if err != nil {
		return rangeContext{}, err
	}

	f.Limit = maxRangeTxns
	rows, err := r.ledger.List(ctx, userID, f)
	if err != nil {
		return rangeContext{}, fmt.Errorf("failed to load range transactions: %w", err)
	}

	return rangeContext{
		Kind:         rng.Kind,
		Start:        rng.Start.Format(time.RFC3339),
		End:          rng.End.Format(time.RFC3339),
		Totals:       totals,
		Transactions: r.contextRows(rows),
	}, nil
}

func (r *Resolver) aggregate(ctx context.Context, userID uuid.UUID, f transactions.Filter) (aggregate, error) {
	totals, err := r.ledger.Totals(ctx, userID, f)
	if err != nil {
		return aggregate{}, fmt.Errorf("failed to load totals: %w", err)
	}

	cats, err := r.ledger.CategoryTotals(ctx, userID, f.Expenses())
	if err != nil {
		return aggregate{}, fmt.Errorf("failed to load category totals: %w", err)
	}

	out := aggregate{
		Income:     r.major(totals.IncomeMinor),
		Expenses:   r.major(totals.ExpenseMinor),
		Net:        r.major(totals.NetMinor()),
		Count:      totals.Count,
		Categories: make(map[string]float64, len(cats)),
	}
	for _, c := range cats {
		out.Categories[c.Category] = r.major(c.AmountMinor)
	}
	return out, nil
}

func (r *Resolver) project(expenses float64, budget int64, now time.Time) projection {
	avg := decimal.NewFromFloat(expenses).Div(decimal.NewFromInt(int64(now.Day())))
	projected := avg.Mul(decimal.NewFromInt(int64(daysInMonth(now))))
	budgetMajor := money.FromMinor(budget, r.currency)

	return projection{
		AverageDailySpend:   avg.Round(2).InexactFloat64(),
		ProjectedMonthSpend: projected.Round(2).InexactFloat64(),
		MonthlyBudget:       budgetMajor.InexactFloat64(),
		ProjectedOverBudget: budget > 0 && projected.GreaterThan(budgetMajor),
		ProjectedDifference: budgetMajor.Sub(projected).Round(2).InexactFloat64(),
	}
}

func (r *Resolver) contextRows(rows []transactions.Transaction) []contextTransaction {
	out := make([]contextTransaction, 0, len(rows))
	for _, t := range rows {
		out = append(out, contextTransaction{
			Date:        t.Date.Format("2006-01-02"),
			Type:        string(t.Type),
			Category:    t.Category,
			Description: t.Description,
			Amount:      r.major(t.AmountMinor),
		})
	}
	return out
}

func (r *Resolver) major(minor int64) float64 {
	return money.New(minor, r.currency).ToFloat64()
}

func writeJSON(b *strings.Builder, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode prompt context: %w", err)
	}
	b.Write(data)
	return nil
}
