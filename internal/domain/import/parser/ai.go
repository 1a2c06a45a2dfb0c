package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/ai"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// ErrMalformedAIOutput means the model's answer held no JSON array of transactions.
var ErrMalformedAIOutput = errors.New("model response is not a transaction list")

const extractionPrompt = `Extract every financial transaction from the document text below.
Respond ONLY with a JSON array, no markdown and no commentary. Each element must have exactly these fields:
  "date": "YYYY-MM-DD" (use the date printed on the document; omit if unknown),
  "description": short merchant or item description,
  "category": one of %s,
  "amount": positive number without currency symbols,
  "type": "EXPENSE" or "INCOME".
For a purchase receipt, return a single EXPENSE for the total paid unless the items are clearly separate purchases.
Return [] if there are no transactions.

Document text:
`

var aiDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// AIExtractor asks the model for structured candidates and coerces every
// field instead of rejecting the batch.
type AIExtractor struct {
	gen        ai.Generator
	categories *categorization.Normalizer
	names      []string
}

func NewAIExtractor(gen ai.Generator, categories []string) *AIExtractor {
	return &AIExtractor{
		gen:        gen,
		categories: categorization.NewNormalizer(categories),
		names:      categories,
	}
}

// Prompt renders the extraction instructions for text.
func (x *AIExtractor) Prompt(text string) string {
	quoted := make([]string, 0, len(x.names))
	for _, n := range x.names {
		quoted = append(quoted, `"`+n+`"`)
	}
	return fmt.Sprintf(extractionPrompt, strings.Join(quoted, ", ")) + text
}

// Extract calls the model once and decodes its answer.
func (x *AIExtractor) Extract(ctx context.Context, text string, now time.Time) ([]Candidate, error) {
	raw, err := x.gen.Generate(ctx, x.Prompt(text))
	if err != nil {
		return nil, err
	}
	return x.Decode(raw, now)
}

// Decode parses a JSON array (optionally fenced, or wrapped as {"transactions": [...]}).
func (x *AIExtractor) Decode(raw string, now time.Time) ([]Candidate, error) {
	body := []byte(ai.StripCodeFences(raw))

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapped struct {
			Transactions []map[string]any `json:"transactions"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil || wrapped.Transactions == nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAIOutput, err)
		}
		items = wrapped.Transactions
	}

	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, x.coerce(item, now))
	}
	return out, nil
}

func (x *AIExtractor) coerce(item map[string]any, now time.Time) Candidate {
	return Candidate{
		Date:        coerceDate(item["date"], now),
		Description: cleanDescription(stringField(item["description"])),
		Category:    x.categories.Normalize(stringField(item["category"])),
		Amount:      coerceAmount(item["amount"]),
		Type:        coerceType(item["type"]),
	}
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// coerceDate falls back to now when the date is missing or unparseable.
func coerceDate(v any, now time.Time) time.Time {
	s := strings.TrimSpace(stringField(v))
	for _, layout := range aiDateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return now
}

// coerceAmount returns the absolute value, or zero when the amount is not a finite number.
func coerceAmount(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(t).Abs()
	case string:
		d, err := money.ParseLoose(t)
		if err != nil {
			return decimal.Zero
		}
		return d.Abs()
	default:
		return decimal.Zero
	}
}

func coerceType(v any) transactions.Type {
	if t, ok := transactions.ParseType(stringField(v)); ok {
		return t
	}
	return transactions.TypeExpense
}
