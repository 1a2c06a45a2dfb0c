package transactions

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// quickAmount matches $1, 1$, €5, 5€, 10.50 USD, 10,50€. Group 2 is the number.
var quickAmount = regexp.MustCompile(`(?i)(?:(\$|€|£|eur|usd|gbp)\s*)?(\d+(?:[.,]\d{1,2})?)\s*(\$|€|£|eur|usd|gbp)?`)

// QuickEntry is a one-line capture such as "Coffee 4.50" or "+ salary 2500".
type QuickEntry struct {
	Type        Type
	Amount      decimal.Decimal
	Category    string
	Description string
}

// QuickParser turns a short free-text note into a transaction.
type QuickParser struct {
	keywords *categorization.Engine
}

func NewQuickParser() *QuickParser {
	return &QuickParser{keywords: categorization.NewEngine(categorization.ReceiptKeywords)}
}

// Parse takes the last number in text as the amount and the rest as the
// description. A leading '+' marks income. ok is false when no amount is found.
func (p *QuickParser) Parse(text string) (QuickEntry, bool) {
	text = strings.TrimSpace(text)
	entry := QuickEntry{Type: TypeExpense}

	if rest, found := strings.CutPrefix(text, "+"); found {
		entry.Type = TypeIncome
		text = strings.TrimSpace(rest)
	}

	matches := quickAmount.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return entry, false
	}
	m := matches[len(matches)-1]

	amount, err := money.ParseLoose(text[m[4]:m[5]])
	if err != nil || !amount.IsPositive() {
		return entry, false
	}
	entry.Amount = amount

	desc := strings.Join(strings.Fields(text[:m[0]]+" "+text[m[1]:]), " ")
	if desc != "" {
		desc = strings.ToUpper(desc[:1]) + desc[1:]
	}
	entry.Description = desc

	switch {
	case entry.Type == TypeIncome:
		entry.Category = "Income"
	default:
		entry.Category = p.keywords.Categorize(desc)
	}
	return entry, true
}
