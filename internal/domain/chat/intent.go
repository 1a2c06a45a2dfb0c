package chat

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
)

// IntentKind enumerates the questions the local engine can answer.
// IntentNone is the zero value and routes the message to the AI fallback.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentCountCategory
	IntentSumCategory
	IntentSumTotal
	IntentBudgetSurvivability
	IntentRecommendations
)

func (k IntentKind) String() string {
	switch k {
	case IntentCountCategory:
		return "count_category"
	case IntentSumCategory:
		return "sum_category"
	case IntentSumTotal:
		return "sum_total"
	case IntentBudgetSurvivability:
		return "budget_survivability"
	case IntentRecommendations:
		return "recommendations"
	default:
		return "none"
	}
}

// Intent is a classified chat message. Category is set only for
// IntentCountCategory and IntentSumCategory.
type Intent struct {
	Kind     IntentKind
	Category string
}

var (
	countPattern          = regexp.MustCompile(`how many times`)
	sumPattern            = regexp.MustCompile(`how much did i spend`)
	survivabilityPattern  = regexp.MustCompile(`survive|within my budget|under budget|over budget|can i make it this month`)
	recommendationPattern = regexp.MustCompile(`recommend|suggest|advice|how to save|tips`)
)

// Classifier recognises the fixed set of local intents.
type Classifier struct {
	aliases *categorization.Engine
}

// NewClassifier builds a classifier over an ordered alias table.
func NewClassifier(aliases []categorization.Rule) *Classifier {
	return &Classifier{aliases: categorization.NewEngine(aliases)}
}

// Classify checks, in order: category counts, spend sums, budget survivability
// and recommendations. Anything else is IntentNone.
func (c *Classifier) Classify(message string) Intent {
	lower := strings.ToLower(message)

	if countPattern.MatchString(lower) {
		if rule, ok := c.aliases.Match(lower); ok {
			return Intent{Kind: IntentCountCategory, Category: rule.Category}
		}
	}

	if sumPattern.MatchString(lower) {
		if rule, ok := c.aliases.Match(lower); ok {
			return Intent{Kind: IntentSumCategory, Category: rule.Category}
		}
		return Intent{Kind: IntentSumTotal}
	}

	if survivabilityPattern.MatchString(lower) {
		return Intent{Kind: IntentBudgetSurvivability}
	}

	if recommendationPattern.MatchString(lower) {
		return Intent{Kind: IntentRecommendations}
	}

	return Intent{Kind: IntentNone}
}
