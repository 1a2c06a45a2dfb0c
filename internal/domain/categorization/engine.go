// Package categorization maps free text onto canonical spending categories.
package categorization

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Uncategorized is assigned when no keyword matches.
const Uncategorized = "Uncategorized"

// Rule pairs a lowercase keyword with the canonical category it implies.
type Rule struct {
	Keyword  string
	Category string
}

// Engine finds every keyword of an ordered rule table in a single Aho-Corasick
// pass and resolves ties by table position: the earliest rule wins, no matter
// where its keyword appears in the text.
//
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	matcher *ahocorasick.Matcher
	// rules[i] is the earliest rule for pattern i of the matcher.
	rules []indexedRule
}

type indexedRule struct {
	Rule
	position int
}

// NewEngine builds the matcher. Duplicate keywords keep their first rule.
func NewEngine(rules []Rule) *Engine {
	seen := make(map[string]bool, len(rules))
	patterns := make([][]byte, 0, len(rules))
	indexed := make([]indexedRule, 0, len(rules))

	for i, r := range rules {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true

		patterns = append(patterns, []byte(kw))
		indexed = append(indexed, indexedRule{Rule: Rule{Keyword: kw, Category: r.Category}, position: i})
	}

	e := &Engine{rules: indexed}
	if len(patterns) > 0 {
		e.matcher = ahocorasick.NewMatcher(patterns)
	}
	return e
}

// Match returns the category of the earliest matching rule.
func (e *Engine) Match(text string) (Rule, bool) {
	if e.matcher == nil {
		return Rule{}, false
	}

	hits := e.matcher.Match([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return Rule{}, false
	}

	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.rules) {
			continue
		}
		if best == -1 || e.rules[idx].position < e.rules[best].position {
			best = idx
		}
	}
	if best == -1 {
		return Rule{}, false
	}
	return e.rules[best].Rule, true
}

// Categorize returns the matched category or Uncategorized.
func (e *Engine) Categorize(text string) string {
	if r, ok := e.Match(text); ok {
		return r.Category
	}
	return Uncategorized
}
