package categorization

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxFuzzyDistance bounds how many extra characters a fuzzy hit may carry.
const maxFuzzyDistance = 8

// Normalizer snaps loosely written category names ("dining out", "grocer")
// onto a fixed list of canonical names. Unrecognised names pass through trimmed.
type Normalizer struct {
	categories []string
}

// NewNormalizer creates a normalizer over the given canonical names.
func NewNormalizer(categories []string) *Normalizer {
	return &Normalizer{categories: categories}
}

// Normalize returns the canonical spelling for raw, or raw itself.
// An empty name becomes Uncategorized.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.Join(strings.Fields(raw), " ")
	if raw == "" {
		return Uncategorized
	}

	for _, c := range n.categories {
		if strings.EqualFold(c, raw) {
			return c
		}
	}

	// raw is an abbreviation of a canonical name.
	if len(raw) >= 3 {
		ranks := fuzzy.RankFindNormalizedFold(raw, n.categories)
		if len(ranks) > 0 {
			sort.Sort(ranks)
			if ranks[0].Distance <= maxFuzzyDistance {
				return ranks[0].Target
			}
		}
	}

	// raw is a longer phrase containing a canonical name; prefer the longest.
	lower := strings.ToLower(raw)
	best := ""
	for _, c := range n.categories {
		if c != Uncategorized && strings.Contains(lower, strings.ToLower(c)) && len(c) > len(best) {
			best = c
		}
	}
	if best != "" {
		return best
	}

	return raw
}
