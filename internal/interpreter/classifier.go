// internal/interpreter/classifier.go
package interpreter

import (
	"regexp"
	"strings"

	"sales-assistant/internal/models"
)

// Rule pairs an intent with the predicate that selects it.
type Rule struct {
	Intent models.Intent
	Match  func(text string) bool
}

var standaloneIn = regexp.MustCompile(`\sin\s`)

// DefaultRules returns the rule list in priority order. Country-scoped rules come before
// the bare revenue rule so "sales in france" is not read as total revenue. The slice is
// a fresh copy on every call.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent: models.IntentRevenueByCountry,
			Match: func(text string) bool {
				return strings.Contains(text, "by country") ||
					(strings.Contains(text, "breakdown") && strings.Contains(text, "country"))
			},
		},
		{
			Intent: models.IntentRevenueInCountry,
			Match: func(text string) bool {
				return standaloneIn.MatchString(text) && containsAny(text, "sales", "revenue")
			},
		},
		{
			Intent: models.IntentTotalRevenue,
			Match: func(text string) bool {
				return containsAny(text, "revenue", "sales", "how much")
			},
		},
		{
			Intent: models.IntentTopCustomers,
			Match: func(text string) bool {
				return strings.Contains(text, "customer")
			},
		},
		{
			Intent: models.IntentTopProducts,
			Match: func(text string) bool {
				return containsAny(text, "product", "item", "best selling")
			},
		},
	}
}

// Classifier scans its rules in order and returns the first matching intent.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify expects normalized text and returns IntentUnrecognized when no rule matches.
func (c *Classifier) Classify(text string) models.Intent {
	for _, r := range c.rules {
		if r.Match(text) {
			return r.Intent
		}
	}
	return models.IntentUnrecognized
}

// Normalize trims and lower-cases a question before classification.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
