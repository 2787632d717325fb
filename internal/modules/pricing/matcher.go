package pricing

import (
	"sort"

	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

type compiledRule struct {
	rule     PricingRule
	entities stringSet
}

// SortRules returns a copy of rules ordered by priority ascending, then
// creation time descending, then id ascending.
func SortRules(rules []PricingRule) []PricingRule {
	sorted := make([]PricingRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return sorted
}

// MatchRules computes, for each product, the enabled rules whose scope
// includes it. Candidates are sorted once and filtered per product, so every
// match list shares the same order. Disabled rules never match.
func MatchRules(products []catalog.Product, rules []PricingRule) []MatchResult {
	results := make([]MatchResult, 0, len(products))
	if len(products) == 0 {
		return results
	}

	candidates := make([]compiledRule, 0, len(rules))
	for _, r := range SortRules(rules) {
		if !r.Status {
			continue
		}
		candidates = append(candidates, compiledRule{rule: r, entities: ruleEntities(r)})
	}

	for _, p := range products {
		tags := productTags(p)
		collections := productCollections(p)
		matched := []PricingRule{}
		for _, c := range candidates {
			if c.matches(p, tags, collections) {
				matched = append(matched, c.rule)
			}
		}
		results = append(results, MatchResult{Product: p, Rules: matched})
	}
	return results
}

// Matches reports whether an enabled rule applies to a single product.
func Matches(rule PricingRule, product catalog.Product) bool {
	if !rule.Status {
		return false
	}
	c := compiledRule{rule: rule, entities: ruleEntities(rule)}
	return c.matches(product, productTags(product), productCollections(product))
}

func (c compiledRule) matches(p catalog.Product, tags, collections stringSet) bool {
	switch c.rule.ApplicationType {
	case ApplyAll:
		return true
	case ApplyTags:
		return c.entities.intersects(tags)
	case ApplyCollections:
		return c.entities.intersects(collections)
	case ApplySpecificProducts:
		return c.entities.has(p.ID)
	}
	return false
}
