package pricing

import (
	"strings"

	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	set := make(stringSet, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func (s stringSet) has(v string) bool {
	_, ok := s[strings.TrimSpace(v)]
	return ok
}

func (s stringSet) intersects(other stringSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for v := range small {
		if _, ok := large[v]; ok {
			return true
		}
	}
	return false
}

// productTags returns the product's tags as a set. Tags are case-folded so
// matching agrees with the storefront's case-insensitive tag search.
func productTags(p catalog.Product) stringSet {
	return newStringSet(foldTags(p.Tags))
}

func foldTags(tags []string) []string {
	folded := make([]string, len(tags))
	for i, t := range tags {
		folded[i] = strings.ToLower(t)
	}
	return folded
}

func productCollections(p catalog.Product) stringSet {
	ids := make([]string, 0, len(p.Collections))
	for _, c := range p.Collections {
		ids = append(ids, c.ID)
	}
	return newStringSet(ids)
}

// ruleEntities collects the entity ids of applications whose type equals the
// rule's own application type. Mismatched applications are ignored.
func ruleEntities(r PricingRule) stringSet {
	ids := make([]string, 0, len(r.RuleApplications))
	for _, a := range r.RuleApplications {
		if a.EntityType == r.ApplicationType {
			ids = append(ids, a.EntityID)
		}
	}
	if r.ApplicationType == ApplyTags {
		ids = foldTags(ids)
	}
	return newStringSet(ids)
}

// EntityIDs lists a rule's scope values in stored order.
func EntityIDs(r PricingRule) []string {
	var ids []string
	for _, a := range r.RuleApplications {
		if a.EntityType == r.ApplicationType && strings.TrimSpace(a.EntityID) != "" {
			ids = append(ids, strings.TrimSpace(a.EntityID))
		}
	}
	return ids
}
