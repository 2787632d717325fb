package pricing

import (
	"context"
	"errors"
)

var ErrRuleNotFound = errors.New("pricing rule not found")

// Repository stores pricing rules and their applications.
type Repository interface {
	// CreateRule persists the rule and its applications atomically.
	CreateRule(ctx context.Context, rule *PricingRule) error
	ListEnabledRules(ctx context.Context, shop string) ([]PricingRule, error)
	// ListRulesPage returns one page of rules, newest first, and the shop's rule count.
	ListRulesPage(ctx context.Context, shop string, page, limit int) ([]PricingRule, int, error)
	GetRuleByID(ctx context.Context, shop, id string) (*PricingRule, error)
}
