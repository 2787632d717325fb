package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

// ApplicationType decides which products a rule targets.
type ApplicationType string

const (
	ApplyAll              ApplicationType = "all"
	ApplySpecificProducts ApplicationType = "specific_products"
	ApplyCollections      ApplicationType = "collections"
	ApplyTags             ApplicationType = "tags"
)

func (t ApplicationType) Valid() bool {
	switch t {
	case ApplyAll, ApplySpecificProducts, ApplyCollections, ApplyTags:
		return true
	}
	return false
}

// Scoped reports whether the type needs at least one rule application.
func (t ApplicationType) Scoped() bool {
	return t == ApplySpecificProducts || t == ApplyCollections || t == ApplyTags
}

// CustomPriceType is the transform a rule applies to a variant price.
type CustomPriceType string

const (
	PriceFixed              CustomPriceType = "fixed"
	PriceDecreaseAmount     CustomPriceType = "decrease_amount"
	PriceDecreasePercentage CustomPriceType = "decrease_percentage"
)

func (t CustomPriceType) Valid() bool {
	switch t {
	case PriceFixed, PriceDecreaseAmount, PriceDecreasePercentage:
		return true
	}
	return false
}

// PricingRule is a merchant-defined discount policy for one shop.
type PricingRule struct {
	ID               uuid.UUID         `json:"id"`
	Shop             string            `json:"shop"`
	Name             string            `json:"name"`
	Priority         int               `json:"priority"` // 0 is the highest priority
	Status           bool              `json:"status"`
	ApplicationType  ApplicationType   `json:"application_type"`
	CustomPriceType  CustomPriceType   `json:"custom_price_type"`
	CustomPriceValue decimal.Decimal   `json:"custom_price_value"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	RuleApplications []RuleApplication `json:"rule_applications"`
}

// RuleApplication scopes a rule to one product id, collection id or tag.
type RuleApplication struct {
	ID            uuid.UUID       `json:"id"`
	PricingRuleID uuid.UUID       `json:"pricing_rule_id"`
	EntityType    ApplicationType `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
}

// MatchResult lists the enabled rules that apply to one product, best first.
type MatchResult struct {
	Product catalog.Product `json:"product"`
	Rules   []PricingRule   `json:"rules"`
}

// PriceBreakdown is the outcome of applying one rule to one price.
// Savings is negative when a fixed price is above the original.
type PriceBreakdown struct {
	Original decimal.Decimal `json:"original"`
	Final    decimal.Decimal `json:"final"`
	Savings  decimal.Decimal `json:"savings"`
}

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateRuleRequest is the rule form submission.
type CreateRuleRequest struct {
	Name               string   `json:"name"`
	Priority           *int     `json:"priority"`
	Status             string   `json:"status"` // "enable" or "disable"
	AppliedProductType string   `json:"applied_product_type"`
	PriceType          string   `json:"price_type"`
	Amount             any      `json:"amount"` // number or numeric string
	SelectedIDs        []string `json:"selected_ids"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type RulePageInfo struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

type RulePage struct {
	Rules    []RuleView   `json:"rules"`
	PageInfo RulePageInfo `json:"page_info"`
}

// RuleView is a PricingRule plus its display labels.
type RuleView struct {
	PricingRule
	ApplicationLabel string `json:"application_label"`
	PriceTypeLabel   string `json:"price_type_label"`
	ValueLabel       string `json:"value_label"`
	Description      string `json:"description"`
}

// VariantPrice is one variant row of a priced product.
type VariantPrice struct {
	catalog.Variant
	Breakdown    *PriceBreakdown `json:"breakdown,omitempty"`
	SavingsLabel string          `json:"savings_label,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// PricedProduct is a product with its matched rules and per-variant prices.
type PricedProduct struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	ImageURL    string               `json:"image_url,omitempty"`
	Tags        []string             `json:"tags"`
	Collections []catalog.Collection `json:"collections"`
	Rules       []RuleView           `json:"rules"`
	ActiveRule  *RuleView            `json:"active_rule,omitempty"`
	Variants    []VariantPrice       `json:"variants"`
}

type PricedPage struct {
	Products []PricedProduct  `json:"products"`
	PageInfo catalog.PageInfo `json:"page_info"`
}
