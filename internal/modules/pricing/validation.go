package pricing

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrSelectionRequired = errors.New("at least one item must be selected")
)

const (
	MinPriority = 0
	MaxPriority = 100

	// amountScale and maxAmount follow the custom_price_value NUMERIC(14, 4) column.
	amountScale = 4
)

var maxAmount = decimal.New(1, 10)

// ValidationError carries one message per rejected form field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	if target == ErrSelectionRequired {
		_, ok := e.Fields["selected_ids"]
		return ok
	}
	return false
}

// validatedRule is a form submission that passed every check.
type validatedRule struct {
	name            string
	priority        int
	status          bool
	applicationType ApplicationType
	priceType       CustomPriceType
	amount          decimal.Decimal
	entityIDs       []string
}

// validateCreateRule checks a rule form and normalizes its fields.
func validateCreateRule(req CreateRuleRequest) (*validatedRule, error) {
	fields := map[string]string{}
	v := &validatedRule{
		name:            strings.TrimSpace(req.Name),
		applicationType: ApplicationType(strings.TrimSpace(req.AppliedProductType)),
		priceType:       CustomPriceType(strings.TrimSpace(req.PriceType)),
	}

	if v.name == "" {
		fields["name"] = "Name can't be blank."
	}

	if req.Priority == nil || *req.Priority < MinPriority || *req.Priority > MaxPriority {
		fields["priority"] = "Please enter an integer from 0 to 100. 0 is the highest priority."
	} else {
		v.priority = *req.Priority
	}

	switch strings.TrimSpace(req.Status) {
	case "enable":
		v.status = true
	case "disable":
		v.status = false
	default:
		fields["status"] = "Please select a status."
	}

	if !v.applicationType.Valid() {
		fields["applied_product_type"] = "Please select a product type."
	}
	if !v.priceType.Valid() {
		fields["price_type"] = "Please select a price type."
	}

	amount, ok, err := ParseAmount(req.Amount)
	switch {
	case err != nil || !ok || !amount.IsPositive():
		fields["amount"] = "Please enter positive amount."
	case v.priceType == PriceDecreasePercentage && amount.GreaterThan(hundred):
		fields["amount"] = "Please enter an amount between 0 and 100 for percentage."
	case !amount.Equal(amount.Truncate(amountScale)):
		fields["amount"] = "Please enter an amount with at most 4 decimal places."
	case amount.GreaterThanOrEqual(maxAmount):
		fields["amount"] = "Please enter an amount below 10000000000."
	default:
		v.amount = amount
	}

	if v.applicationType.Scoped() {
		v.entityIDs = uniqueTrimmed(req.SelectedIDs)
		if len(v.entityIDs) == 0 {
			fields["selected_ids"] = "Please select at least one item."
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return v, nil
}

func uniqueTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
