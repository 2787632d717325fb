package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a price or rule value into a decimal. Numbers, numeric
// strings, json.Number and decimals are accepted. present is false for nil and
// blank strings. Negative and non-finite values are rejected.
func ParseAmount(v any) (d decimal.Decimal, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false, nil
		}
		d = *x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, false, nil
		}
		if d, err = decimal.NewFromString(s); err != nil {
			return decimal.Zero, true, fmt.Errorf("%w: %q", ErrInvalidAmount, x)
		}
	case json.Number:
		return ParseAmount(string(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, true, fmt.Errorf("%w: %v", ErrInvalidAmount, x)
		}
		d = decimal.NewFromFloat(x)
	case float32:
		return ParseAmount(float64(x))
	case int:
		d = decimal.NewFromInt(int64(x))
	case int32:
		d = decimal.NewFromInt32(x)
	case int64:
		d = decimal.NewFromInt(x)
	default:
		return decimal.Zero, true, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
	if d.IsNegative() {
		return decimal.Zero, true, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d)
	}
	return d, true, nil
}

// CalculatePrice applies one price transform to an original price. With no
// price type or no value the price is returned unchanged. The final price is
// never negative; no rounding is applied.
func CalculatePrice(original any, priceType CustomPriceType, value any) (PriceBreakdown, error) {
	price, ok, err := ParseAmount(original)
	if err != nil {
		return PriceBreakdown{}, fmt.Errorf("original price: %w", err)
	}
	if !ok {
		return PriceBreakdown{}, fmt.Errorf("original price: %w: missing", ErrInvalidAmount)
	}

	amount, hasValue, err := ParseAmount(value)
	if err != nil {
		return PriceBreakdown{}, fmt.Errorf("rule value: %w", err)
	}

	final := price
	if priceType != "" && hasValue {
		switch priceType {
		case PriceFixed:
			final = amount
		case PriceDecreaseAmount:
			final = price.Sub(amount)
		case PriceDecreasePercentage:
			final = price.Sub(price.Mul(amount).Div(hundred))
		}
	}
	if final.IsNegative() {
		final = decimal.Zero
	}

	return PriceBreakdown{
		Original: price,
		Final:    final,
		Savings:  price.Sub(final),
	}, nil
}

// ApplyRule prices a variant with rule, or leaves it unchanged when rule is nil.
func ApplyRule(original any, rule *PricingRule) (PriceBreakdown, error) {
	if rule == nil {
		return CalculatePrice(original, "", nil)
	}
	return CalculatePrice(original, rule.CustomPriceType, rule.CustomPriceValue)
}
