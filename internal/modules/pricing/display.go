package pricing

import "github.com/shopspring/decimal"

// ApplicationLabel is the human name of an application type.
func ApplicationLabel(t ApplicationType) string {
	switch t {
	case ApplyAll:
		return "All products"
	case ApplySpecificProducts:
		return "Specific products"
	case ApplyCollections:
		return "Collections"
	case ApplyTags:
		return "Product tags"
	}
	return "Other"
}

func PriceTypeLabel(t CustomPriceType) string {
	switch t {
	case PriceFixed:
		return "fixed product price"
	case PriceDecreaseAmount:
		return "decrease fixed amount"
	case PriceDecreasePercentage:
		return "decrease by percentage"
	}
	return ""
}

// ValueLabel renders a rule value the way the rules table shows it.
func ValueLabel(t CustomPriceType, v decimal.Decimal) string {
	switch t {
	case PriceFixed:
		return "$" + v.String()
	case PriceDecreaseAmount:
		return "-$" + v.String()
	case PriceDecreasePercentage:
		return v.String() + "%"
	}
	return v.String()
}

func Description(t CustomPriceType, v decimal.Decimal) string {
	switch t {
	case PriceFixed:
		return "Apply fixed price of $" + v.String() + "."
	case PriceDecreaseAmount:
		return "Decrease price by $" + v.String() + "."
	case PriceDecreasePercentage:
		return "Decrease price by " + v.String() + "%."
	}
	return ""
}

// AmountPrefix is the unit shown next to the amount input.
func AmountPrefix(t CustomPriceType) string {
	if t == PriceDecreasePercentage {
		return "%"
	}
	return "$"
}

// SavingsLabel formats a signed savings delta to cents. A negative delta
// means the price went up and is shown with a plus sign.
func SavingsLabel(savings decimal.Decimal) string {
	if savings.IsNegative() {
		return "+$" + savings.Abs().StringFixed(2)
	}
	return "-$" + savings.StringFixed(2)
}

func NewRuleView(r PricingRule) RuleView {
	if r.RuleApplications == nil {
		r.RuleApplications = []RuleApplication{}
	}
	return RuleView{
		PricingRule:      r,
		ApplicationLabel: ApplicationLabel(r.ApplicationType),
		PriceTypeLabel:   PriceTypeLabel(r.CustomPriceType),
		ValueLabel:       ValueLabel(r.CustomPriceType, r.CustomPriceValue),
		Description:      Description(r.CustomPriceType, r.CustomPriceValue),
	}
}
