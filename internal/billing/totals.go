package billing

import (
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
)

// TotalsResult carries the computed subscription total. Clamped is set when
// the discount had to be capped so callers can surface that to the admin
// instead of silently charging a different amount than requested.
type TotalsResult struct {
	Total           decimal.Decimal
	DiscountApplied decimal.Decimal
	Clamped         bool
}

var hundred = decimal.NewFromInt(100)

// ComputeTotal derives total_amount from the base price and discount.
// Percentage discounts are clamped to [0,100], amount discounts to
// [0, base]; the result is rounded half-up to 2 decimal places and floored
// at zero.
func ComputeTotal(basePrice decimal.Decimal, discountType enums.DiscountType, discountValue decimal.Decimal) (TotalsResult, error) {
	if basePrice.IsNegative() {
		return TotalsResult{}, pkgerrors.New(pkgerrors.CodeValidation, "base price must be non-negative")
	}
	if discountValue.IsNegative() {
		return TotalsResult{}, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be non-negative")
	}
	if !discountType.IsValid() {
		return TotalsResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}

	var applied decimal.Decimal
	clamped := false

	switch discountType {
	case enums.DiscountTypePercentage:
		pct := discountValue
		if pct.GreaterThan(hundred) {
			pct = hundred
			clamped = true
		}
		applied = basePrice.Mul(pct).Div(hundred)
	default: // amount
		applied = discountValue
		if applied.GreaterThan(basePrice) {
			applied = basePrice
			clamped = true
		}
	}

	total := basePrice.Sub(applied).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return TotalsResult{
		Total:           total,
		DiscountApplied: applied.Round(2),
		Clamped:         clamped,
	}, nil
}
