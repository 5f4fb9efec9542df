package coupon

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateDiscount computes the discount a coupon grants on orderAmount.
// Fixed discounts never exceed what is owed; both types are then capped at
// MaxDiscount when set. The result is rounded to 2 decimal places.
func CalculateDiscount(c *Coupon, orderAmount decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal

	switch c.DiscountType {
	case DiscountPercentage:
		amount = orderAmount.Mul(c.DiscountValue).Div(hundred)
	default: // DiscountFixed
		amount = decimal.Min(c.DiscountValue, orderAmount)
	}

	if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
		amount = *c.MaxDiscount
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}
