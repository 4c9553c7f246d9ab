package decimal

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Hundred is used for percentage arithmetic
var Hundred = decimal.NewFromInt(100)

// DefaultPlaces is the precision used when a currency has no known minor unit
const DefaultPlaces int32 = 2

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// Round rounds half away from zero to the given number of places
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Format renders d with exactly places fractional digits
func Format(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// FormatRate renders a percentage rate with 2 fractional digits
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatQuantity renders a quantity without trailing zeros
func FormatQuantity(d decimal.Decimal) string {
	return d.String()
}

// Div divides a by b with the given precision. Division by zero returns zero.
func Div(a, b decimal.Decimal, places int32) decimal.Decimal {
	if b.IsZero() {
		return Zero
	}
	return a.DivRound(b, places)
}

// Percent computes amount * (rate/100) rounded to places
func Percent(amount, rate decimal.Decimal, places int32) decimal.Decimal {
	if rate.IsZero() {
		return Zero
	}
	return amount.Mul(rate).Div(Hundred).Round(places)
}

// LineNet computes round(qty * price * (1 - discount/100))
func LineNet(qty, price, discount decimal.Decimal, places int32) decimal.Decimal {
	gross := qty.Mul(price)
	if discount.IsZero() {
		return gross.Round(places)
	}
	factor := Hundred.Sub(discount).Div(Hundred)
	return gross.Mul(factor).Round(places)
}

// DiscountPercent recovers a discount percentage from an allowance amount:
// 100 * allowance / (price * qty). Returns ok=false when the base is zero.
func DiscountPercent(allowance, price, qty decimal.Decimal) (decimal.Decimal, bool) {
	base := price.Mul(qty)
	if base.IsZero() {
		return Zero, false
	}
	return allowance.Mul(Hundred).DivRound(base, 6), true
}

// WithinTolerance reports whether |a-b| <= 10^-places
func WithinTolerance(a, b decimal.Decimal, places int32) bool {
	tolerance := decimal.New(1, -places)
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
