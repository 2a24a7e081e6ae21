package gst

import "github.com/shopspring/decimal"

// CessAmount computes the CESS levy for a line. The quantity is the unit count
// the per-unit amount is denominated in; this function performs no unit
// conversion of its own. Unknown kinds contribute zero rather than failing.
func CessAmount(base decimal.Decimal, quantity int64, kind CessKind, rate, perUnit decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(quantity)
	switch kind {
	case CessValue:
		return base.Mul(rate).Div(hundred)
	case CessQuantity:
		return qty.Mul(perUnit)
	case CessValueAndQuantity:
		return base.Mul(rate).Div(hundred).Add(qty.Mul(perUnit))
	default:
		return decimal.Zero
	}
}
