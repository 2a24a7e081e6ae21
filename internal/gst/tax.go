package gst

import "github.com/shopspring/decimal"

// TaxAmount computes the GST levy as a flat percentage of the taxable value.
// No rounding happens here; rounding is applied once at the invoice level.
func TaxAmount(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// SplitRate halves a GST rate into its CGST and SGST components for intra-state
// display. Odd rates yield fractional halves (5% becomes 2.5% + 2.5%); the two
// halves always sum back to the full rate.
func SplitRate(rate decimal.Decimal) (cgst, sgst decimal.Decimal) {
	h := rate.Div(two)
	return h, h
}
