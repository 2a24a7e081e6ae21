package gst

import "github.com/shopspring/decimal"

// CessKind selects how CESS is levied on top of GST.
type CessKind string

const (
	// CessNone disables the levy entirely.
	CessNone CessKind = "none"
	// CessValue levies a percentage of the taxable value.
	CessValue CessKind = "value"
	// CessQuantity levies a fixed amount per unit sold.
	CessQuantity CessKind = "quantity"
	// CessValueAndQuantity combines both components.
	CessValueAndQuantity CessKind = "value_and_quantity"
)

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	// DiscountPercent treats the value as a percentage of the base amount.
	DiscountPercent DiscountKind = "percentage"
	// DiscountAmount treats the value as a flat currency amount.
	DiscountAmount DiscountKind = "amount"
)

// PriceUnit states which unit the line's unit price is denominated in when a
// compound unit is active.
type PriceUnit string

const (
	// PricePerPrimary means the price is quoted per compound unit (e.g. per Box).
	PricePerPrimary PriceUnit = "primary"
	// PricePerSecondary means the price is already quoted per base unit (e.g. per Piece).
	PricePerSecondary PriceUnit = "secondary"
)

// NoSecondaryUnit is the unit label used when no compound unit is in effect.
const NoSecondaryUnit = "None"

// Line is one product entry in an invoice, stock-in batch, or cart. All
// calculator functions are pure and total over any Line: invalid values degrade
// to a zero contribution instead of failing. Validation is a separate,
// optional concern (see Validate).
type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int64
	PrimaryUnit     string
	SecondaryUnit   string
	UseCompoundUnit bool
	ConversionRatio decimal.Decimal
	PriceUnit       PriceUnit
	TaxRate         decimal.Decimal
	CessKind        CessKind
	CessRate        decimal.Decimal
	CessPerUnit     decimal.Decimal
	DiscountKind    DiscountKind
	DiscountValue   decimal.Decimal
}

// compoundActive reports whether the conversion ratio applies. A missing or
// non-positive ratio degrades to "no conversion" so callers can never divide
// by zero.
func (l Line) compoundActive() bool {
	if !l.UseCompoundUnit {
		return false
	}
	if l.SecondaryUnit == "" || l.SecondaryUnit == NoSecondaryUnit {
		return false
	}
	return l.ConversionRatio.IsPositive()
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	half    = decimal.New(5, -1)
)
