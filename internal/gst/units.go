package gst

import "github.com/shopspring/decimal"

// EffectivePrice resolves the line's unit price to a canonical price per base
// unit. A price quoted per compound unit (e.g. per Box) is divided by the
// conversion ratio; a price quoted per base unit (e.g. per Piece) passes
// through unchanged, as does any line without an active compound unit.
func EffectivePrice(l Line) decimal.Decimal {
	if !l.compoundActive() {
		return l.UnitPrice
	}
	if l.PriceUnit == PricePerSecondary {
		return l.UnitPrice
	}
	return l.UnitPrice.Div(l.ConversionRatio)
}

// BaseQuantity returns the total count in base units: quantity times the
// conversion ratio when a compound unit is active, the raw quantity otherwise.
func BaseQuantity(l Line) decimal.Decimal {
	qty := decimal.NewFromInt(l.Quantity)
	if !l.compoundActive() {
		return qty
	}
	return qty.Mul(l.ConversionRatio)
}

// BaseAmount is the taxable value of the line before discounts: effective
// per-base-unit price times base quantity. Both compound-unit price
// representations reconcile to the same amount here, which makes this the
// single normalization point for every downstream calculator.
func BaseAmount(l Line) decimal.Decimal {
	return EffectivePrice(l).Mul(BaseQuantity(l))
}
