package gst

import "github.com/shopspring/decimal"

// LineTotals breaks down the computed components of a single line.
type LineTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Taxable  decimal.Decimal
	Tax      decimal.Decimal
	Cess     decimal.Decimal
	Total    decimal.Decimal
}

// Totals aggregates an invoice. Final is the only rounded figure; RoundOff is
// the adjustment that was applied to reach it.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Cess     decimal.Decimal
	RoundOff decimal.Decimal
	Final    decimal.Decimal
}

// InvoiceDiscount is an optional invoice-level discount applied to the
// aggregated post-line-discount goods value, before tax and cess are added.
type InvoiceDiscount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// discountAmount resolves a discount specification against an amount. An empty
// kind means no discount.
func discountAmount(amount decimal.Decimal, kind DiscountKind, value decimal.Decimal) decimal.Decimal {
	switch kind {
	case DiscountPercent:
		return amount.Mul(value).Div(hundred)
	case DiscountAmount:
		return value
	default:
		return decimal.Zero
	}
}

// LineTotal computes one line end to end: normalized subtotal, line discount,
// then GST and CESS on the discounted base. Tax and cess share the same base
// so the two levies never disagree about what was actually charged.
func LineTotal(l Line) LineTotals {
	subtotal := BaseAmount(l)
	discount := discountAmount(subtotal, l.DiscountKind, l.DiscountValue)
	taxable := subtotal.Sub(discount)
	tax := TaxAmount(taxable, l.TaxRate)
	cess := CessAmount(taxable, l.Quantity, l.CessKind, l.CessRate, l.CessPerUnit)
	return LineTotals{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Cess:     cess,
		Total:    taxable.Add(tax).Add(cess),
	}
}

// InvoiceTotal aggregates all lines, applies the invoice-level discount to the
// summed post-line-discount goods value, adds tax and cess, and rounds once to
// the nearest rupee. Discount in the result covers both per-line and
// invoice-level discounts.
func InvoiceTotal(lines []Line, disc InvoiceDiscount) Totals {
	var subtotal, lineDiscount, taxable, tax, cess decimal.Decimal
	for _, l := range lines {
		lt := LineTotal(l)
		subtotal = subtotal.Add(lt.Subtotal)
		lineDiscount = lineDiscount.Add(lt.Discount)
		taxable = taxable.Add(lt.Taxable)
		tax = tax.Add(lt.Tax)
		cess = cess.Add(lt.Cess)
	}
	invoiceDiscount := discountAmount(taxable, disc.Kind, disc.Value)
	preRound := taxable.Sub(invoiceDiscount).Add(tax).Add(cess)
	roundOff, final := RoundToRupee(preRound)
	return Totals{
		Subtotal: subtotal,
		Discount: lineDiscount.Add(invoiceDiscount),
		Tax:      tax,
		Cess:     cess,
		RoundOff: roundOff,
		Final:    final,
	}
}

// RoundToRupee rounds to the nearest whole rupee. The boundary is explicit: a
// fractional part strictly below 0.5 rounds down, 0.5 and above rounds up.
// Returns the signed adjustment and the rounded amount.
func RoundToRupee(amount decimal.Decimal) (roundOff, rounded decimal.Decimal) {
	floor := amount.Floor()
	frac := amount.Sub(floor)
	if frac.LessThan(half) {
		return frac.Neg(), floor
	}
	return one.Sub(frac), floor.Add(one)
}
