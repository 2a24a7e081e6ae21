// Package format renders amounts computed by the gst engine for display:
// rupee strings with Indian digit grouping, CGST/SGST breakdowns, and
// amount-in-words for invoice footers. It is a presentation layer only; all
// arithmetic stays in the gst package.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/gst"
)

// INRSymbol is the currency symbol prefixed to formatted amounts.
const INRSymbol = "₹"

// INR formats an amount with the rupee symbol and lakh/crore digit grouping,
// always showing two decimal places: 123456.7 becomes "₹1,23,456.70".
func INR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	if neg {
		fixed = fixed[1:]
	}
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	grouped := groupIndian(intPart)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(INRSymbol)
	b.WriteString(grouped)
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// INRPlain formats like INR but without the currency symbol, for surfaces
// whose fonts lack the rupee glyph.
func INRPlain(amount decimal.Decimal) string {
	return strings.Replace(INR(amount), INRSymbol, "", 1)
}

// groupIndian inserts commas in the Indian style: the last three digits form
// one group, every two digits after that form the next.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}

// GSTBreakdown renders the intra-state display split of a GST levy, e.g.
// "CGST (9%): ₹90.00 | SGST (9%): ₹90.00". The two halves always sum back to
// the full tax amount.
func GSTBreakdown(rate, taxAmount decimal.Decimal) string {
	cgst, sgst := gst.SplitRate(rate)
	halfAmount := taxAmount.Div(decimal.NewFromInt(2))
	return fmt.Sprintf("CGST (%s%%): %s | SGST (%s%%): %s",
		cgst.String(), INR(halfAmount), sgst.String(), INR(halfAmount))
}
