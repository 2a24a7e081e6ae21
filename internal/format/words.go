package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// AmountInWords spells an amount in Indian English for invoice footers:
// 913183 becomes "Nine Lakh Thirteen Thousand One Hundred and Eighty Three
// Rupees Only". Paise are dropped; the amount is rounded to the nearest rupee
// first, matching the invoice-level round-off.
func AmountInWords(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "Negative " + AmountInWords(amount.Neg())
	}
	rupees := amount.Round(0).IntPart()
	if rupees == 0 {
		return "Zero Rupees Only"
	}
	return indianWords(rupees) + " Rupees Only"
}

func indianWords(n int64) string {
	var parts []string
	if n >= 1_00_00_000 {
		// The crore component can itself exceed ninety-nine (hundred-crore
		// invoices), so it is spelled recursively: "One Hundred and Twenty
		// Three Crore ...".
		parts = append(parts, indianWords(n/1_00_00_000)+" Crore")
		n %= 1_00_00_000
	}
	if n >= 1_00_000 {
		parts = append(parts, underHundred(n/1_00_000)+" Lakh")
		n %= 1_00_000
	}
	if n >= 1000 {
		parts = append(parts, underHundred(n/1000)+" Thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and "+underHundred(n))
		} else {
			parts = append(parts, underHundred(n))
		}
	}
	return strings.Join(parts, " ")
}

func underHundred(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	out := tensWords[n/10]
	if n%10 != 0 {
		out += " " + onesWords[n%10]
	}
	return out
}
