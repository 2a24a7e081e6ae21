package gst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldNames(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateWellFormedLine(t *testing.T) {
	line := Line{
		UnitPrice:       dec(t, "240"),
		Quantity:        2,
		PrimaryUnit:     "Box",
		SecondaryUnit:   "Piece",
		UseCompoundUnit: true,
		ConversionRatio: dec(t, "24"),
		PriceUnit:       PricePerPrimary,
		TaxRate:         dec(t, "18"),
		CessKind:        CessValue,
		CessRate:        dec(t, "5"),
	}
	require.Empty(t, Validate(line))
}

func TestValidateCatchesProblems(t *testing.T) {
	tests := []struct {
		name  string
		line  Line
		field string
	}{
		{"negative price", Line{UnitPrice: dec(t, "-1")}, "unitPrice"},
		{"negative quantity", Line{Quantity: -2}, "quantity"},
		{"negative tax rate", Line{TaxRate: dec(t, "-5")}, "taxRate"},
		{"compound without secondary unit", Line{UseCompoundUnit: true, SecondaryUnit: NoSecondaryUnit}, "secondaryUnit"},
		{"compound with zero ratio", Line{UseCompoundUnit: true, SecondaryUnit: "Piece", ConversionRatio: dec(t, "0"), PriceUnit: PricePerPrimary}, "conversionRatio"},
		{"compound with bad price unit", Line{UseCompoundUnit: true, SecondaryUnit: "Piece", ConversionRatio: dec(t, "12")}, "priceUnit"},
		{"value cess missing rate", Line{CessKind: CessValue}, "cessRate"},
		{"quantity cess missing amount", Line{CessKind: CessQuantity}, "cessAmount"},
		{"discount over 100 percent", Line{DiscountKind: DiscountPercent, DiscountValue: dec(t, "120")}, "discountValue"},
		{"negative flat discount", Line{DiscountKind: DiscountAmount, DiscountValue: dec(t, "-10")}, "discountValue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.line)
			require.Contains(t, fieldNames(errs), tt.field)
		})
	}
}

func TestValidateCombinedCessNeedsBothFields(t *testing.T) {
	errs := Validate(Line{CessKind: CessValueAndQuantity})
	names := fieldNames(errs)
	require.Contains(t, names, "cessRate")
	require.Contains(t, names, "cessAmount")
}

// The calculators stay total even for lines Validate would reject.
func TestComputationNeverFailsOnInvalidInput(t *testing.T) {
	line := Line{
		UnitPrice:     dec(t, "-50"),
		Quantity:      -3,
		TaxRate:       dec(t, "-4"),
		CessKind:      CessKind("junk"),
		DiscountKind:  DiscountAmount,
		DiscountValue: dec(t, "-7"),
	}
	lt := LineTotal(line)
	require.True(t, lt.Total.Equal(lt.Taxable.Add(lt.Tax).Add(lt.Cess)))
	totals := InvoiceTotal([]Line{line}, InvoiceDiscount{Kind: DiscountKind("junk")})
	require.True(t, totals.Final.Equal(totals.Final.Floor()))
}
