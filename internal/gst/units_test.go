package gst

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestEffectivePriceCompoundPrimary(t *testing.T) {
	// 1 Box = 24 Piece, priced 240 per Box.
	line := Line{
		UnitPrice:       dec(t, "240"),
		Quantity:        2,
		PrimaryUnit:     "Box",
		SecondaryUnit:   "Piece",
		UseCompoundUnit: true,
		ConversionRatio: dec(t, "24"),
		PriceUnit:       PricePerPrimary,
	}
	require.True(t, EffectivePrice(line).Equal(dec(t, "10")))
	require.True(t, BaseQuantity(line).Equal(dec(t, "48")))
	require.True(t, BaseAmount(line).Equal(dec(t, "480")))
}

func TestEffectivePriceCompoundSecondary(t *testing.T) {
	line := Line{
		UnitPrice:       dec(t, "10"),
		Quantity:        2,
		PrimaryUnit:     "Box",
		SecondaryUnit:   "Piece",
		UseCompoundUnit: true,
		ConversionRatio: dec(t, "24"),
		PriceUnit:       PricePerSecondary,
	}
	require.True(t, EffectivePrice(line).Equal(dec(t, "10")))
	require.True(t, BaseAmount(line).Equal(dec(t, "480")))
}

func TestBaseAmountNoCompoundUnit(t *testing.T) {
	line := Line{UnitPrice: dec(t, "99.50"), Quantity: 3, PrimaryUnit: "Piece", SecondaryUnit: NoSecondaryUnit}
	require.True(t, EffectivePrice(line).Equal(dec(t, "99.50")))
	require.True(t, BaseAmount(line).Equal(dec(t, "298.50")))
}

func TestCompoundUnitDegradesOnBadRatio(t *testing.T) {
	for _, ratio := range []string{"0", "-3"} {
		line := Line{
			UnitPrice:       dec(t, "240"),
			Quantity:        2,
			SecondaryUnit:   "Piece",
			UseCompoundUnit: true,
			ConversionRatio: dec(t, ratio),
			PriceUnit:       PricePerPrimary,
		}
		require.True(t, EffectivePrice(line).Equal(dec(t, "240")), "ratio %s", ratio)
		require.True(t, BaseAmount(line).Equal(dec(t, "480")), "ratio %s", ratio)
	}
}

// Both price representations of the same compound-unit product must reconcile
// to the same base amount for any positive ratio.
func TestUnitConversionIdentity(t *testing.T) {
	ratios := []string{"2", "7", "12", "24", "144", "0.5"}
	for _, r := range ratios {
		ratio := dec(t, r)
		perBox := dec(t, "360")
		primary := Line{
			UnitPrice:       perBox,
			Quantity:        5,
			SecondaryUnit:   "Piece",
			UseCompoundUnit: true,
			ConversionRatio: ratio,
			PriceUnit:       PricePerPrimary,
		}
		secondary := primary
		secondary.PriceUnit = PricePerSecondary
		secondary.UnitPrice = perBox.Div(ratio)
		require.True(t, BaseAmount(primary).Equal(BaseAmount(secondary)), "ratio %s", r)
	}
}

func TestSplitRateSumsBack(t *testing.T) {
	for _, rate := range []string{"0", "5", "12", "18", "28", "7.3"} {
		full := dec(t, rate)
		cgst, sgst := SplitRate(full)
		require.True(t, cgst.Equal(sgst))
		require.True(t, cgst.Add(sgst).Equal(full), "rate %s", rate)
	}
}

func TestTaxAmountNoRounding(t *testing.T) {
	got := TaxAmount(dec(t, "333.33"), dec(t, "18"))
	require.True(t, got.Equal(dec(t, "59.9994")))
}
