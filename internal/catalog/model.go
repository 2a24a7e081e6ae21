package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/gst"
)

// Product is a catalog entry carrying everything the pricing engine needs:
// unit configuration, GST slab, and cess setup. Stock is tracked in base
// units (secondary unit when a compound unit is configured).
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	HSNCode         string          `json:"hsnCode"`
	PrimaryUnit     string          `json:"primaryUnit"`
	SecondaryUnit   string          `json:"secondaryUnit"`
	UseCompoundUnit bool            `json:"useCompoundUnit"`
	ConversionRatio decimal.Decimal `json:"conversionRatio"`
	PriceUnit       string          `json:"priceUnit"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	CessKind        string          `json:"cessKind"`
	CessRate        decimal.Decimal `json:"cessRate"`
	CessPerUnit     decimal.Decimal `json:"cessPerUnit"`
	Stock           decimal.Decimal `json:"stock"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PricingLine builds the calculation input for this product at the given
// quantity. Discounts are attached by the caller since they belong to the
// transaction, not the product.
func (p Product) PricingLine(quantity int64) gst.Line {
	return gst.Line{
		UnitPrice:       p.UnitPrice,
		Quantity:        quantity,
		PrimaryUnit:     p.PrimaryUnit,
		SecondaryUnit:   p.SecondaryUnit,
		UseCompoundUnit: p.UseCompoundUnit,
		ConversionRatio: p.ConversionRatio,
		PriceUnit:       gst.PriceUnit(p.PriceUnit),
		TaxRate:         p.TaxRate,
		CessKind:        gst.CessKind(p.CessKind),
		CessRate:        p.CessRate,
		CessPerUnit:     p.CessPerUnit,
	}
}
