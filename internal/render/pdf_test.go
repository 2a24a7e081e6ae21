package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/checkout"
)

func sampleInvoice() checkout.Invoice {
	return checkout.Invoice{
		ID:           "inv-1",
		Number:       "INV-2026-000042",
		CustomerName: "Ravi Kumar",
		PaymentMode:  checkout.PayCash,
		Lines: []checkout.Line{
			{
				ProductName: "Mineral Water",
				HSNCode:     "2201",
				Quantity:    2,
				UnitPrice:   decimal.NewFromInt(240),
				Subtotal:    decimal.NewFromInt(480),
				TaxRate:     decimal.NewFromInt(18),
				Tax:         decimal.RequireFromString("86.4"),
				Total:       decimal.RequireFromString("566.4"),
			},
		},
		Subtotal:  decimal.NewFromInt(480),
		Tax:       decimal.RequireFromString("86.4"),
		RoundOff:  decimal.RequireFromString("-0.4"),
		Final:     decimal.NewFromInt(566),
		Tendered:  decimal.NewFromInt(600),
		Change:    decimal.NewFromInt(34),
		Status:    checkout.StatusFinalized,
		CreatedAt: time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	p := PDF{Seller: Seller{
		Name:  "Sharma General Store",
		GSTIN: "27AAPFU0939F1ZV",
	}}
	out, err := p.Render(sampleInvoice())
	require.NoError(t, err)
	require.Greater(t, len(out), 1000)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderEmptyCustomer(t *testing.T) {
	inv := sampleInvoice()
	inv.CustomerName = ""
	inv.PaymentMode = checkout.PayUPI

	out, err := PDF{Seller: Seller{Name: "Sharma General Store"}}.Render(inv)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(out[:4]))
}
