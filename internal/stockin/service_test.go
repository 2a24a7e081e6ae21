package stockin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/catalog"
)

type fakeProducts struct {
	products map[string]catalog.Product
}

func (f *fakeProducts) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type fakeEntries struct {
	created []Entry
}

func (f *fakeEntries) CreateEntry(_ context.Context, e Entry) (Entry, error) {
	e.ID = "se-1"
	f.created = append(f.created, e)
	return e, nil
}

func (f *fakeEntries) GetEntry(_ context.Context, id string) (Entry, error) {
	for _, e := range f.created {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (f *fakeEntries) ListEntries(_ context.Context, limit, offset int) ([]Entry, int64, error) {
	return f.created, int64(len(f.created)), nil
}

func testProduct(id string) catalog.Product {
	return catalog.Product{
		ID:              id,
		Name:            "Mineral Water",
		SKU:             "WTR-1",
		PrimaryUnit:     "Box",
		SecondaryUnit:   "Bottle",
		UseCompoundUnit: true,
		ConversionRatio: decimal.NewFromInt(24),
		PriceUnit:       "primary",
		UnitPrice:       decimal.NewFromInt(240),
		TaxRate:         decimal.NewFromInt(18),
		CessKind:        "none",
	}
}

func newService(products *fakeProducts, entries *fakeEntries) *Service {
	return &Service{
		Products: products,
		Entries:  entries,
		Now:      func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func TestReceiveComputesBatchTotals(t *testing.T) {
	products := &fakeProducts{products: map[string]catalog.Product{"p1": testProduct("p1")}}
	entries := &fakeEntries{}
	svc := newService(products, entries)

	entry, err := svc.Receive(context.Background(), Input{
		SupplierName: "Sharma Distributors",
		ReferenceNo:  "PO-42",
		Lines:        []LineInput{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "se-1", entry.ID)
	require.Len(t, entry.Lines, 1)

	// 2 boxes at 240/box = 480 subtotal, 18% GST = 86.40, final 566.40 so
	// round-off pushes to 566.
	require.True(t, entry.Subtotal.Equal(decimal.NewFromInt(480)), "subtotal %s", entry.Subtotal)
	require.True(t, entry.Tax.Equal(decimal.RequireFromString("86.4")), "tax %s", entry.Tax)
	require.True(t, entry.Final.Equal(decimal.NewFromInt(566)), "final %s", entry.Final)
	require.True(t, entry.RoundOff.Equal(decimal.RequireFromString("-0.4")), "roundOff %s", entry.RoundOff)

	// stock moves in base units: 2 boxes of 24 bottles.
	require.True(t, entry.Lines[0].BaseQuantity.Equal(decimal.NewFromInt(48)))
	require.Equal(t, "Mineral Water", entry.Lines[0].ProductName)
	require.Len(t, entries.created, 1)
}

func TestReceivePurchasePriceOverride(t *testing.T) {
	products := &fakeProducts{products: map[string]catalog.Product{"p1": testProduct("p1")}}
	svc := newService(products, &fakeEntries{})

	cost := decimal.NewFromInt(200)
	entry, err := svc.Receive(context.Background(), Input{
		SupplierName: "Sharma Distributors",
		Lines:        []LineInput{{ProductID: "p1", Quantity: 1, UnitPrice: &cost}},
	})
	require.NoError(t, err)
	require.True(t, entry.Lines[0].UnitPrice.Equal(cost))
	require.True(t, entry.Subtotal.Equal(decimal.NewFromInt(200)))
}

func TestReceiveUnknownProduct(t *testing.T) {
	svc := newService(&fakeProducts{products: map[string]catalog.Product{}}, &fakeEntries{})

	_, err := svc.Receive(context.Background(), Input{
		SupplierName: "Sharma Distributors",
		Lines:        []LineInput{{ProductID: "missing", Quantity: 1}},
	})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestReceiveRejectsEmptyBatch(t *testing.T) {
	svc := newService(&fakeProducts{}, &fakeEntries{})

	_, err := svc.Receive(context.Background(), Input{SupplierName: "Sharma Distributors"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Receive(context.Background(), Input{Lines: []LineInput{{ProductID: "p1", Quantity: 1}}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestReceiveRejectsInvalidPricing(t *testing.T) {
	bad := testProduct("p1")
	bad.ConversionRatio = decimal.Zero
	products := &fakeProducts{products: map[string]catalog.Product{"p1": bad}}
	entries := &fakeEntries{}
	svc := newService(products, entries)

	_, err := svc.Receive(context.Background(), Input{
		SupplierName: "Sharma Distributors",
		Lines:        []LineInput{{ProductID: "p1", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, entries.created)
}

func TestReceiveInvoiceDiscountOnBatch(t *testing.T) {
	products := &fakeProducts{products: map[string]catalog.Product{"p1": testProduct("p1")}}
	svc := newService(products, &fakeEntries{})

	entry, err := svc.Receive(context.Background(), Input{
		SupplierName:  "Sharma Distributors",
		Lines:         []LineInput{{ProductID: "p1", Quantity: 1}},
		DiscountKind:  "percentage",
		DiscountValue: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	// line tax stays 18% of 240 = 43.20; invoice discount of 24 comes off the
	// goods value, so 240 - 24 + 43.20 = 259.20 rounds to 259.
	require.True(t, entry.Discount.Equal(decimal.NewFromInt(24)), "discount %s", entry.Discount)
	require.True(t, entry.Tax.Equal(decimal.RequireFromString("43.2")), "tax %s", entry.Tax)
	require.True(t, entry.Final.Equal(decimal.NewFromInt(259)), "final %s", entry.Final)
}

func TestGetAndListEntries(t *testing.T) {
	products := &fakeProducts{products: map[string]catalog.Product{"p1": testProduct("p1")}}
	entries := &fakeEntries{}
	svc := newService(products, entries)

	created, err := svc.Receive(context.Background(), Input{
		SupplierName: "Sharma Distributors",
		Lines:        []LineInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)

	list, total, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, list, 1)
}

func TestReceiveIsAtomicPerBatch(t *testing.T) {
	products := &fakeProducts{products: map[string]catalog.Product{"p1": testProduct("p1")}}
	entries := &fakeEntries{}
	svc := newService(products, entries)

	_, err := svc.Receive(context.Background(), Input{
		SupplierName: "Sharma Distributors",
		Lines: []LineInput{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "gone", Quantity: 3},
		},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, catalog.ErrNotFound))
	require.Empty(t, entries.created)
}
