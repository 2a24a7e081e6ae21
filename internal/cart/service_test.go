package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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

func simpleProduct(id, name string, price int64) catalog.Product {
	return catalog.Product{
		ID:            id,
		Name:          name,
		SKU:           "SKU-" + id,
		PrimaryUnit:   "Piece",
		SecondaryUnit: "None",
		PriceUnit:     "primary",
		UnitPrice:     decimal.NewFromInt(price),
		TaxRate:       decimal.NewFromInt(18),
		CessKind:      "none",
	}
}

func newTestService(t *testing.T, products map[string]catalog.Product) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{
		Redis:    client,
		Products: &fakeProducts{products: products},
		TTL:      time.Hour,
		Now:      func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) },
	}, mr
}

func TestCartLifecycle(t *testing.T) {
	svc, _ := newTestService(t, map[string]catalog.Product{
		"p1": simpleProduct("p1", "Soap", 40),
		"p2": simpleProduct("p2", "Shampoo", 120),
	})
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Empty(t, c.Items)

	view, err := svc.SetItem(ctx, c.ID, Item{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.True(t, view.Totals.Subtotal.Equal(decimal.NewFromInt(80)))

	view, err = svc.SetItem(ctx, c.ID, Item{ProductID: "p2", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	// 200 goods + 18% = 236, already whole.
	require.True(t, view.Totals.Final.Equal(decimal.NewFromInt(236)), "final %s", view.Totals.Final)
	require.True(t, view.Totals.RoundOff.IsZero())

	// setting an existing product replaces its quantity.
	view, err = svc.SetItem(ctx, c.ID, Item{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	require.True(t, view.Totals.Subtotal.Equal(decimal.NewFromInt(320)))

	// quantity zero removes the line.
	view, err = svc.SetItem(ctx, c.ID, Item{ProductID: "p1", Quantity: 0})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, "p2", view.Lines[0].ProductID)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartBillDiscount(t *testing.T) {
	svc, _ := newTestService(t, map[string]catalog.Product{
		"p1": simpleProduct("p1", "Soap", 100),
	})
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.SetItem(ctx, c.ID, Item{ProductID: "p1", Quantity: 10})
	require.NoError(t, err)

	view, err := svc.SetDiscount(ctx, c.ID, "percentage", decimal.NewFromInt(10))
	require.NoError(t, err)
	// 1000 goods - 100 discount + 180 tax = 1080.
	require.True(t, view.Totals.Discount.Equal(decimal.NewFromInt(100)))
	require.True(t, view.Totals.Final.Equal(decimal.NewFromInt(1080)), "final %s", view.Totals.Final)

	view, err = svc.SetDiscount(ctx, c.ID, "", decimal.Zero)
	require.NoError(t, err)
	require.True(t, view.Totals.Discount.IsZero())

	_, err = svc.SetDiscount(ctx, c.ID, "percentage", decimal.NewFromInt(150))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetDiscount(ctx, c.ID, "bogus", decimal.NewFromInt(5))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCartLineDiscount(t *testing.T) {
	svc, _ := newTestService(t, map[string]catalog.Product{
		"p1": simpleProduct("p1", "Soap", 100),
	})
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	view, err := svc.SetItem(ctx, c.ID, Item{
		ProductID:     "p1",
		Quantity:      1,
		DiscountKind:  "amount",
		DiscountValue: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.True(t, view.Lines[0].Discount.Equal(decimal.NewFromInt(20)))
	// tax on the discounted 80, not the list price.
	require.True(t, view.Lines[0].Tax.Equal(decimal.RequireFromString("14.4")), "tax %s", view.Lines[0].Tax)
}

func TestCartRejectsBadItems(t *testing.T) {
	svc, _ := newTestService(t, map[string]catalog.Product{
		"p1": simpleProduct("p1", "Soap", 100),
	})
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.SetItem(ctx, c.ID, Item{ProductID: "missing", Quantity: 1})
	require.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.SetItem(ctx, c.ID, Item{ProductID: "p1", Quantity: -1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SetItem(ctx, "no-such-cart", Item{ProductID: "p1", Quantity: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartExpires(t *testing.T) {
	svc, mr := newTestService(t, map[string]catalog.Product{
		"p1": simpleProduct("p1", "Soap", 100),
	})
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartRepricesOnCatalogChange(t *testing.T) {
	products := map[string]catalog.Product{"p1": simpleProduct("p1", "Soap", 100)}
	svc, _ := newTestService(t, products)
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	view, err := svc.SetItem(ctx, c.ID, Item{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	require.True(t, view.Totals.Subtotal.Equal(decimal.NewFromInt(100)))

	products["p1"] = simpleProduct("p1", "Soap", 150)
	view, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, view.Totals.Subtotal.Equal(decimal.NewFromInt(150)))
}
