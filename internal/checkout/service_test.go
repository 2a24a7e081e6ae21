package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/cart"
	"github.com/noah-isme/backend-billing/internal/catalog"
	"github.com/noah-isme/backend-billing/internal/events"
	"github.com/noah-isme/backend-billing/internal/lock"
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

type fakeInvoices struct {
	created []Invoice
}

func (f *fakeInvoices) CreateInvoice(_ context.Context, inv Invoice) (Invoice, error) {
	inv.ID = "inv-1"
	inv.Number = "INV-2026-000001"
	f.created = append(f.created, inv)
	return inv, nil
}

func (f *fakeInvoices) GetInvoice(_ context.Context, id string) (Invoice, error) {
	for _, inv := range f.created {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Invoice{}, ErrNotFound
}

func (f *fakeInvoices) ListInvoices(_ context.Context, limit, offset int) ([]Invoice, int64, error) {
	return f.created, int64(len(f.created)), nil
}

type fakeTasks struct {
	pdf      []string
	webhooks []string
}

func (f *fakeTasks) EnqueueInvoicePDF(_ context.Context, invoiceID string) error {
	f.pdf = append(f.pdf, invoiceID)
	return nil
}

func (f *fakeTasks) EnqueueInvoiceWebhook(_ context.Context, invoiceID string) error {
	f.webhooks = append(f.webhooks, invoiceID)
	return nil
}

func boxProduct(stockBottles int64) catalog.Product {
	return catalog.Product{
		ID:              "p1",
		Name:            "Mineral Water",
		SKU:             "WTR-1",
		HSNCode:         "2201",
		PrimaryUnit:     "Box",
		SecondaryUnit:   "Bottle",
		UseCompoundUnit: true,
		ConversionRatio: decimal.NewFromInt(24),
		PriceUnit:       "primary",
		UnitPrice:       decimal.NewFromInt(240),
		TaxRate:         decimal.NewFromInt(18),
		CessKind:        "none",
		Stock:           decimal.NewFromInt(stockBottles),
	}
}

type fixture struct {
	svc      *Service
	cart     *cart.Service
	invoices *fakeInvoices
	tasks    *fakeTasks
}

func newFixture(t *testing.T, products map[string]catalog.Product) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &fakeProducts{products: products}
	cartSvc := &cart.Service{Redis: client, Products: source, TTL: time.Hour}
	invoices := &fakeInvoices{}
	tasks := &fakeTasks{}
	return fixture{
		svc: &Service{
			Cart:     cartSvc,
			Products: source,
			Invoices: invoices,
			Tasks:    tasks,
			Now:      func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) },
		},
		cart:     cartSvc,
		invoices: invoices,
		tasks:    tasks,
	}
}

func cartWith(t *testing.T, f fixture, items ...cart.Item) string {
	t.Helper()
	c, err := f.cart.Create(context.Background())
	require.NoError(t, err)
	for _, it := range items {
		_, err = f.cart.SetItem(context.Background(), c.ID, it)
		require.NoError(t, err)
	}
	return c.ID
}

func TestFinalizeIssuesInvoice(t *testing.T) {
	f := newFixture(t, map[string]catalog.Product{"p1": boxProduct(100)})
	cartID := cartWith(t, f, cart.Item{ProductID: "p1", Quantity: 2})

	inv, err := f.svc.Finalize(context.Background(), Input{
		CartID:       cartID,
		CustomerName: "Ravi Kumar",
		PaymentMode:  PayUPI,
	})
	require.NoError(t, err)
	require.Equal(t, "inv-1", inv.ID)
	require.Equal(t, "INV-2026-000001", inv.Number)
	require.Equal(t, StatusFinalized, inv.Status)

	// 2 boxes at 240 + 18% = 566.40, rounds down to 566.
	require.True(t, inv.Final.Equal(decimal.NewFromInt(566)), "final %s", inv.Final)
	require.Len(t, inv.Lines, 1)
	require.Equal(t, "2201", inv.Lines[0].HSNCode)
	require.True(t, inv.Lines[0].BaseQuantity.Equal(decimal.NewFromInt(48)))

	// cart is gone, background work enqueued.
	_, err = f.cart.Get(context.Background(), cartID)
	require.ErrorIs(t, err, cart.ErrNotFound)
	require.Equal(t, []string{"inv-1"}, f.tasks.pdf)
	require.Equal(t, []string{"inv-1"}, f.tasks.webhooks)
}

func TestFinalizeCashChange(t *testing.T) {
	f := newFixture(t, map[string]catalog.Product{"p1": boxProduct(100)})
	cartID := cartWith(t, f, cart.Item{ProductID: "p1", Quantity: 2})

	tendered := decimal.NewFromInt(600)
	inv, err := f.svc.Finalize(context.Background(), Input{
		CartID:      cartID,
		PaymentMode: PayCash,
		Tendered:    &tendered,
	})
	require.NoError(t, err)
	require.True(t, inv.Change.Equal(decimal.NewFromInt(34)), "change %s", inv.Change)
}

func TestFinalizeShortPayment(t *testing.T) {
	f := newFixture(t, map[string]catalog.Product{"p1": boxProduct(100)})
	cartID := cartWith(t, f, cart.Item{ProductID: "p1", Quantity: 2})

	tendered := decimal.NewFromInt(500)
	_, err := f.svc.Finalize(context.Background(), Input{
		CartID:      cartID,
		PaymentMode: PayCash,
		Tendered:    &tendered,
	})
	require.ErrorIs(t, err, ErrShortPayment)
	require.Empty(t, f.invoices.created)
}

func TestFinalizeInsufficientStock(t *testing.T) {
	// 2 boxes need 48 bottles; only 40 on hand.
	f := newFixture(t, map[string]catalog.Product{"p1": boxProduct(40)})
	cartID := cartWith(t, f, cart.Item{ProductID: "p1", Quantity: 2})

	_, err := f.svc.Finalize(context.Background(), Input{CartID: cartID, PaymentMode: PayUPI})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, f.invoices.created)
	require.Empty(t, f.tasks.pdf)
}

func TestFinalizeValidation(t *testing.T) {
	f := newFixture(t, map[string]catalog.Product{"p1": boxProduct(100)})

	_, err := f.svc.Finalize(context.Background(), Input{PaymentMode: PayCash})
	require.ErrorIs(t, err, ErrInvalidInput)

	cartID := cartWith(t, f)
	_, err = f.svc.Finalize(context.Background(), Input{CartID: cartID, PaymentMode: "cheque"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Finalize(context.Background(), Input{CartID: cartID, PaymentMode: PayCash})
	require.ErrorIs(t, err, ErrInvalidInput) // empty cart

	_, err = f.svc.Finalize(context.Background(), Input{CartID: "missing", PaymentMode: PayCash})
	require.ErrorIs(t, err, cart.ErrNotFound)
}

type memEventStore struct {
	emitted []events.Event
}

func (m *memEventStore) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	ev := events.Event{ID: int64(len(m.emitted) + 1), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	m.emitted = append(m.emitted, ev)
	return ev, nil
}

func (m *memEventStore) ListEvents(_ context.Context, topic string, limit, offset int) ([]events.Event, int64, error) {
	return m.emitted, int64(len(m.emitted)), nil
}

func TestFinalizeSerializedAndRecorded(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &fakeProducts{products: map[string]catalog.Product{"p1": boxProduct(100)}}
	cartSvc := &cart.Service{Redis: client, Products: source, TTL: time.Hour}
	invoices := &fakeInvoices{}
	trail := &memEventStore{}
	svc := &Service{
		Cart:     cartSvc,
		Products: source,
		Invoices: invoices,
		Events:   &events.Bus{Store: trail},
		Lock:     &lock.Locker{R: client, RetryBackoff: time.Millisecond},
	}

	c, err := cartSvc.Create(context.Background())
	require.NoError(t, err)
	_, err = cartSvc.SetItem(context.Background(), c.ID, cart.Item{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	inv, err := svc.Finalize(context.Background(), Input{CartID: c.ID, PaymentMode: PayCard})
	require.NoError(t, err)
	require.Equal(t, "inv-1", inv.ID)

	require.Len(t, trail.emitted, 1)
	require.Equal(t, events.TopicInvoiceFinalized, trail.emitted[0].Topic)
	require.Equal(t, "inv-1", trail.emitted[0].AggregateID)

	// The checkout lock is released: a second attempt fails fast on the
	// now-deleted cart instead of blocking.
	_, err = svc.Finalize(context.Background(), Input{CartID: c.ID, PaymentMode: PayCard})
	require.ErrorIs(t, err, cart.ErrNotFound)
}
