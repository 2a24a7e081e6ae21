package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/cart"
	"github.com/noah-isme/backend-billing/internal/catalog"
	"github.com/noah-isme/backend-billing/internal/events"
	"github.com/noah-isme/backend-billing/internal/gst"
	"github.com/noah-isme/backend-billing/internal/lock"
)

// ErrNotFound indicates the requested invoice does not exist.
var ErrNotFound = errors.New("invoice not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrInsufficientStock is returned when a sale would drive stock negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrShortPayment is returned when the tendered cash does not cover the bill.
var ErrShortPayment = errors.New("tendered amount below payable")

// Input is a checkout request.
type Input struct {
	CartID        string           `json:"cartId"`
	CustomerName  string           `json:"customerName"`
	CustomerPhone string           `json:"customerPhone"`
	CustomerGSTIN string           `json:"customerGstin"`
	PaymentMode   string           `json:"paymentMode"`
	Tendered      *decimal.Decimal `json:"tendered"`
	Notes         string           `json:"notes"`
}

// Store persists invoices. CreateInvoice must write the invoice, its lines,
// and the stock decrements atomically, and assign the invoice number.
type Store interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	ListInvoices(ctx context.Context, limit, offset int) ([]Invoice, int64, error)
}

// ProductSource loads catalog products for snapshotting line details.
type ProductSource interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// Tasks enqueues the background work that follows an issued invoice.
type Tasks interface {
	EnqueueInvoicePDF(ctx context.Context, invoiceID string) error
	EnqueueInvoiceWebhook(ctx context.Context, invoiceID string) error
}

// Service turns a priced cart into an issued invoice.
type Service struct {
	Cart     *cart.Service
	Products ProductSource
	Invoices Store
	Tasks    Tasks
	Events   *events.Bus
	Lock     *lock.Locker
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Finalize prices the cart one last time, issues the invoice, decrements
// stock, drops the cart, and enqueues the PDF render and webhook delivery.
// The enqueues are best effort: the sale already happened at the counter.
// When a Locker is configured, checkouts of the same cart are serialized so a
// double-tapped pay button cannot issue two invoices from one cart.
func (s *Service) Finalize(ctx context.Context, in Input) (Invoice, error) {
	if s == nil || s.Cart == nil || s.Products == nil || s.Invoices == nil {
		return Invoice{}, errors.New("checkout service not configured")
	}
	if in.CartID == "" {
		return Invoice{}, fmt.Errorf("cartId is required: %w", ErrInvalidInput)
	}
	if s.Lock == nil {
		return s.finalize(ctx, in)
	}
	var issued Invoice
	err := s.Lock.WithLock(ctx, "checkout:"+in.CartID, 30*time.Second, func(ctx context.Context) error {
		var lockErr error
		issued, lockErr = s.finalize(ctx, in)
		return lockErr
	})
	return issued, err
}

func (s *Service) finalize(ctx context.Context, in Input) (Invoice, error) {
	switch in.PaymentMode {
	case PayCash, PayUPI, PayCard:
	default:
		return Invoice{}, fmt.Errorf("unknown payment mode %q: %w", in.PaymentMode, ErrInvalidInput)
	}

	stored, err := s.Cart.Load(ctx, in.CartID)
	if err != nil {
		return Invoice{}, err
	}
	if len(stored.Items) == 0 {
		return Invoice{}, fmt.Errorf("cart is empty: %w", ErrInvalidInput)
	}
	view, err := s.Cart.Price(ctx, stored)
	if err != nil {
		return Invoice{}, err
	}

	lines := make([]Line, 0, len(view.Lines))
	for i, pl := range view.Lines {
		product, err := s.Products.Get(ctx, pl.ProductID)
		if err != nil {
			return Invoice{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		item := stored.Items[i]
		gl := product.PricingLine(item.Quantity)
		baseQty := gst.BaseQuantity(gl)
		if product.Stock.LessThan(baseQty) {
			return Invoice{}, fmt.Errorf("%s: %w", product.Name, ErrInsufficientStock)
		}
		lines = append(lines, Line{
			ProductID:    product.ID,
			ProductName:  product.Name,
			HSNCode:      product.HSNCode,
			Quantity:     pl.Quantity,
			UnitPrice:    pl.UnitPrice,
			PriceUnit:    pl.PriceUnit,
			BaseQuantity: baseQty,
			TaxRate:      product.TaxRate,
			Subtotal:     pl.Subtotal,
			Discount:     pl.Discount,
			Tax:          pl.Tax,
			Cess:         pl.Cess,
			Total:        pl.Total,
		})
	}

	tendered := view.Totals.Final
	if in.Tendered != nil {
		tendered = *in.Tendered
	}
	if tendered.LessThan(view.Totals.Final) {
		return Invoice{}, fmt.Errorf("tendered %s, payable %s: %w",
			tendered.StringFixed(2), view.Totals.Final.StringFixed(2), ErrShortPayment)
	}

	inv := Invoice{
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		CustomerGSTIN: strings.ToUpper(strings.TrimSpace(in.CustomerGSTIN)),
		PaymentMode:   in.PaymentMode,
		Notes:         strings.TrimSpace(in.Notes),
		Lines:         lines,
		Subtotal:      view.Totals.Subtotal,
		Discount:      view.Totals.Discount,
		Tax:           view.Totals.Tax,
		Cess:          view.Totals.Cess,
		RoundOff:      view.Totals.RoundOff,
		Final:         view.Totals.Final,
		Tendered:      tendered,
		Change:        tendered.Sub(view.Totals.Final),
		Status:        StatusFinalized,
		CreatedAt:     s.now(),
	}
	issued, err := s.Invoices.CreateInvoice(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}

	if err := s.Cart.Delete(ctx, in.CartID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("cart_id", in.CartID).Msg("drop cart after checkout")
	}
	if s.Events != nil {
		_, err := s.Events.Emit(ctx, events.TopicInvoiceFinalized, issued.ID, map[string]any{
			"invoiceNo":   issued.Number,
			"paymentMode": issued.PaymentMode,
			"final":       issued.Final,
		})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("invoice_id", issued.ID).Msg("emit invoice event")
		}
	}
	if s.Tasks != nil {
		if err := s.Tasks.EnqueueInvoicePDF(ctx, issued.ID); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("invoice_id", issued.ID).Msg("enqueue invoice pdf")
		}
		if err := s.Tasks.EnqueueInvoiceWebhook(ctx, issued.ID); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("invoice_id", issued.ID).Msg("enqueue invoice webhook")
		}
	}
	return issued, nil
}

// Get loads one issued invoice.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	if s == nil || s.Invoices == nil {
		return Invoice{}, errors.New("checkout service not configured")
	}
	return s.Invoices.GetInvoice(ctx, id)
}

// List returns a page of issued invoices, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Invoice, int64, error) {
	if s == nil || s.Invoices == nil {
		return nil, 0, errors.New("checkout service not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return s.Invoices.ListInvoices(ctx, perPage, (page-1)*perPage)
}
