package stockin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/catalog"
	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/events"
	"github.com/noah-isme/backend-billing/internal/gst"
)

// ErrNotFound indicates the requested stock entry does not exist.
var ErrNotFound = errors.New("stock entry not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Line is one received product inside a stock entry, with computed amounts
// snapshotted at receiving time.
type Line struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	PriceUnit    string          `json:"priceUnit"`
	BaseQuantity decimal.Decimal `json:"baseQuantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
	Cess         decimal.Decimal `json:"cess"`
	Total        decimal.Decimal `json:"total"`
}

// Entry is a stock-in batch: supplier reference plus received lines and the
// batch totals, rounded once at the batch level.
type Entry struct {
	ID           string          `json:"id"`
	SupplierName string          `json:"supplierName"`
	ReferenceNo  string          `json:"referenceNo"`
	Lines        []Line          `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
	Cess         decimal.Decimal `json:"cess"`
	RoundOff     decimal.Decimal `json:"roundOff"`
	Final        decimal.Decimal `json:"final"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// LineInput describes one line of a receive request. UnitPrice overrides the
// catalog price when the purchase price differs from the sale price.
type LineInput struct {
	ProductID     string           `json:"productId"`
	Quantity      int64            `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unitPrice"`
	PriceUnit     string           `json:"priceUnit"`
	DiscountKind  string           `json:"discountKind"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
}

// Input is a receive request.
type Input struct {
	SupplierName  string          `json:"supplierName"`
	ReferenceNo   string          `json:"referenceNo"`
	Lines         []LineInput     `json:"lines"`
	DiscountKind  string          `json:"discountKind"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

// ProductSource loads catalog products for pricing.
type ProductSource interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// Store persists stock entries. CreateEntry must write the entry, its lines,
// and the stock adjustments atomically.
type Store interface {
	CreateEntry(ctx context.Context, e Entry) (Entry, error)
	GetEntry(ctx context.Context, id string) (Entry, error)
	ListEntries(ctx context.Context, limit, offset int) ([]Entry, int64, error)
}

// Service encapsulates stock-in domain operations.
type Service struct {
	Products ProductSource
	Entries  Store
	Events   *events.Bus
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Receive prices and persists a stock-in batch. Every line is validated
// before any computation; the batch is rejected as a whole on the first
// invalid line so partial receives never hit the ledger.
func (s *Service) Receive(ctx context.Context, in Input) (Entry, error) {
	if s == nil || s.Products == nil || s.Entries == nil {
		return Entry{}, errors.New("stockin service not configured")
	}
	if strings.TrimSpace(in.SupplierName) == "" {
		return Entry{}, fmt.Errorf("supplier name required: %w", ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return Entry{}, fmt.Errorf("at least one line required: %w", ErrInvalidInput)
	}

	pricingLines := make([]gst.Line, 0, len(in.Lines))
	entryLines := make([]Line, 0, len(in.Lines))
	for i, li := range in.Lines {
		if li.Quantity < 0 {
			return Entry{}, fmt.Errorf("line %d: quantity must not be negative: %w", i+1, ErrInvalidInput)
		}
		product, err := s.Products.Get(ctx, li.ProductID)
		if err != nil {
			return Entry{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		pl := product.PricingLine(li.Quantity)
		if li.UnitPrice != nil {
			pl.UnitPrice = *li.UnitPrice
		}
		if li.PriceUnit != "" {
			pl.PriceUnit = gst.PriceUnit(li.PriceUnit)
		}
		pl.DiscountKind = gst.DiscountKind(li.DiscountKind)
		pl.DiscountValue = li.DiscountValue
		if errs := gst.Validate(pl); len(errs) > 0 {
			return Entry{}, lineValidationError(i+1, errs)
		}
		lt := gst.LineTotal(pl)
		pricingLines = append(pricingLines, pl)
		entryLines = append(entryLines, Line{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     li.Quantity,
			UnitPrice:    pl.UnitPrice,
			PriceUnit:    string(pl.PriceUnit),
			BaseQuantity: gst.BaseQuantity(pl),
			Subtotal:     lt.Subtotal,
			Discount:     lt.Discount,
			Tax:          lt.Tax,
			Cess:         lt.Cess,
			Total:        lt.Total,
		})
	}

	totals := gst.InvoiceTotal(pricingLines, gst.InvoiceDiscount{
		Kind:  gst.DiscountKind(in.DiscountKind),
		Value: in.DiscountValue,
	})
	entry := Entry{
		SupplierName: strings.TrimSpace(in.SupplierName),
		ReferenceNo:  strings.TrimSpace(in.ReferenceNo),
		Lines:        entryLines,
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Tax:          totals.Tax,
		Cess:         totals.Cess,
		RoundOff:     totals.RoundOff,
		Final:        totals.Final,
		CreatedAt:    s.now(),
	}
	stored, err := s.Entries.CreateEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	if s.Events != nil {
		_, err := s.Events.Emit(ctx, events.TopicStockReceived, stored.ID, map[string]any{
			"supplierName": stored.SupplierName,
			"lines":        len(stored.Lines),
			"final":        stored.Final,
		})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("entry_id", stored.ID).Msg("emit stock event")
		}
	}
	return stored, nil
}

// Get loads a single stock entry with its lines.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	if s == nil || s.Entries == nil {
		return Entry{}, errors.New("stockin service not configured")
	}
	return s.Entries.GetEntry(ctx, id)
}

// List returns a page of stock entries, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Entry, int64, error) {
	if s == nil || s.Entries == nil {
		return nil, 0, errors.New("stockin service not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return s.Entries.ListEntries(ctx, perPage, (page-1)*perPage)
}

func lineValidationError(lineNo int, errs []gst.FieldError) error {
	details := make([]map[string]any, 0, len(errs))
	for _, e := range errs {
		details = append(details, map[string]any{"line": lineNo, "field": e.Field, "message": e.Message})
	}
	return common.NewAppError("VALIDATION", fmt.Sprintf("line %d is invalid", lineNo), http.StatusUnprocessableEntity, ErrInvalidInput).WithDetails(details)
}
