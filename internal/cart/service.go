package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/catalog"
	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/gst"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Item is one product in a stored cart. Quantity is in the product's
// price-unit terms, the same number the cashier keys in.
type Item struct {
	ProductID     string          `json:"productId"`
	Quantity      int64           `json:"quantity"`
	DiscountKind  string          `json:"discountKind,omitempty"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

// Cart is the stored state: items plus an optional bill-level discount.
// Pricing is never stored; it is recomputed from the catalog on every read so
// a price change lands on the next look at the cart.
type Cart struct {
	ID            string          `json:"id"`
	Items         []Item          `json:"items"`
	DiscountKind  string          `json:"discountKind,omitempty"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PricedLine is a cart item priced against the current catalog.
type PricedLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	PriceUnit   string          `json:"priceUnit"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Cess        decimal.Decimal `json:"cess"`
	Total       decimal.Decimal `json:"total"`
}

// Totals is the bill summary for a priced cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Cess     decimal.Decimal `json:"cess"`
	RoundOff decimal.Decimal `json:"roundOff"`
	Final    decimal.Decimal `json:"final"`
}

// View is a cart priced against the current catalog.
type View struct {
	ID            string          `json:"id"`
	Lines         []PricedLine    `json:"lines"`
	DiscountKind  string          `json:"discountKind,omitempty"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Totals        Totals          `json:"totals"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ProductSource loads catalog products for pricing.
type ProductSource interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// Service encapsulates cart domain operations on top of Redis.
type Service struct {
	Redis    *redis.Client
	Products ProductSource
	TTL      time.Duration
	Now      func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cartKey(id string) string {
	return "cart:" + id
}

// Create starts an empty cart and returns it.
func (s *Service) Create(ctx context.Context) (Cart, error) {
	if s == nil || s.Redis == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c := Cart{
		ID:        uuid.NewString(),
		Items:     []Item{},
		UpdatedAt: s.now(),
	}
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Load reads the stored cart state without pricing it.
func (s *Service) Load(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.Redis == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	raw, err := s.Redis.Get(ctx, cartKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// Get loads and prices a cart against the current catalog.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	c, err := s.Load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.Price(ctx, c)
}

// SetItem sets the quantity for a product in the cart. Quantity zero removes
// the item; an unknown product or one whose pricing configuration fails
// validation is rejected before the cart is touched.
func (s *Service) SetItem(ctx context.Context, id string, item Item) (View, error) {
	if item.Quantity < 0 {
		return View{}, fmt.Errorf("quantity must not be negative: %w", ErrInvalidInput)
	}
	c, err := s.Load(ctx, id)
	if err != nil {
		return View{}, err
	}

	if item.Quantity == 0 {
		next := c.Items[:0]
		for _, it := range c.Items {
			if it.ProductID != item.ProductID {
				next = append(next, it)
			}
		}
		c.Items = next
		return s.store(ctx, c)
	}

	product, err := s.Products.Get(ctx, item.ProductID)
	if err != nil {
		return View{}, err
	}
	if errs := gst.Validate(itemLine(product, item)); len(errs) > 0 {
		return View{}, itemValidationError(errs)
	}

	replaced := false
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.Items = append(c.Items, item)
	}
	return s.store(ctx, c)
}

// SetDiscount sets or clears the bill-level discount.
func (s *Service) SetDiscount(ctx context.Context, id, kind string, value decimal.Decimal) (View, error) {
	switch kind {
	case "", string(gst.DiscountPercent), string(gst.DiscountAmount):
	default:
		return View{}, fmt.Errorf("unknown discount kind %q: %w", kind, ErrInvalidInput)
	}
	if value.IsNegative() {
		return View{}, fmt.Errorf("discount must not be negative: %w", ErrInvalidInput)
	}
	if kind == string(gst.DiscountPercent) && value.GreaterThan(decimal.NewFromInt(100)) {
		return View{}, fmt.Errorf("percentage discount above 100: %w", ErrInvalidInput)
	}
	c, err := s.Load(ctx, id)
	if err != nil {
		return View{}, err
	}
	c.DiscountKind = kind
	c.DiscountValue = value
	return s.store(ctx, c)
}

// Delete drops the cart. Deleting a missing cart is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Redis == nil {
		return errors.New("cart service not configured")
	}
	return s.Redis.Del(ctx, cartKey(id)).Err()
}

// Price recomputes every line and the bill totals from the current catalog.
func (s *Service) Price(ctx context.Context, c Cart) (View, error) {
	if s == nil || s.Products == nil {
		return View{}, errors.New("cart service not configured")
	}
	lines := make([]PricedLine, 0, len(c.Items))
	pricing := make([]gst.Line, 0, len(c.Items))
	for _, it := range c.Items {
		product, err := s.Products.Get(ctx, it.ProductID)
		if err != nil {
			return View{}, fmt.Errorf("price item %s: %w", it.ProductID, err)
		}
		pl := itemLine(product, it)
		lt := gst.LineTotal(pl)
		pricing = append(pricing, pl)
		lines = append(lines, PricedLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   pl.UnitPrice,
			PriceUnit:   string(pl.PriceUnit),
			Subtotal:    lt.Subtotal,
			Discount:    lt.Discount,
			Tax:         lt.Tax,
			Cess:        lt.Cess,
			Total:       lt.Total,
		})
	}
	totals := gst.InvoiceTotal(pricing, gst.InvoiceDiscount{
		Kind:  gst.DiscountKind(c.DiscountKind),
		Value: c.DiscountValue,
	})
	return View{
		ID:            c.ID,
		Lines:         lines,
		DiscountKind:  c.DiscountKind,
		DiscountValue: c.DiscountValue,
		Totals: Totals{
			Subtotal: totals.Subtotal,
			Discount: totals.Discount,
			Tax:      totals.Tax,
			Cess:     totals.Cess,
			RoundOff: totals.RoundOff,
			Final:    totals.Final,
		},
		UpdatedAt: c.UpdatedAt,
	}, nil
}

func (s *Service) store(ctx context.Context, c Cart) (View, error) {
	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return View{}, err
	}
	return s.Price(ctx, c)
}

func (s *Service) save(ctx context.Context, c Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.Redis.Set(ctx, cartKey(c.ID), raw, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func itemLine(p catalog.Product, it Item) gst.Line {
	l := p.PricingLine(it.Quantity)
	l.DiscountKind = gst.DiscountKind(it.DiscountKind)
	l.DiscountValue = it.DiscountValue
	return l
}

func itemValidationError(errs []gst.FieldError) error {
	details := make([]map[string]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, map[string]string{"field": e.Field, "message": e.Message})
	}
	return common.NewAppError("VALIDATION", "item cannot be priced", http.StatusUnprocessableEntity, ErrInvalidInput).WithDetails(details)
}
