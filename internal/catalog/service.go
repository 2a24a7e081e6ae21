package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/events"
	"github.com/noah-isme/backend-billing/internal/gst"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Store is the persistence surface the catalog service depends on.
type Store interface {
	Insert(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, params ListParams) ([]Product, int64, error)
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Page  int
	Limit int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// Service orchestrates catalog persistence, validation, and caching.
type Service struct {
	store        Store
	cache        *Cache
	events       *events.Bus
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	Events       *events.Bus
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		events:       cfg.Events,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// List returns a page of products, served from cache when possible.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	var cached ListResult
	key := s.cache.listKey(ctx, params)
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	_ = s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, productKey(id), &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, productKey(id), p)
	return p, nil
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := s.checkPricingConfig(p); err != nil {
		return Product{}, err
	}
	created, err := s.store.Insert(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(ctx, created.ID)
	s.emit(ctx, events.TopicProductCreated, created.ID, map[string]any{"name": created.Name, "sku": created.SKU})
	return created, nil
}

// UpdateProduct validates and persists changes to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if err := s.checkPricingConfig(p); err != nil {
		return Product{}, err
	}
	updated, err := s.store.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(ctx, updated.ID)
	s.emit(ctx, events.TopicProductUpdated, updated.ID, map[string]any{"name": updated.Name, "sku": updated.SKU})
	return updated, nil
}

// Remove deletes a product.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	s.emit(ctx, events.TopicProductDeleted, id, nil)
	return nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, aggregateID, payload); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("emit catalog event")
	}
}

// checkPricingConfig runs the engine-level validation over the product's
// pricing configuration so a line built from it later is always computable.
func (s *Service) checkPricingConfig(p Product) error {
	errs := gst.Validate(p.PricingLine(1))
	if len(errs) == 0 {
		return nil
	}
	details := make([]map[string]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, map[string]string{"field": e.Field, "message": e.Message})
	}
	return common.NewAppError("VALIDATION", "invalid pricing configuration", http.StatusUnprocessableEntity, nil).WithDetails(details)
}

func badRequest(field, message string, err error) error {
	return common.NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err).WithDetails(map[string]string{"field": field})
}
