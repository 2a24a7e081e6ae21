// Package analytics serves the reporting reads behind the dashboard: daily
// sales, top-selling products, and the tax summary a GST filing starts from.
// Results are cached in Redis since the queries aggregate whole date ranges.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DailySales is one day's invoice aggregate.
type DailySales struct {
	Day      time.Time       `json:"day"`
	Invoices int64           `json:"invoices"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Cess     decimal.Decimal `json:"cess"`
	Final    decimal.Decimal `json:"final"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	QuantitySold decimal.Decimal `json:"quantitySold"`
	Amount       decimal.Decimal `json:"amount"`
}

// TaxSummary aggregates collected tax by rate. Taxable is the discounted base
// the rate applied to, which is what a GSTR return wants per slab.
type TaxSummary struct {
	TaxRate decimal.Decimal `json:"taxRate"`
	Taxable decimal.Decimal `json:"taxable"`
	Tax     decimal.Decimal `json:"tax"`
	Cess    decimal.Decimal `json:"cess"`
}

// Querier defines the database access required for the reports.
type Querier interface {
	SalesDailyRange(ctx context.Context, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit, offset int) ([]TopProduct, error)
	TaxSummaryRange(ctx context.Context, from, to time.Time) ([]TaxSummary, error)
}

// Service provides cached access to the reporting queries.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns daily sales between from (inclusive) and to (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("rpt", "sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []DailySales
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesDailyRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns best sellers in the range ordered by quantity sold.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit, offset int) ([]TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("rpt", "top", from.Format("2006-01-02"), to.Format("2006-01-02"), limit, offset)
	var cached []TopProduct
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TaxSummaryRange returns collected tax grouped by rate for the range.
func (s *Service) TaxSummaryRange(ctx context.Context, from, to time.Time) ([]TaxSummary, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("rpt", "tax", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []TaxSummary
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TaxSummaryRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *Service) getCached(ctx context.Context, key string, dest any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
