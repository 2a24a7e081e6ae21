package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-billing/internal/analytics"
)

// ReportsRepo runs the aggregate queries behind the reporting endpoints.
type ReportsRepo struct {
	Pool *pgxpool.Pool
}

// SalesDailyRange aggregates invoices per day in [from, to).
func (r ReportsRepo) SalesDailyRange(ctx context.Context, from, to time.Time) ([]analytics.DailySales, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
			count(*) AS invoices,
			coalesce(sum(subtotal), 0),
			coalesce(sum(discount), 0),
			coalesce(sum(tax), 0),
			coalesce(sum(cess), 0),
			coalesce(sum(final), 0)
		FROM invoices
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY 1
		ORDER BY 1`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []analytics.DailySales{}
	for rows.Next() {
		var (
			row                                  analytics.DailySales
			day                                  pgtype.Timestamptz
			subtotal, discount, tax, cess, final pgtype.Numeric
		)
		if err := rows.Scan(&day, &row.Invoices, &subtotal, &discount, &tax, &cess, &final); err != nil {
			return nil, err
		}
		row.Day = day.Time
		row.Subtotal = numericToDecimal(subtotal)
		row.Discount = numericToDecimal(discount)
		row.Tax = numericToDecimal(tax)
		row.Cess = numericToDecimal(cess)
		row.Final = numericToDecimal(final)
		items = append(items, row)
	}
	return items, rows.Err()
}

// TopProducts ranks products by base quantity sold in [from, to).
func (r ReportsRepo) TopProducts(ctx context.Context, from, to time.Time, limit, offset int) ([]analytics.TopProduct, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT l.product_id, l.product_name,
			coalesce(sum(l.base_quantity), 0) AS quantity_sold,
			coalesce(sum(l.total), 0) AS amount
		FROM invoice_lines l
		JOIN invoices i ON i.id = l.invoice_id
		WHERE i.created_at >= $1 AND i.created_at < $2
		GROUP BY l.product_id, l.product_name
		ORDER BY quantity_sold DESC
		LIMIT $3 OFFSET $4`,
		from, to, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []analytics.TopProduct{}
	for rows.Next() {
		var (
			row              analytics.TopProduct
			productID        pgtype.UUID
			quantity, amount pgtype.Numeric
		)
		if err := rows.Scan(&productID, &row.Name, &quantity, &amount); err != nil {
			return nil, err
		}
		row.ProductID = uuidString(productID)
		row.QuantitySold = numericToDecimal(quantity)
		row.Amount = numericToDecimal(amount)
		items = append(items, row)
	}
	return items, rows.Err()
}

// TaxSummaryRange groups collected tax by rate in [from, to). The taxable
// base is the post-discount line amount the rate was applied to.
func (r ReportsRepo) TaxSummaryRange(ctx context.Context, from, to time.Time) ([]analytics.TaxSummary, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT l.tax_rate,
			coalesce(sum(l.subtotal - l.discount), 0) AS taxable,
			coalesce(sum(l.tax), 0),
			coalesce(sum(l.cess), 0)
		FROM invoice_lines l
		JOIN invoices i ON i.id = l.invoice_id
		WHERE i.created_at >= $1 AND i.created_at < $2
		GROUP BY l.tax_rate
		ORDER BY l.tax_rate`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []analytics.TaxSummary{}
	for rows.Next() {
		var (
			row                      analytics.TaxSummary
			rate, taxable, tax, cess pgtype.Numeric
		)
		if err := rows.Scan(&rate, &taxable, &tax, &cess); err != nil {
			return nil, err
		}
		row.TaxRate = numericToDecimal(rate)
		row.Taxable = numericToDecimal(taxable)
		row.Tax = numericToDecimal(tax)
		row.Cess = numericToDecimal(cess)
		items = append(items, row)
	}
	return items, rows.Err()
}
