package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/catalog"
)

// ProductsRepo persists catalog products.
type ProductsRepo struct {
	DB DBTX
}

const productColumns = `id, name, sku, hsn_code, primary_unit, secondary_unit,
	use_compound_unit, conversion_ratio, price_unit, unit_price, tax_rate,
	cess_kind, cess_rate, cess_per_unit, stock, created_at, updated_at`

// Insert creates a product and returns the stored row.
func (r ProductsRepo) Insert(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products (
			name, sku, hsn_code, primary_unit, secondary_unit, use_compound_unit,
			conversion_ratio, price_unit, unit_price, tax_rate, cess_kind,
			cess_rate, cess_per_unit, stock
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+productColumns,
		p.Name, p.SKU, p.HSNCode, p.PrimaryUnit, p.SecondaryUnit, p.UseCompoundUnit,
		decimalToNumeric(p.ConversionRatio), p.PriceUnit, decimalToNumeric(p.UnitPrice),
		decimalToNumeric(p.TaxRate), p.CessKind, decimalToNumeric(p.CessRate),
		decimalToNumeric(p.CessPerUnit), decimalToNumeric(p.Stock),
	)
	return scanProduct(row)
}

// Update replaces the mutable fields of a product.
func (r ProductsRepo) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	id, err := toUUID(p.ID)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("parse product id: %w", err)
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE products SET
			name = $2, sku = $3, hsn_code = $4, primary_unit = $5,
			secondary_unit = $6, use_compound_unit = $7, conversion_ratio = $8,
			price_unit = $9, unit_price = $10, tax_rate = $11, cess_kind = $12,
			cess_rate = $13, cess_per_unit = $14, stock = $15, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, p.Name, p.SKU, p.HSNCode, p.PrimaryUnit, p.SecondaryUnit,
		p.UseCompoundUnit, decimalToNumeric(p.ConversionRatio), p.PriceUnit,
		decimalToNumeric(p.UnitPrice), decimalToNumeric(p.TaxRate), p.CessKind,
		decimalToNumeric(p.CessRate), decimalToNumeric(p.CessPerUnit),
		decimalToNumeric(p.Stock),
	)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return product, err
}

// Delete removes a product by id.
func (r ProductsRepo) Delete(ctx context.Context, id string) error {
	pid, err := toUUID(id)
	if err != nil {
		return fmt.Errorf("parse product id: %w", err)
	}
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, pid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// GetByID loads one product.
func (r ProductsRepo) GetByID(ctx context.Context, id string) (catalog.Product, error) {
	pid, err := toUUID(id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("parse product id: %w", err)
	}
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, pid)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return product, err
}

// List returns a page of products with an optional name/SKU search.
func (r ProductsRepo) List(ctx context.Context, params catalog.ListParams) ([]catalog.Product, int64, error) {
	pattern := "%" + params.Query + "%"
	var total int64
	err := r.DB.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE ($1 = '%%' OR name ILIKE $1 OR sku ILIKE $1)`,
		pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	offset := (params.Page - 1) * params.Limit
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '%%' OR name ILIKE $1 OR sku ILIKE $1)
		ORDER BY name
		LIMIT $2 OFFSET $3`,
		pattern, params.Limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// AdjustStock adds delta (in base units, may be negative) to a product's
// stock. Run it against a transaction by constructing ProductsRepo{DB: tx}.
func (r ProductsRepo) AdjustStock(ctx context.Context, id string, delta decimal.Decimal) error {
	pid, err := toUUID(id)
	if err != nil {
		return fmt.Errorf("parse product id: %w", err)
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		pid, decimalToNumeric(delta),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var (
		p                                        catalog.Product
		id                                       pgtype.UUID
		ratio, price, taxRate, cessRate, cessPer pgtype.Numeric
		stock                                    pgtype.Numeric
		createdAt, updatedAt                     pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &p.Name, &p.SKU, &p.HSNCode, &p.PrimaryUnit, &p.SecondaryUnit,
		&p.UseCompoundUnit, &ratio, &p.PriceUnit, &price, &taxRate,
		&p.CessKind, &cessRate, &cessPer, &stock, &createdAt, &updatedAt,
	)
	if err != nil {
		return catalog.Product{}, err
	}
	p.ID = uuidString(id)
	p.ConversionRatio = numericToDecimal(ratio)
	p.UnitPrice = numericToDecimal(price)
	p.TaxRate = numericToDecimal(taxRate)
	p.CessRate = numericToDecimal(cessRate)
	p.CessPerUnit = numericToDecimal(cessPer)
	p.Stock = numericToDecimal(stock)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}
