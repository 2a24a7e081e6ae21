package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-billing/internal/stockin"
)

// StockEntriesRepo persists stock-in batches. Writes run in a transaction so
// the entry, its lines, and the stock adjustments land together or not at all.
type StockEntriesRepo struct {
	Pool *pgxpool.Pool
}

const stockEntryColumns = `id, supplier_name, reference_no, subtotal, discount,
	tax, cess, round_off, final, created_at`

// CreateEntry writes a stock entry with its lines and bumps each product's
// stock by the line's base quantity.
func (r StockEntriesRepo) CreateEntry(ctx context.Context, e stockin.Entry) (stockin.Entry, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return stockin.Entry{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO stock_entries (
			supplier_name, reference_no, subtotal, discount, tax, cess,
			round_off, final, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+stockEntryColumns,
		e.SupplierName, e.ReferenceNo, decimalToNumeric(e.Subtotal),
		decimalToNumeric(e.Discount), decimalToNumeric(e.Tax),
		decimalToNumeric(e.Cess), decimalToNumeric(e.RoundOff),
		decimalToNumeric(e.Final), e.CreatedAt,
	)
	stored, err := scanStockEntry(row)
	if err != nil {
		return stockin.Entry{}, err
	}
	entryID, err := toUUID(stored.ID)
	if err != nil {
		return stockin.Entry{}, fmt.Errorf("parse entry id: %w", err)
	}

	products := ProductsRepo{DB: tx}
	for _, line := range e.Lines {
		productID, err := toUUID(line.ProductID)
		if err != nil {
			return stockin.Entry{}, fmt.Errorf("parse product id: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_entry_lines (
				entry_id, product_id, product_name, quantity, unit_price,
				price_unit, base_quantity, subtotal, discount, tax, cess, total
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			entryID, productID, line.ProductName, line.Quantity,
			decimalToNumeric(line.UnitPrice), line.PriceUnit,
			decimalToNumeric(line.BaseQuantity), decimalToNumeric(line.Subtotal),
			decimalToNumeric(line.Discount), decimalToNumeric(line.Tax),
			decimalToNumeric(line.Cess), decimalToNumeric(line.Total),
		)
		if err != nil {
			return stockin.Entry{}, fmt.Errorf("insert line: %w", err)
		}
		if err := products.AdjustStock(ctx, line.ProductID, line.BaseQuantity); err != nil {
			return stockin.Entry{}, fmt.Errorf("adjust stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return stockin.Entry{}, fmt.Errorf("commit: %w", err)
	}
	stored.Lines = e.Lines
	return stored, nil
}

// GetEntry loads one stock entry with its lines.
func (r StockEntriesRepo) GetEntry(ctx context.Context, id string) (stockin.Entry, error) {
	entryID, err := toUUID(id)
	if err != nil {
		return stockin.Entry{}, fmt.Errorf("parse entry id: %w", err)
	}
	row := r.Pool.QueryRow(ctx, `SELECT `+stockEntryColumns+` FROM stock_entries WHERE id = $1`, entryID)
	entry, err := scanStockEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return stockin.Entry{}, stockin.ErrNotFound
	}
	if err != nil {
		return stockin.Entry{}, err
	}
	entry.Lines, err = r.entryLines(ctx, entryID)
	return entry, err
}

// ListEntries returns a page of stock entries, newest first, without lines.
func (r StockEntriesRepo) ListEntries(ctx context.Context, limit, offset int) ([]stockin.Entry, int64, error) {
	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM stock_entries`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT `+stockEntryColumns+`
		FROM stock_entries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []stockin.Entry{}
	for rows.Next() {
		entry, err := scanStockEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

func (r StockEntriesRepo) entryLines(ctx context.Context, entryID pgtype.UUID) ([]stockin.Line, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT product_id, product_name, quantity, unit_price, price_unit,
			base_quantity, subtotal, discount, tax, cess, total
		FROM stock_entry_lines
		WHERE entry_id = $1
		ORDER BY id`,
		entryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []stockin.Line{}
	for rows.Next() {
		var (
			line                                                     stockin.Line
			productID                                                pgtype.UUID
			unitPrice, baseQty, subtotal, discount, tax, cess, total pgtype.Numeric
		)
		err := rows.Scan(
			&productID, &line.ProductName, &line.Quantity, &unitPrice,
			&line.PriceUnit, &baseQty, &subtotal, &discount, &tax, &cess, &total,
		)
		if err != nil {
			return nil, err
		}
		line.ProductID = uuidString(productID)
		line.UnitPrice = numericToDecimal(unitPrice)
		line.BaseQuantity = numericToDecimal(baseQty)
		line.Subtotal = numericToDecimal(subtotal)
		line.Discount = numericToDecimal(discount)
		line.Tax = numericToDecimal(tax)
		line.Cess = numericToDecimal(cess)
		line.Total = numericToDecimal(total)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanStockEntry(row pgx.Row) (stockin.Entry, error) {
	var (
		entry                                          stockin.Entry
		id                                             pgtype.UUID
		subtotal, discount, tax, cess, roundOff, final pgtype.Numeric
	)
	err := row.Scan(
		&id, &entry.SupplierName, &entry.ReferenceNo, &subtotal, &discount,
		&tax, &cess, &roundOff, &final, &entry.CreatedAt,
	)
	if err != nil {
		return stockin.Entry{}, err
	}
	entry.ID = uuidString(id)
	entry.Subtotal = numericToDecimal(subtotal)
	entry.Discount = numericToDecimal(discount)
	entry.Tax = numericToDecimal(tax)
	entry.Cess = numericToDecimal(cess)
	entry.RoundOff = numericToDecimal(roundOff)
	entry.Final = numericToDecimal(final)
	return entry, nil
}
