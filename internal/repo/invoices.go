package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-billing/internal/checkout"
)

// InvoicesRepo persists issued invoices. Writes run in a transaction covering
// the invoice row, its lines, and the guarded stock decrements; a concurrent
// sale that would drive stock negative rolls the whole invoice back.
type InvoicesRepo struct {
	Pool *pgxpool.Pool
}

const invoiceColumns = `id, invoice_no, customer_name, customer_phone,
	customer_gstin, payment_mode, notes, subtotal, discount, tax, cess,
	round_off, final, tendered, change, status, pdf_path, created_at`

// CreateInvoice writes an invoice, assigns its sequential number, and
// decrements stock per line.
func (r InvoicesRepo) CreateInvoice(ctx context.Context, inv checkout.Invoice) (checkout.Invoice, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return checkout.Invoice{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO invoices (
			customer_name, customer_phone, customer_gstin, payment_mode, notes,
			subtotal, discount, tax, cess, round_off, final, tendered, change,
			status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+invoiceColumns,
		inv.CustomerName, inv.CustomerPhone, inv.CustomerGSTIN, inv.PaymentMode,
		inv.Notes, decimalToNumeric(inv.Subtotal), decimalToNumeric(inv.Discount),
		decimalToNumeric(inv.Tax), decimalToNumeric(inv.Cess),
		decimalToNumeric(inv.RoundOff), decimalToNumeric(inv.Final),
		decimalToNumeric(inv.Tendered), decimalToNumeric(inv.Change),
		inv.Status, inv.CreatedAt,
	)
	stored, err := scanInvoice(row)
	if err != nil {
		return checkout.Invoice{}, err
	}
	invoiceID, err := toUUID(stored.ID)
	if err != nil {
		return checkout.Invoice{}, fmt.Errorf("parse invoice id: %w", err)
	}

	for _, line := range inv.Lines {
		productID, err := toUUID(line.ProductID)
		if err != nil {
			return checkout.Invoice{}, fmt.Errorf("parse product id: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_lines (
				invoice_id, product_id, product_name, hsn_code, quantity,
				unit_price, price_unit, base_quantity, tax_rate, subtotal,
				discount, tax, cess, total
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			invoiceID, productID, line.ProductName, line.HSNCode, line.Quantity,
			decimalToNumeric(line.UnitPrice), line.PriceUnit,
			decimalToNumeric(line.BaseQuantity), decimalToNumeric(line.TaxRate),
			decimalToNumeric(line.Subtotal), decimalToNumeric(line.Discount),
			decimalToNumeric(line.Tax), decimalToNumeric(line.Cess),
			decimalToNumeric(line.Total),
		)
		if err != nil {
			return checkout.Invoice{}, fmt.Errorf("insert line: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`,
			productID, decimalToNumeric(line.BaseQuantity),
		)
		if err != nil {
			return checkout.Invoice{}, fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return checkout.Invoice{}, fmt.Errorf("%s: %w", line.ProductName, checkout.ErrInsufficientStock)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return checkout.Invoice{}, fmt.Errorf("commit: %w", err)
	}
	stored.Lines = inv.Lines
	return stored, nil
}

// GetInvoice loads one invoice with its lines.
func (r InvoicesRepo) GetInvoice(ctx context.Context, id string) (checkout.Invoice, error) {
	invoiceID, err := toUUID(id)
	if err != nil {
		return checkout.Invoice{}, fmt.Errorf("parse invoice id: %w", err)
	}
	row := r.Pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, invoiceID)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return checkout.Invoice{}, checkout.ErrNotFound
	}
	if err != nil {
		return checkout.Invoice{}, err
	}
	inv.Lines, err = r.invoiceLines(ctx, invoiceID)
	return inv, err
}

// ListInvoices returns a page of invoices, newest first, without lines.
func (r InvoicesRepo) ListInvoices(ctx context.Context, limit, offset int) ([]checkout.Invoice, int64, error) {
	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices := []checkout.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// MarkPDFReady records the rendered PDF location.
func (r InvoicesRepo) MarkPDFReady(ctx context.Context, id, path string) error {
	invoiceID, err := toUUID(id)
	if err != nil {
		return fmt.Errorf("parse invoice id: %w", err)
	}
	tag, err := r.Pool.Exec(ctx,
		`UPDATE invoices SET status = $2, pdf_path = $3 WHERE id = $1`,
		invoiceID, checkout.StatusPDFReady, path,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return checkout.ErrNotFound
	}
	return nil
}

func (r InvoicesRepo) invoiceLines(ctx context.Context, invoiceID pgtype.UUID) ([]checkout.Line, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT product_id, product_name, hsn_code, quantity, unit_price,
			price_unit, base_quantity, tax_rate, subtotal, discount, tax, cess,
			total
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY id`,
		invoiceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []checkout.Line{}
	for rows.Next() {
		var (
			line                                                              checkout.Line
			productID                                                         pgtype.UUID
			unitPrice, baseQty, taxRate, subtotal, discount, tax, cess, total pgtype.Numeric
		)
		err := rows.Scan(
			&productID, &line.ProductName, &line.HSNCode, &line.Quantity,
			&unitPrice, &line.PriceUnit, &baseQty, &taxRate, &subtotal,
			&discount, &tax, &cess, &total,
		)
		if err != nil {
			return nil, err
		}
		line.ProductID = uuidString(productID)
		line.UnitPrice = numericToDecimal(unitPrice)
		line.BaseQuantity = numericToDecimal(baseQty)
		line.TaxRate = numericToDecimal(taxRate)
		line.Subtotal = numericToDecimal(subtotal)
		line.Discount = numericToDecimal(discount)
		line.Tax = numericToDecimal(tax)
		line.Cess = numericToDecimal(cess)
		line.Total = numericToDecimal(total)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanInvoice(row pgx.Row) (checkout.Invoice, error) {
	var (
		inv                                                              checkout.Invoice
		id                                                               pgtype.UUID
		invoiceNo                                                        int64
		subtotal, discount, tax, cess, roundOff, final, tendered, change pgtype.Numeric
	)
	err := row.Scan(
		&id, &invoiceNo, &inv.CustomerName, &inv.CustomerPhone,
		&inv.CustomerGSTIN, &inv.PaymentMode, &inv.Notes, &subtotal, &discount,
		&tax, &cess, &roundOff, &final, &tendered, &change, &inv.Status,
		&inv.PDFPath, &inv.CreatedAt,
	)
	if err != nil {
		return checkout.Invoice{}, err
	}
	inv.ID = uuidString(id)
	inv.Number = fmt.Sprintf("INV-%d-%06d", inv.CreatedAt.Year(), invoiceNo)
	inv.Subtotal = numericToDecimal(subtotal)
	inv.Discount = numericToDecimal(discount)
	inv.Tax = numericToDecimal(tax)
	inv.Cess = numericToDecimal(cess)
	inv.RoundOff = numericToDecimal(roundOff)
	inv.Final = numericToDecimal(final)
	inv.Tendered = numericToDecimal(tendered)
	inv.Change = numericToDecimal(change)
	return inv, nil
}
