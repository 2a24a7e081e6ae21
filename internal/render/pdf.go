// Package render produces printable invoice PDFs. Core PDF fonts carry no
// rupee glyph, so amounts are printed with an "Rs." prefix instead of the
// symbol used in API responses.
package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/checkout"
	"github.com/noah-isme/backend-billing/internal/format"
)

// Seller identifies the business on the invoice header.
type Seller struct {
	Name    string
	Address string
	GSTIN   string
	Phone   string
}

// PDF renders a finalized invoice as an A4 tax invoice.
type PDF struct {
	Seller Seller
}

func rs(amount decimal.Decimal) string {
	return "Rs. " + format.INRPlain(amount)
}

// Render returns the invoice as PDF bytes.
func (p PDF) Render(inv checkout.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, p.Seller.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if p.Seller.Address != "" {
		pdf.CellFormat(0, 5, p.Seller.Address, "", 1, "C", false, 0, "")
	}
	if p.Seller.GSTIN != "" {
		pdf.CellFormat(0, 5, "GSTIN: "+p.Seller.GSTIN, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, "TAX INVOICE", "T", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(95, 6, "Invoice No: "+inv.Number, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Date: "+inv.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "R", false, 0, "")
	if inv.CustomerName != "" {
		pdf.CellFormat(95, 6, "Billed To: "+inv.CustomerName, "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 6, "Payment: "+inv.PaymentMode, "", 1, "R", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, "Payment: "+inv.PaymentMode, "", 1, "R", false, 0, "")
	}
	if inv.CustomerGSTIN != "" {
		pdf.CellFormat(0, 6, "Customer GSTIN: "+inv.CustomerGSTIN, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	p.lineTable(pdf, inv)
	p.totals(pdf, inv)

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, "Amount in words: "+format.AmountInWords(inv.Final), "", "L", false)
	if inv.Notes != "" {
		pdf.MultiCell(0, 5, "Notes: "+inv.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var colWidths = []float64{10, 58, 18, 14, 24, 22, 20, 24}

func (p PDF) lineTable(pdf *gofpdf.Fpdf, inv checkout.Invoice) {
	headers := []string{"#", "Item", "HSN", "Qty", "Rate", "Taxable", "GST", "Amount"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, line := range inv.Lines {
		taxable := line.Subtotal.Sub(line.Discount)
		cells := []string{
			strconv.Itoa(i + 1),
			line.ProductName,
			line.HSNCode,
			strconv.FormatInt(line.Quantity, 10),
			rs(line.UnitPrice),
			rs(taxable),
			rs(line.Tax.Add(line.Cess)),
			rs(line.Total),
		}
		aligns := []string{"C", "L", "C", "C", "R", "R", "R", "R"}
		for j, cell := range cells {
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, aligns[j], false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func (p PDF) totals(pdf *gofpdf.Fpdf, inv checkout.Invoice) {
	pdf.Ln(2)
	rows := []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal", rs(inv.Subtotal), false},
		{"Discount", rs(inv.Discount), false},
		{"GST", rs(inv.Tax), false},
		{"CESS", rs(inv.Cess), false},
		{"Round Off", rs(inv.RoundOff), false},
		{"Total", rs(inv.Final), true},
	}
	for _, row := range rows {
		if row.label == "CESS" && inv.Cess.IsZero() {
			continue
		}
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 9)
		pdf.CellFormat(140, 6, "", "", 0, "", false, 0, "")
		pdf.CellFormat(26, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, row.value, "", 1, "R", false, 0, "")
	}
	if inv.PaymentMode == checkout.PayCash && !inv.Change.IsZero() {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(140, 6, "", "", 0, "", false, 0, "")
		pdf.CellFormat(26, 6, "Tendered", "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, rs(inv.Tendered), "", 1, "R", false, 0, "")
		pdf.CellFormat(140, 6, "", "", 0, "", false, 0, "")
		pdf.CellFormat(26, 6, "Change", "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, rs(inv.Change), "", 1, "R", false, 0, "")
	}
}
