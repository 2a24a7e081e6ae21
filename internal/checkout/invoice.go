package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment modes accepted at the counter.
const (
	PayCash = "cash"
	PayUPI  = "upi"
	PayCard = "card"
)

// Invoice statuses. An invoice is final the moment it is written; the PDF
// status only tracks the background render.
const (
	StatusFinalized = "finalized"
	StatusPDFReady  = "pdf_ready"
)

// Line is one sold item, with all amounts snapshotted at sale time so later
// catalog edits never change an issued invoice.
type Line struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	HSNCode      string          `json:"hsnCode,omitempty"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	PriceUnit    string          `json:"priceUnit"`
	BaseQuantity decimal.Decimal `json:"baseQuantity"`
	TaxRate      decimal.Decimal `json:"taxRate"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
	Cess         decimal.Decimal `json:"cess"`
	Total        decimal.Decimal `json:"total"`
}

// Invoice is an issued tax invoice.
type Invoice struct {
	ID            string          `json:"id"`
	Number        string          `json:"number"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	CustomerGSTIN string          `json:"customerGstin,omitempty"`
	PaymentMode   string          `json:"paymentMode"`
	Notes         string          `json:"notes,omitempty"`
	Lines         []Line          `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Cess          decimal.Decimal `json:"cess"`
	RoundOff      decimal.Decimal `json:"roundOff"`
	Final         decimal.Decimal `json:"final"`
	Tendered      decimal.Decimal `json:"tendered"`
	Change        decimal.Decimal `json:"change"`
	Status        string          `json:"status"`
	PDFPath       string          `json:"pdfPath,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
