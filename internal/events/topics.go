package events

// Topic constants for domain events emitted by the billing services.
const (
	TopicInvoiceFinalized = "invoice.finalized"
	TopicInvoicePDFReady  = "invoice.pdf_ready"
	TopicStockReceived    = "stock.received"
	TopicProductCreated   = "product.created"
	TopicProductUpdated   = "product.updated"
	TopicProductDeleted   = "product.deleted"
)

// DefaultTopics returns the canonical list of topics the trail records.
func DefaultTopics() []string {
	return []string{
		TopicInvoiceFinalized,
		TopicInvoicePDFReady,
		TopicStockReceived,
		TopicProductCreated,
		TopicProductUpdated,
		TopicProductDeleted,
	}
}
