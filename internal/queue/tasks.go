// Package queue carries the background work that follows an issued invoice:
// PDF rendering and webhook delivery, both running on asynq so a crashed
// worker retries instead of losing the job.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names.
const (
	TypeInvoicePDF     = "invoice:pdf"
	TypeInvoiceWebhook = "invoice:webhook"
)

type invoicePayload struct {
	InvoiceID string `json:"invoiceId"`
}

// Client enqueues invoice follow-up tasks.
type Client struct {
	Asynq *asynq.Client
}

// EnqueueInvoicePDF schedules a PDF render for the invoice.
func (c *Client) EnqueueInvoicePDF(ctx context.Context, invoiceID string) error {
	return c.enqueue(ctx, TypeInvoicePDF, invoiceID,
		asynq.MaxRetry(5), asynq.Timeout(time.Minute))
}

// EnqueueInvoiceWebhook schedules a webhook delivery for the invoice.
func (c *Client) EnqueueInvoiceWebhook(ctx context.Context, invoiceID string) error {
	return c.enqueue(ctx, TypeInvoiceWebhook, invoiceID,
		asynq.MaxRetry(10), asynq.Timeout(30*time.Second))
}

func (c *Client) enqueue(ctx context.Context, kind, invoiceID string, opts ...asynq.Option) error {
	if c == nil || c.Asynq == nil {
		return fmt.Errorf("queue client not configured")
	}
	payload, err := json.Marshal(invoicePayload{InvoiceID: invoiceID})
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", kind, err)
	}
	if _, err := c.Asynq.EnqueueContext(ctx, asynq.NewTask(kind, payload), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return nil
}
