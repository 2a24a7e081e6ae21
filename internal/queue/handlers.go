package queue

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-billing/internal/checkout"
	"github.com/noah-isme/backend-billing/internal/events"
	"github.com/noah-isme/backend-billing/internal/obs"
	"github.com/noah-isme/backend-billing/internal/render"
	"github.com/noah-isme/backend-billing/internal/resilience"
)

func countWebhook(result string) {
	if obs.WebhookDeliveriesTotal != nil {
		obs.WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	}
}

// InvoiceStore is the invoice persistence the workers need.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id string) (checkout.Invoice, error)
	MarkPDFReady(ctx context.Context, id, path string) error
}

// PDFHandler renders invoice PDFs to disk.
type PDFHandler struct {
	Invoices InvoiceStore
	Renderer render.PDF
	OutDir   string
	Events   *events.Bus
	Logger   zerolog.Logger
}

// ProcessTask handles invoice:pdf.
func (h *PDFHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload invoicePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	inv, err := h.Invoices.GetInvoice(ctx, payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %s: %w", payload.InvoiceID, err)
	}
	started := time.Now()
	out, err := h.Renderer.Render(inv)
	if err != nil {
		return fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	if obs.PDFRenderLatency != nil {
		obs.PDFRenderLatency.Observe(float64(time.Since(started).Milliseconds()))
	}
	if err := os.MkdirAll(h.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(h.OutDir, inv.Number+".pdf")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := h.Invoices.MarkPDFReady(ctx, inv.ID, path); err != nil {
		return fmt.Errorf("mark pdf ready: %w", err)
	}
	if h.Events != nil {
		if _, err := h.Events.Emit(ctx, events.TopicInvoicePDFReady, inv.ID, map[string]any{"path": path}); err != nil {
			h.Logger.Warn().Err(err).Str("invoice", inv.Number).Msg("emit pdf event")
		}
	}
	h.Logger.Info().Str("invoice", inv.Number).Str("path", path).Msg("invoice pdf rendered")
	return nil
}

// WebhookHandler delivers issued invoices to a configured endpoint, signing
// the body so the receiver can verify origin. A circuit breaker stops
// hammering a receiver that is down; asynq's own retry schedule picks the
// delivery back up once the breaker lets requests through again.
type WebhookHandler struct {
	Invoices InvoiceStore
	URL      string
	Secret   string
	Client   *http.Client
	Breaker  *resilience.Breaker
	Logger   zerolog.Logger
}

func (h *WebhookHandler) httpClient() resilience.HTTPClient {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	return resilience.HTTPClient{Client: client, Breaker: h.Breaker, MaxAttempts: 1}
}

// ProcessTask handles invoice:webhook.
func (h *WebhookHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if h.URL == "" {
		// webhook delivery disabled
		return nil
	}
	var payload invoicePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	inv, err := h.Invoices.GetInvoice(ctx, payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %s: %w", payload.InvoiceID, err)
	}
	body, err := json.Marshal(map[string]any{"event": "invoice.finalized", "invoice": inv})
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Secret != "" {
		req.Header.Set("X-Signature", sign(h.Secret, body))
	}
	resp, err := h.httpClient().Do(ctx, req)
	if err != nil {
		countWebhook("error")
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		countWebhook("error")
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		countWebhook("rejected")
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	countWebhook("delivered")
	h.Logger.Info().Str("invoice", inv.Number).Int("status", resp.StatusCode).Msg("invoice webhook delivered")
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
