package queue

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/checkout"
	"github.com/noah-isme/backend-billing/internal/obs"
	"github.com/noah-isme/backend-billing/internal/render"
	"github.com/noah-isme/backend-billing/internal/resilience"
)

type fakeInvoiceStore struct {
	invoices map[string]checkout.Invoice
	marked   map[string]string
}

func (f *fakeInvoiceStore) GetInvoice(_ context.Context, id string) (checkout.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return checkout.Invoice{}, checkout.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvoiceStore) MarkPDFReady(_ context.Context, id, path string) error {
	if f.marked == nil {
		f.marked = map[string]string{}
	}
	f.marked[id] = path
	return nil
}

func storedInvoice() checkout.Invoice {
	return checkout.Invoice{
		ID:          "inv-1",
		Number:      "INV-2026-000007",
		PaymentMode: checkout.PayUPI,
		Lines: []checkout.Line{{
			ProductName: "Soap",
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(40),
			Subtotal:    decimal.NewFromInt(80),
			Tax:         decimal.RequireFromString("14.4"),
			Total:       decimal.RequireFromString("94.4"),
		}},
		Subtotal:  decimal.NewFromInt(80),
		Tax:       decimal.RequireFromString("14.4"),
		RoundOff:  decimal.RequireFromString("0.6"),
		Final:     decimal.NewFromInt(95),
		Status:    checkout.StatusFinalized,
		CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func pdfTask(t *testing.T, kind, invoiceID string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(invoicePayload{InvoiceID: invoiceID})
	require.NoError(t, err)
	return asynq.NewTask(kind, payload)
}

func TestPDFHandlerRendersAndMarks(t *testing.T) {
	store := &fakeInvoiceStore{invoices: map[string]checkout.Invoice{"inv-1": storedInvoice()}}
	h := &PDFHandler{
		Invoices: store,
		Renderer: render.PDF{Seller: render.Seller{Name: "Sharma General Store"}},
		OutDir:   t.TempDir(),
		Logger:   zerolog.Nop(),
	}

	err := h.ProcessTask(context.Background(), pdfTask(t, TypeInvoicePDF, "inv-1"))
	require.NoError(t, err)

	path := filepath.Join(h.OutDir, "INV-2026-000007.pdf")
	require.Equal(t, path, store.marked["inv-1"])
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(raw[:4]))
}

func TestPDFHandlerUnknownInvoiceRetries(t *testing.T) {
	h := &PDFHandler{
		Invoices: &fakeInvoiceStore{invoices: map[string]checkout.Invoice{}},
		OutDir:   t.TempDir(),
		Logger:   zerolog.Nop(),
	}
	err := h.ProcessTask(context.Background(), pdfTask(t, TypeInvoicePDF, "missing"))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestWebhookHandlerSignsAndDelivers(t *testing.T) {
	store := &fakeInvoiceStore{invoices: map[string]checkout.Invoice{"inv-1": storedInvoice()}}
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := &WebhookHandler{
		Invoices: store,
		URL:      srv.URL,
		Secret:   "topsecret",
		Logger:   zerolog.Nop(),
	}
	err := h.ProcessTask(context.Background(), pdfTask(t, TypeInvoiceWebhook, "inv-1"))
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	require.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSig)

	var delivered struct {
		Event   string           `json:"event"`
		Invoice checkout.Invoice `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &delivered))
	require.Equal(t, "invoice.finalized", delivered.Event)
	require.Equal(t, "INV-2026-000007", delivered.Invoice.Number)
}

func TestWebhookHandlerFailureRetries(t *testing.T) {
	store := &fakeInvoiceStore{invoices: map[string]checkout.Invoice{"inv-1": storedInvoice()}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := &WebhookHandler{Invoices: store, URL: srv.URL, Logger: zerolog.Nop()}
	err := h.ProcessTask(context.Background(), pdfTask(t, TypeInvoiceWebhook, "inv-1"))
	require.Error(t, err)
}

func TestWebhookHandlerCountsRejectionsAndErrors(t *testing.T) {
	obs.MustRegisterDomainMetrics("billing", prometheus.NewRegistry())
	store := &fakeInvoiceStore{invoices: map[string]checkout.Invoice{"inv-1": storedInvoice()}}
	status := http.StatusUnprocessableEntity
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	h := &WebhookHandler{Invoices: store, URL: srv.URL, Logger: zerolog.Nop()}
	rejectedBefore := testutil.ToFloat64(obs.WebhookDeliveriesTotal.WithLabelValues("rejected"))
	errorBefore := testutil.ToFloat64(obs.WebhookDeliveriesTotal.WithLabelValues("error"))

	require.Error(t, h.ProcessTask(context.Background(), pdfTask(t, TypeInvoiceWebhook, "inv-1")))
	require.Equal(t, rejectedBefore+1, testutil.ToFloat64(obs.WebhookDeliveriesTotal.WithLabelValues("rejected")))

	status = http.StatusBadGateway
	require.Error(t, h.ProcessTask(context.Background(), pdfTask(t, TypeInvoiceWebhook, "inv-1")))
	require.Equal(t, errorBefore+1, testutil.ToFloat64(obs.WebhookDeliveriesTotal.WithLabelValues("error")))
	require.Equal(t, rejectedBefore+1, testutil.ToFloat64(obs.WebhookDeliveriesTotal.WithLabelValues("rejected")))
}

func TestWebhookHandlerOpenBreakerSkipsDelivery(t *testing.T) {
	store := &fakeInvoiceStore{invoices: map[string]checkout.Invoice{"inv-1": storedInvoice()}}
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	breaker.Allow(ctx)
	breaker.Report(ctx, false)

	h := &WebhookHandler{Invoices: store, URL: srv.URL, Breaker: breaker, Logger: zerolog.Nop()}
	err := h.ProcessTask(ctx, pdfTask(t, TypeInvoiceWebhook, "inv-1"))
	require.Error(t, err)
	require.Zero(t, hits, "open breaker must not reach the endpoint")
}

func TestWebhookHandlerDisabled(t *testing.T) {
	h := &WebhookHandler{Invoices: &fakeInvoiceStore{}, Logger: zerolog.Nop()}
	err := h.ProcessTask(context.Background(), pdfTask(t, TypeInvoiceWebhook, "inv-1"))
	require.NoError(t, err)
}
