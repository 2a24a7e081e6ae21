package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/common"
)

// Handler exposes product catalog endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, validate: validator.New()}
}

type productPayload struct {
	Name            string          `json:"name" validate:"required,max=200"`
	SKU             string          `json:"sku" validate:"required,max=64"`
	HSNCode         string          `json:"hsnCode" validate:"omitempty,max=8"`
	PrimaryUnit     string          `json:"primaryUnit" validate:"required,max=32"`
	SecondaryUnit   string          `json:"secondaryUnit" validate:"omitempty,max=32"`
	UseCompoundUnit bool            `json:"useCompoundUnit"`
	ConversionRatio decimal.Decimal `json:"conversionRatio"`
	PriceUnit       string          `json:"priceUnit" validate:"omitempty,oneof=primary secondary"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	CessKind        string          `json:"cessKind" validate:"omitempty,oneof=none value quantity value_and_quantity"`
	CessRate        decimal.Decimal `json:"cessRate"`
	CessPerUnit     decimal.Decimal `json:"cessPerUnit"`
	Stock           decimal.Decimal `json:"stock"`
}

func (p productPayload) toProduct() Product {
	priceUnit := p.PriceUnit
	if priceUnit == "" {
		priceUnit = "primary"
	}
	cessKind := p.CessKind
	if cessKind == "" {
		cessKind = "none"
	}
	secondary := p.SecondaryUnit
	if secondary == "" {
		secondary = "None"
	}
	return Product{
		Name:            p.Name,
		SKU:             p.SKU,
		HSNCode:         p.HSNCode,
		PrimaryUnit:     p.PrimaryUnit,
		SecondaryUnit:   secondary,
		UseCompoundUnit: p.UseCompoundUnit,
		ConversionRatio: p.ConversionRatio,
		PriceUnit:       priceUnit,
		UnitPrice:       p.UnitPrice,
		TaxRate:         p.TaxRate,
		CessKind:        cessKind,
		CessRate:        p.CessRate,
		CessPerUnit:     p.CessPerUnit,
		Stock:           p.Stock,
	}
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), payload.toProduct())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update handles PUT /api/v1/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	product := payload.toProduct()
	product.ID = chi.URLParam(r, "id")
	updated, err := h.service.UpdateProduct(r.Context(), product)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (productPayload, bool) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return payload, false
	}
	if err := h.validate.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		details := []map[string]string{}
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details = append(details, map[string]string{"field": fe.Field(), "rule": fe.Tag()})
			}
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", details)
		return payload, false
	}
	return payload, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		common.JSONError(w, http.StatusConflict, "CONFLICT", "sku already exists", nil)
		return
	}
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
