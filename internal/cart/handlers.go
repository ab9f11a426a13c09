package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amirhzm/backend-kedai/internal/common"
	"github.com/amirhzm/backend-kedai/internal/pricing"
	"github.com/amirhzm/backend-kedai/internal/store"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	TaxBps   int
	Currency string
}

// Create opens a new guest cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	c, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"cartId": store.UUIDString(c.ID),
		},
	})
}

// Get returns cart contents and a pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	c, items, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	responseItems := make([]map[string]any, 0, len(items))
	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		responseItems = append(responseItems, map[string]any{
			"id":        store.UUIDString(it.ID),
			"title":     it.Title,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		})
		pricingItems = append(pricingItems, pricing.Item{Qty: int(it.Qty), UnitPrice: pricing.Money(it.UnitPrice)})
	}
	summary := pricing.Compute(pricingItems, h.TaxBps, 0)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":    store.UUIDString(c.ID),
			"items": responseItems,
			"pricing": map[string]any{
				"subtotal": summary.Subtotal,
				"tax":      summary.Tax,
				"shipping": summary.Shipping,
				"total":    summary.Total,
			},
			"currency": h.Currency,
		},
	})
}

// AddItem appends a line item to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload struct {
		Title     string `json:"title"`
		Qty       int    `json:"qty"`
		UnitPrice int64  `json:"unitPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if _, err := h.Svc.AddItem(r.Context(), cartID, payload.Title, payload.Qty, payload.UnitPrice); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// RemoveItem deletes a cart line item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
