package order

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/amirhzm/backend-kedai/internal/common"
	"github.com/amirhzm/backend-kedai/internal/store"
)

// Store lists the persistence operations order views rely on.
type Store interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error)
	ListOrderNotes(ctx context.Context, id pgtype.UUID) ([]string, error)
	OrderMeta(ctx context.Context, id pgtype.UUID) (map[string]string, error)
}

// Handler serves order confirmation views.
type Handler struct {
	Store Store
}

// Get returns the order header, items, notes and gateway metadata. Serves
// the confirmation page the shopper lands on after payment.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load order", nil)
		return
	}
	items, err := h.Store.ListOrderItems(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load order items", nil)
		return
	}
	notes, err := h.Store.ListOrderNotes(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load order notes", nil)
		return
	}
	meta, err := h.Store.OrderMeta(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load order metadata", nil)
		return
	}

	responseItems := make([]map[string]any, 0, len(items))
	for _, it := range items {
		responseItems = append(responseItems, map[string]any{
			"id":        store.UUIDString(it.ID),
			"title":     it.Title,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		})
	}
	payload := map[string]any{
		"id":           store.UUIDString(ord.ID),
		"status":       ord.Status,
		"currency":     ord.Currency,
		"billingEmail": ord.BillingEmail,
		"subtotal":     ord.Subtotal,
		"tax":          ord.Tax,
		"shipping":     ord.Shipping,
		"total":        ord.Total,
		"items":        responseItems,
		"notes":        notes,
		"gateway":      meta,
	}
	if ord.PaidAt.Valid {
		payload["paidAt"] = ord.PaidAt.Time
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": payload})
}
