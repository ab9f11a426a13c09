package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amirhzm/backend-kedai/internal/common"
	"github.com/amirhzm/backend-kedai/internal/lock"
	"github.com/amirhzm/backend-kedai/internal/migs"
	"github.com/amirhzm/backend-kedai/internal/obs"
	"github.com/amirhzm/backend-kedai/internal/store"
)

// Handler exposes the hosted payment redirect and the gateway return endpoint.
type Handler struct {
	Svc     *Service
	Locker  *lock.Locker
	LockTTL time.Duration
}

// Redirect returns the signed hosted payment page URL for a pending order.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	order, err := h.Svc.Store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load order", nil)
		return
	}
	if order.Status != store.OrderStatusPendingPayment {
		if obs.PaymentRedirectTotal != nil {
			obs.PaymentRedirectTotal.WithLabelValues("rejected").Inc()
		}
		common.JSONError(w, http.StatusConflict, "ORDER_NOT_PAYABLE", "order is not awaiting payment", nil)
		return
	}
	redirect, err := h.Svc.PaymentURL(order)
	if err != nil {
		if obs.PaymentRedirectTotal != nil {
			obs.PaymentRedirectTotal.WithLabelValues("error").Inc()
		}
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_CONFIG", "unable to build payment redirect", nil)
		return
	}
	if obs.PaymentRedirectTotal != nil {
		obs.PaymentRedirectTotal.WithLabelValues("ok").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"orderId":     store.UUIDString(order.ID),
			"provider":    "migs",
			"redirectUrl": redirect,
		},
	})
}

// Return handles the shopper coming back from the hosted payment page.
// The gateway redirects the browser here with the signed response fields.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	start := time.Now()
	received, err := migs.ParamsFromRequest(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unable to read gateway response", nil)
		return
	}

	var result Result
	run := func(ctx context.Context) error {
		var perr error
		result, perr = h.Svc.ProcessReturn(ctx, received)
		return perr
	}

	txnRef := received.Get(migs.FieldMerchTxnRef)
	if h.Locker != nil && txnRef != "" {
		ttl := h.LockTTL
		if ttl <= 0 {
			ttl = 15 * time.Second
		}
		err = h.Locker.WithLock(r.Context(), "migs:return:"+txnRef, ttl, run)
	} else {
		err = run(r.Context())
	}

	elapsed := obs.DurationMillis(time.Since(start))
	if err != nil {
		if obs.GatewayCallbackTotal != nil {
			obs.GatewayCallbackTotal.WithLabelValues("error").Inc()
		}
		if obs.GatewayCallbackLatency != nil {
			obs.GatewayCallbackLatency.WithLabelValues("error").Observe(elapsed)
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process gateway response", nil)
		return
	}
	if obs.GatewayCallbackTotal != nil {
		obs.GatewayCallbackTotal.WithLabelValues(string(result.Outcome)).Inc()
	}
	if obs.GatewayCallbackLatency != nil {
		obs.GatewayCallbackLatency.WithLabelValues(string(result.Outcome)).Observe(elapsed)
	}
	if obs.OrderSettlementTotal != nil && (result.Outcome == OutcomeApproved || result.Outcome == OutcomeAlreadyPaid) {
		obs.OrderSettlementTotal.WithLabelValues(string(result.Outcome)).Inc()
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
