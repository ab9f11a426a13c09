package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/amirhzm/backend-kedai/internal/events"
	"github.com/amirhzm/backend-kedai/internal/pricing"
	"github.com/amirhzm/backend-kedai/internal/store"
)

// ErrCartEmpty is returned when checking out a cart without items.
var ErrCartEmpty = errors.New("cart is empty")

// ErrCartNotFound is returned when the cart does not exist.
var ErrCartNotFound = errors.New("cart not found")

// Input is the checkout request payload.
type Input struct {
	CartID       string  `json:"cartId" validate:"required,uuid"`
	BillingEmail string  `json:"billingEmail" validate:"required,email"`
	Shipping     int64   `json:"shipping" validate:"gte=0"`
	Notes        *string `json:"notes"`
}

// Output is the checkout response payload.
type Output struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Payment struct {
		Provider    string `json:"provider"`
		RedirectURL string `json:"redirectUrl"`
	} `json:"payment"`
}

// Store lists the persistence operations checkout relies on.
type Store interface {
	GetCart(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	CreateOrderItem(ctx context.Context, arg store.CreateOrderItemParams) error
}

// RedirectBuilder produces the hosted payment page URL for an order.
type RedirectBuilder interface {
	PaymentURL(order store.Order) (string, error)
}

// Service turns a cart into a pending-payment order.
type Service struct {
	Store    Store
	TaxBps   int
	Currency string
	Events   *events.Bus
	Validate *validator.Validate
	Redirect RedirectBuilder
}

// Create freezes the cart into an order and returns the payment redirect.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Store == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Output{}, fmt.Errorf("validate checkout input: %w", err)
		}
	}
	cID, err := store.ToUUID(in.CartID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid cart id: %w", err)
	}
	if _, err := s.Store.GetCart(ctx, cID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Output{}, ErrCartNotFound
		}
		return Output{}, err
	}
	items, err := s.Store.ListCartItems(ctx, cID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, ErrCartEmpty
	}
	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pricingItems = append(pricingItems, pricing.Item{Qty: int(it.Qty), UnitPrice: pricing.Money(it.UnitPrice)})
	}
	summary := pricing.Compute(pricingItems, s.TaxBps, pricing.Money(in.Shipping))
	order, err := s.Store.CreateOrder(ctx, store.CreateOrderParams{
		CartID:       cID,
		Currency:     s.Currency,
		BillingEmail: in.BillingEmail,
		Subtotal:     summary.Subtotal,
		Tax:          summary.Tax,
		Shipping:     summary.Shipping,
		Total:        summary.Total,
	})
	if err != nil {
		return Output{}, err
	}
	for _, it := range items {
		if err := s.Store.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:   order.ID,
			Title:     it.Title,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		}); err != nil {
			return Output{}, err
		}
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, order.ID, map[string]any{
			"orderId": store.UUIDString(order.ID),
			"email":   in.BillingEmail,
			"total":   summary.Total,
		})
	}
	var out Output
	out.OrderID = store.UUIDString(order.ID)
	out.Status = order.Status
	if s.Redirect != nil {
		redirect, err := s.Redirect.PaymentURL(order)
		if err != nil {
			return Output{}, fmt.Errorf("build payment redirect: %w", err)
		}
		out.Payment.Provider = "migs"
		out.Payment.RedirectURL = redirect
	}
	return out, nil
}
