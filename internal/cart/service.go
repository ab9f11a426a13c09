package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/amirhzm/backend-kedai/internal/store"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Store lists the persistence operations the cart service relies on.
type Store interface {
	CreateCart(ctx context.Context) (store.Cart, error)
	GetCart(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	AddCartItem(ctx context.Context, arg store.AddCartItemParams) (store.CartItem, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	RemoveCartItem(ctx context.Context, cartID, itemID pgtype.UUID) error
}

// Service encapsulates cart domain operations.
type Service struct {
	Store Store
}

// Create opens a new empty cart.
func (s *Service) Create(ctx context.Context) (store.Cart, error) {
	if s == nil || s.Store == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	return s.Store.CreateCart(ctx)
}

// Get loads a cart and its items.
func (s *Service) Get(ctx context.Context, cartID string) (store.Cart, []store.CartItem, error) {
	if s == nil || s.Store == nil {
		return store.Cart{}, nil, errors.New("cart service not configured")
	}
	cID, err := store.ToUUID(cartID)
	if err != nil {
		return store.Cart{}, nil, fmt.Errorf("parse cart id: %w", ErrInvalidInput)
	}
	c, err := s.Store.GetCart(ctx, cID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Cart{}, nil, ErrNotFound
		}
		return store.Cart{}, nil, err
	}
	items, err := s.Store.ListCartItems(ctx, cID)
	if err != nil {
		return store.Cart{}, nil, err
	}
	return c, items, nil
}

// AddItem appends a line to the cart.
func (s *Service) AddItem(ctx context.Context, cartID, title string, qty int, unitPrice int64) (store.CartItem, error) {
	if s == nil || s.Store == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return store.CartItem{}, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if unitPrice < 0 {
		return store.CartItem{}, fmt.Errorf("unitPrice must not be negative: %w", ErrInvalidInput)
	}
	cID, err := store.ToUUID(cartID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse cart id: %w", ErrInvalidInput)
	}
	if _, err := s.Store.GetCart(ctx, cID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CartItem{}, ErrNotFound
		}
		return store.CartItem{}, err
	}
	return s.Store.AddCartItem(ctx, store.AddCartItemParams{
		CartID:    cID,
		Title:     title,
		Qty:       int32(qty),
		UnitPrice: unitPrice,
	})
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	cID, err := store.ToUUID(cartID)
	if err != nil {
		return fmt.Errorf("parse cart id: %w", ErrInvalidInput)
	}
	iID, err := store.ToUUID(itemID)
	if err != nil {
		return fmt.Errorf("parse item id: %w", ErrInvalidInput)
	}
	if err := s.Store.RemoveCartItem(ctx, cID, iID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
