package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// Order statuses.
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusPaid           = "PAID"
	OrderStatusCanceled       = "CANCELED"
)

// Store wraps a pgx pool with the queries the service needs.
type Store struct {
	Pool *pgxpool.Pool
}

// New constructs a Store around the provided pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Order is a persisted customer order. Monetary fields are minor units.
type Order struct {
	ID           pgtype.UUID
	CartID       pgtype.UUID
	Status       string
	Currency     string
	BillingEmail string
	Subtotal     int64
	Tax          int64
	Shipping     int64
	Total        int64
	PaidAt       pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// OrderItem is a line item frozen at checkout time.
type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	Title     string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
}

// Cart groups items a visitor intends to buy.
type Cart struct {
	ID        pgtype.UUID
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem is a single cart line.
type CartItem struct {
	ID        pgtype.UUID
	CartID    pgtype.UUID
	Title     string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
}

// DomainEvent is a persisted domain event awaiting fan-out.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}

// ToUUID parses a textual identifier into a pgtype.UUID.
func ToUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("store: invalid uuid %q: %w", id, err)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// UUIDString renders a pgtype.UUID as its canonical text form.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// NewUUID generates a fresh identifier.
func NewUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// CreateCart inserts an empty cart.
func (s *Store) CreateCart(ctx context.Context) (Cart, error) {
	var c Cart
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO carts (id) VALUES ($1)
		RETURNING id, created_at, updated_at`, NewUUID(),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCart fetches a cart by id.
func (s *Store) GetCart(ctx context.Context, id pgtype.UUID) (Cart, error) {
	var c Cart
	err := s.Pool.QueryRow(ctx, `
		SELECT id, created_at, updated_at FROM carts WHERE id = $1`, id,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	return c, err
}

// AddCartItemParams carries a new cart line.
type AddCartItemParams struct {
	CartID    pgtype.UUID
	Title     string
	Qty       int32
	UnitPrice int64
}

// AddCartItem appends a line to a cart.
func (s *Store) AddCartItem(ctx context.Context, arg AddCartItemParams) (CartItem, error) {
	var it CartItem
	subtotal := int64(arg.Qty) * arg.UnitPrice
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, title, qty, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, cart_id, title, qty, unit_price, subtotal`,
		NewUUID(), arg.CartID, arg.Title, arg.Qty, arg.UnitPrice, subtotal,
	).Scan(&it.ID, &it.CartID, &it.Title, &it.Qty, &it.UnitPrice, &it.Subtotal)
	return it, err
}

// ListCartItems returns all lines for a cart in insertion order.
func (s *Store) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, cart_id, title, qty, unit_price, subtotal
		FROM cart_items WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.Title, &it.Qty, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// RemoveCartItem deletes a single cart line.
func (s *Store) RemoveCartItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCart removes every line from the cart. Called after the gateway
// confirms payment.
func (s *Store) ClearCart(ctx context.Context, cartID pgtype.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

// CreateOrderParams carries a new order header.
type CreateOrderParams struct {
	CartID       pgtype.UUID
	Currency     string
	BillingEmail string
	Subtotal     int64
	Tax          int64
	Shipping     int64
	Total        int64
}

// CreateOrder inserts a pending-payment order.
func (s *Store) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	var o Order
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO orders (id, cart_id, status, currency, billing_email, subtotal, tax, shipping, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, cart_id, status, currency, billing_email, subtotal, tax, shipping, total, paid_at, created_at, updated_at`,
		NewUUID(), arg.CartID, OrderStatusPendingPayment, arg.Currency, arg.BillingEmail,
		arg.Subtotal, arg.Tax, arg.Shipping, arg.Total,
	).Scan(&o.ID, &o.CartID, &o.Status, &o.Currency, &o.BillingEmail,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateOrderItemParams carries a frozen line item.
type CreateOrderItemParams struct {
	OrderID   pgtype.UUID
	Title     string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
}

// CreateOrderItem inserts a line item for an order.
func (s *Store) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO order_items (id, order_id, title, qty, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		NewUUID(), arg.OrderID, arg.Title, arg.Qty, arg.UnitPrice, arg.Subtotal)
	return err
}

// GetOrderByID fetches an order header.
func (s *Store) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	var o Order
	err := s.Pool.QueryRow(ctx, `
		SELECT id, cart_id, status, currency, billing_email, subtotal, tax, shipping, total, paid_at, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CartID, &o.Status, &o.Currency, &o.BillingEmail,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// ListOrderItems returns the line items of an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, title, qty, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Title, &it.Qty, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkOrderPaid transitions an order to PAID. The conditional update makes
// the settlement idempotent: a replayed gateway callback finds zero rows to
// update and reports alreadyDone.
func (s *Store) MarkOrderPaid(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET status = $2, paid_at = now(), updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, OrderStatusPaid, OrderStatusPendingPayment)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddOrderNote appends a free-text note to the order's audit trail.
func (s *Store) AddOrderNote(ctx context.Context, id pgtype.UUID, note string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO order_notes (id, order_id, note) VALUES ($1, $2, $3)`,
		NewUUID(), id, note)
	return err
}

// ListOrderNotes returns an order's notes, oldest first.
func (s *Store) ListOrderNotes(ctx context.Context, id pgtype.UUID) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT note FROM order_notes WHERE order_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SetOrderMeta upserts a metadata entry on the order. Replayed callbacks
// overwrite best-effort.
func (s *Store) SetOrderMeta(ctx context.Context, id pgtype.UUID, key, value string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO order_meta (order_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (order_id, key) DO UPDATE SET value = EXCLUDED.value`,
		id, key, value)
	return err
}

// OrderMeta returns all metadata recorded for an order.
func (s *Store) OrderMeta(ctx context.Context, id pgtype.UUID) (map[string]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT key, value FROM order_meta WHERE order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// InsertDomainEvent persists an event for downstream fan-out.
func (s *Store) InsertDomainEvent(ctx context.Context, topic string, aggregateID pgtype.UUID, payload []byte) (DomainEvent, error) {
	var ev DomainEvent
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		NewUUID(), topic, aggregateID, payload,
	).Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
