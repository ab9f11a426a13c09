package payment_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amirhzm/backend-kedai/internal/events"
	"github.com/amirhzm/backend-kedai/internal/migs"
	"github.com/amirhzm/backend-kedai/internal/payment"
	"github.com/amirhzm/backend-kedai/internal/store"
)

const testSecret = "48656c6c6f"

type stubStore struct {
	orders       map[string]*store.Order
	notes        map[string][]string
	meta         map[string]map[string]string
	clearedCarts []string
	events       []string
}

func newStubStore() *stubStore {
	return &stubStore{
		orders: map[string]*store.Order{},
		notes:  map[string][]string{},
		meta:   map[string]map[string]string{},
	}
}

func (s *stubStore) addOrder(o store.Order) {
	s.orders[store.UUIDString(o.ID)] = &o
}

func (s *stubStore) GetOrderByID(_ context.Context, id pgtype.UUID) (store.Order, error) {
	o, ok := s.orders[store.UUIDString(id)]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return *o, nil
}

func (s *stubStore) MarkOrderPaid(_ context.Context, id pgtype.UUID) (bool, error) {
	o, ok := s.orders[store.UUIDString(id)]
	if !ok || o.Status != store.OrderStatusPendingPayment {
		return false, nil
	}
	o.Status = store.OrderStatusPaid
	return true, nil
}

func (s *stubStore) AddOrderNote(_ context.Context, id pgtype.UUID, note string) error {
	key := store.UUIDString(id)
	s.notes[key] = append(s.notes[key], note)
	return nil
}

func (s *stubStore) SetOrderMeta(_ context.Context, id pgtype.UUID, key, value string) error {
	orderKey := store.UUIDString(id)
	if s.meta[orderKey] == nil {
		s.meta[orderKey] = map[string]string{}
	}
	s.meta[orderKey][key] = value
	return nil
}

func (s *stubStore) ClearCart(_ context.Context, cartID pgtype.UUID) error {
	s.clearedCarts = append(s.clearedCarts, store.UUIDString(cartID))
	return nil
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID pgtype.UUID, payload []byte) (store.DomainEvent, error) {
	s.events = append(s.events, topic)
	return store.DomainEvent{ID: store.NewUUID(), Topic: topic, AggregateID: aggregateID, Payload: payload}, nil
}

func testConfig() migs.Config {
	return migs.Config{
		AccessCode:   "ABC",
		MerchantID:   "MER1",
		SecureSecret: testSecret,
		Currency:     "AUD",
		Locale:       "en",
		TestMode:     true,
	}
}

func newService(st *stubStore) *payment.Service {
	return &payment.Service{
		Cfg:        testConfig(),
		Store:      st,
		Events:     &events.Bus{Store: st},
		Log:        zerolog.Nop(),
		ConfirmURL: "https://shop.example/checkout/confirmation",
		FailureURL: "https://shop.example/checkout/payment",
		ReturnURL:  "https://shop.example/api/v1/payments/migs/return",
	}
}

// signParams appends a valid secure hash computed over the response fields
// in their existing order, empty values included.
func signParams(t *testing.T, p migs.Params) migs.Params {
	t.Helper()
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		if !strings.HasPrefix(kv.Key, "vpc_") && !strings.HasPrefix(kv.Key, "user_") {
			continue
		}
		if kv.Key == migs.FieldSecureHash || kv.Key == migs.FieldSecureHashType {
			continue
		}
		parts = append(parts, kv.Key+"="+kv.Value)
	}
	hash, err := migs.Sign(testSecret, strings.Join(parts, "&"))
	require.NoError(t, err)
	out := append(migs.Params{}, p...)
	out.Set(migs.FieldSecureHash, hash)
	out.Set(migs.FieldSecureHashType, "SHA256")
	return out
}

func pendingOrder() store.Order {
	return store.Order{
		ID:           store.NewUUID(),
		CartID:       store.NewUUID(),
		Status:       store.OrderStatusPendingPayment,
		Currency:     "AUD",
		BillingEmail: "buyer@example.com",
		Total:        2550,
	}
}

func approvedReturn(t *testing.T, orderID string) migs.Params {
	p := migs.Params{
		{Key: migs.FieldAmount, Value: "2550"},
		{Key: migs.FieldMerchTxnRef, Value: orderID},
		{Key: migs.FieldTxnResponseCode, Value: "0"},
		{Key: "vpc_ReceiptNo", Value: "226708290575"},
		{Key: "vpc_TransactionNo", Value: "2000023694"},
		{Key: migs.Field3DSStatus, Value: "Y"},
		{Key: migs.FieldVerToken, Value: "AAACAgSRgQAAA="},
	}
	return signParams(t, p)
}

func TestProcessReturnApprovesPendingOrder(t *testing.T) {
	st := newStubStore()
	order := pendingOrder()
	st.addOrder(order)
	svc := newService(st)
	orderID := store.UUIDString(order.ID)

	result, err := svc.ProcessReturn(context.Background(), approvedReturn(t, orderID))
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeApproved, result.Outcome)
	require.Equal(t, "0", result.Code)
	require.Contains(t, result.RedirectURL, "confirmation")
	require.Contains(t, result.RedirectURL, orderID)

	require.Equal(t, store.OrderStatusPaid, st.orders[orderID].Status)
	require.Equal(t, []string{"MIGS payment completed."}, st.notes[orderID])
	require.Equal(t, []string{store.UUIDString(order.CartID)}, st.clearedCarts)
	require.Equal(t, []string{events.TopicOrderPaid}, st.events)

	meta := st.meta[orderID]
	require.Equal(t, "226708290575", meta["migs_receipt_no"])
	require.Equal(t, "Transaction Successful", meta["migs_response_message"])
	require.Equal(t, "25.5", meta["migs_amount"])
	require.Equal(t, "The cardholder was successfully authenticated.", meta["migs_3ds_status"])
	require.Contains(t, meta["migs_response_data"], "vpc_ReceiptNo=226708290575")
	require.Contains(t, meta["migs_response_data"], "vpc_SecureHash=")
}

func TestProcessReturnReplayIsIdempotent(t *testing.T) {
	st := newStubStore()
	order := pendingOrder()
	st.addOrder(order)
	svc := newService(st)
	orderID := store.UUIDString(order.ID)
	received := approvedReturn(t, orderID)

	first, err := svc.ProcessReturn(context.Background(), received)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeApproved, first.Outcome)

	second, err := svc.ProcessReturn(context.Background(), received)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeAlreadyPaid, second.Outcome)
	require.Contains(t, second.RedirectURL, "confirmation")

	require.Len(t, st.notes[orderID], 1)
	require.Len(t, st.clearedCarts, 1)
	require.Equal(t, []string{events.TopicOrderPaid}, st.events)
}

func TestProcessReturnDecline(t *testing.T) {
	st := newStubStore()
	order := pendingOrder()
	st.addOrder(order)
	svc := newService(st)
	orderID := store.UUIDString(order.ID)

	received := signParams(t, migs.Params{
		{Key: migs.FieldAmount, Value: "2550"},
		{Key: migs.FieldMerchTxnRef, Value: orderID},
		{Key: migs.FieldTxnResponseCode, Value: "2"},
	})

	result, err := svc.ProcessReturn(context.Background(), received)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeDeclined, result.Outcome)
	require.Equal(t, "Bank Declined Transaction", result.Message)
	require.Contains(t, result.RedirectURL, "notice=")

	require.Equal(t, store.OrderStatusPendingPayment, st.orders[orderID].Status)
	require.Equal(t, []string{"Error: Bank Declined Transaction"}, st.notes[orderID])
	require.Equal(t, []string{events.TopicPaymentFailed}, st.events)
	require.Empty(t, st.clearedCarts)
}

func TestProcessReturnTamperedHashRejected(t *testing.T) {
	st := newStubStore()
	order := pendingOrder()
	st.addOrder(order)
	svc := newService(st)
	orderID := store.UUIDString(order.ID)

	received := approvedReturn(t, orderID)
	tampered := append(migs.Params{}, received...)
	for i, kv := range tampered {
		if kv.Key == migs.FieldAmount {
			tampered[i].Value = "99999"
		}
	}

	result, err := svc.ProcessReturn(context.Background(), tampered)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeTampered, result.Outcome)
	require.Contains(t, result.RedirectURL, "notice=")

	require.Equal(t, store.OrderStatusPendingPayment, st.orders[orderID].Status)
	require.Empty(t, st.notes[orderID])
	require.Empty(t, st.events)
}

func TestProcessReturnMissingHashRejected(t *testing.T) {
	st := newStubStore()
	order := pendingOrder()
	st.addOrder(order)
	svc := newService(st)

	received := migs.Params{
		{Key: migs.FieldMerchTxnRef, Value: store.UUIDString(order.ID)},
		{Key: migs.FieldTxnResponseCode, Value: "0"},
	}

	result, err := svc.ProcessReturn(context.Background(), received)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeTampered, result.Outcome)
}

func TestProcessReturnUnknownOrder(t *testing.T) {
	st := newStubStore()
	svc := newService(st)

	received := approvedReturn(t, store.UUIDString(store.NewUUID()))
	result, err := svc.ProcessReturn(context.Background(), received)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeOrderNotFound, result.Outcome)
	require.Contains(t, result.RedirectURL, "notice=")
	require.Empty(t, st.events)
}

func TestPaymentURLSignsPendingOrder(t *testing.T) {
	st := newStubStore()
	order := pendingOrder()
	st.addOrder(order)
	svc := newService(st)

	redirect, err := svc.PaymentURL(order)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(redirect, migs.TestBaseURL+"?"))
	require.Contains(t, redirect, "vpc_Amount=2550")
	require.Contains(t, redirect, "vpc_SecureHash=")
	require.Contains(t, redirect, store.UUIDString(order.ID))
}
