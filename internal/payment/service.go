package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/amirhzm/backend-kedai/internal/events"
	"github.com/amirhzm/backend-kedai/internal/migs"
	"github.com/amirhzm/backend-kedai/internal/store"
)

// Outcome classifies the settlement decision for a gateway return.
type Outcome string

const (
	// OutcomeApproved marks the first successful settlement of an order.
	OutcomeApproved Outcome = "approved"
	// OutcomeAlreadyPaid marks a replayed callback for an order already settled.
	OutcomeAlreadyPaid Outcome = "already_paid"
	// OutcomeDeclined marks a verified callback carrying a non-success code.
	OutcomeDeclined Outcome = "declined"
	// OutcomeTampered marks a callback whose secure hash did not verify.
	OutcomeTampered Outcome = "tampered"
	// OutcomeOrderNotFound marks a callback referencing an unknown order.
	OutcomeOrderNotFound Outcome = "order_not_found"
)

// Result describes how a gateway return was settled.
type Result struct {
	Outcome     Outcome
	OrderID     string
	Code        string
	Message     string
	RedirectURL string
}

// Store lists the persistence operations settlement relies on.
type Store interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	MarkOrderPaid(ctx context.Context, id pgtype.UUID) (bool, error)
	AddOrderNote(ctx context.Context, id pgtype.UUID, note string) error
	SetOrderMeta(ctx context.Context, id pgtype.UUID, key, value string) error
	ClearCart(ctx context.Context, cartID pgtype.UUID) error
}

// Service settles orders from hosted payment page returns.
type Service struct {
	Cfg        migs.Config
	Store      Store
	Events     *events.Bus
	Log        zerolog.Logger
	ConfirmURL string
	FailureURL string
	ReturnURL  string
}

// PaymentURL builds the signed hosted payment page redirect for an order.
// It satisfies the checkout redirect builder contract.
func (s *Service) PaymentURL(order store.Order) (string, error) {
	if s == nil {
		return "", errors.New("payment service not configured")
	}
	view := migs.OrderView{
		ID:           store.UUIDString(order.ID),
		Total:        migs.MajorUnits(order.Total),
		BillingEmail: order.BillingEmail,
	}
	return migs.BuildPaymentRequest(s.Cfg, view, s.ReturnURL)
}

// Meta keys recorded on the order during settlement.
const (
	metaResponseCode     = "migs_txn_response_code"
	metaResponseMessage  = "migs_response_message"
	metaReceiptNo        = "migs_receipt_no"
	metaTransactionNo    = "migs_transaction_no"
	metaAmount           = "migs_amount"
	metaResponseData     = "migs_response_data"
	meta3DSXID           = "migs_3ds_xid"
	meta3DSECI           = "migs_3ds_eci"
	meta3DSEnrolled      = "migs_3ds_enrolled"
	meta3DSStatus        = "migs_3ds_status"
	metaVerToken         = "migs_ver_token"
	metaVerType          = "migs_ver_type"
	metaVerSecurityLevel = "migs_ver_security_level"
)

// ProcessReturn verifies the gateway return, settles the order once and
// decides where to send the shopper next. The returned Result always carries
// a redirect target; the error reports infrastructure failures only.
func (s *Service) ProcessReturn(ctx context.Context, received migs.Params) (Result, error) {
	if s == nil || s.Store == nil {
		return Result{}, errors.New("payment service not configured")
	}
	txnRef := strings.TrimSpace(received.Get(migs.FieldMerchTxnRef))
	code := migs.OrDefault(received.Get(migs.FieldTxnResponseCode))
	message := migs.ResponseDescription(code)

	valid, err := migs.VerifyResponse(s.Cfg, received)
	if err != nil {
		return Result{}, fmt.Errorf("verify gateway return: %w", err)
	}
	if !valid {
		s.Log.Warn().Str("txn_ref", txnRef).Msg("gateway return failed hash verification")
		return Result{
			Outcome:     OutcomeTampered,
			OrderID:     txnRef,
			Code:        code,
			RedirectURL: s.failureRedirect(txnRef, "Payment response could not be verified."),
		}, nil
	}

	orderID, err := store.ToUUID(txnRef)
	if err != nil {
		return Result{
			Outcome:     OutcomeOrderNotFound,
			OrderID:     txnRef,
			Code:        code,
			RedirectURL: s.failureRedirect(txnRef, "Order could not be found."),
		}, nil
	}
	order, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{
				Outcome:     OutcomeOrderNotFound,
				OrderID:     txnRef,
				Code:        code,
				RedirectURL: s.failureRedirect(txnRef, "Order could not be found."),
			}, nil
		}
		return Result{}, fmt.Errorf("load order %s: %w", txnRef, err)
	}

	if code != migs.SuccessCode {
		if err := s.Store.AddOrderNote(ctx, order.ID, "Error: "+message); err != nil {
			return Result{}, fmt.Errorf("record decline note: %w", err)
		}
		if s.Events != nil {
			_, _ = s.Events.Emit(ctx, events.TopicPaymentFailed, order.ID, map[string]any{
				"orderId": txnRef,
				"email":   order.BillingEmail,
				"code":    code,
				"message": message,
			})
		}
		s.Log.Info().Str("txn_ref", txnRef).Str("code", code).Msg("gateway declined payment")
		return Result{
			Outcome:     OutcomeDeclined,
			OrderID:     txnRef,
			Code:        code,
			Message:     message,
			RedirectURL: s.failureRedirect(txnRef, message),
		}, nil
	}

	settled, err := s.Store.MarkOrderPaid(ctx, order.ID)
	if err != nil {
		return Result{}, fmt.Errorf("mark order paid: %w", err)
	}
	if !settled {
		s.Log.Info().Str("txn_ref", txnRef).Msg("gateway return replayed for settled order")
		return Result{
			Outcome:     OutcomeAlreadyPaid,
			OrderID:     txnRef,
			Code:        code,
			Message:     message,
			RedirectURL: s.confirmRedirect(txnRef),
		}, nil
	}

	if err := s.Store.AddOrderNote(ctx, order.ID, "MIGS payment completed."); err != nil {
		return Result{}, fmt.Errorf("record settlement note: %w", err)
	}
	s.recordResponseMeta(ctx, order.ID, received, code, message)
	if order.CartID.Valid {
		if err := s.Store.ClearCart(ctx, order.CartID); err != nil {
			s.Log.Error().Err(err).Str("txn_ref", txnRef).Msg("clear cart after settlement")
		}
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderPaid, order.ID, map[string]any{
			"orderId": txnRef,
			"email":   order.BillingEmail,
			"total":   order.Total,
		})
	}
	s.Log.Info().Str("txn_ref", txnRef).Msg("order settled from gateway return")
	return Result{
		Outcome:     OutcomeApproved,
		OrderID:     txnRef,
		Code:        code,
		Message:     message,
		RedirectURL: s.confirmRedirect(txnRef),
	}, nil
}

func (s *Service) recordResponseMeta(ctx context.Context, orderID pgtype.UUID, received migs.Params, code, message string) {
	set := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		if err := s.Store.SetOrderMeta(ctx, orderID, key, value); err != nil {
			s.Log.Error().Err(err).Str("key", key).Msg("record gateway response meta")
		}
	}
	set(metaResponseCode, code)
	set(metaResponseMessage, message)
	set(metaReceiptNo, received.Get("vpc_ReceiptNo"))
	set(metaTransactionNo, received.Get("vpc_TransactionNo"))
	if raw := received.Get(migs.FieldAmount); raw != "" {
		// The gateway reports minor units; the order record keeps major units.
		if minor, err := strconv.ParseInt(raw, 10, 64); err == nil {
			set(metaAmount, migs.MajorUnits(minor).String())
		} else {
			set(metaAmount, raw)
		}
	}
	set(metaResponseData, received.Encode())
	set(meta3DSXID, received.Get(migs.Field3DSXID))
	set(meta3DSECI, received.Get(migs.Field3DSECI))
	set(meta3DSEnrolled, received.Get(migs.Field3DSEnrolled))
	set(meta3DSStatus, migs.AuthStatusDescription(received.Get(migs.Field3DSStatus)))
	set(metaVerToken, received.Get(migs.FieldVerToken))
	set(metaVerType, received.Get(migs.FieldVerType))
	set(metaVerSecurityLevel, received.Get(migs.FieldVerSecurityLevel))
}

func (s *Service) confirmRedirect(orderID string) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	return s.ConfirmURL + "?" + q.Encode()
}

func (s *Service) failureRedirect(orderID, notice string) string {
	q := url.Values{}
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	q.Set("notice", notice)
	return s.FailureURL + "?" + q.Encode()
}
