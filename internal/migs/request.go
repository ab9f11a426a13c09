package migs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Default virtual payment client endpoints.
const (
	LiveBaseURL = "https://migs.mastercard.com.au/vpcpay"
	TestBaseURL = "https://migs-mtf.mastercard.com.au/vpcpay"
)

// ErrInvalidConfig marks missing merchant credentials. Nothing is signed or
// sent when it is returned.
var ErrInvalidConfig = fmt.Errorf("migs: access code, merchant id and secure secret are required")

// Config carries the merchant-side gateway settings. SecureSecret is the
// hex-encoded shared key; it is decoded on every signing call and never
// logged.
type Config struct {
	AccessCode   string
	MerchantID   string
	SecureSecret string
	BaseURL      string
	Currency     string
	Locale       string
	TestMode     bool
}

// PayURL resolves the payment endpoint, honouring the test-mode toggle when
// no explicit base URL is configured.
func (c Config) PayURL() string {
	if base := strings.TrimSpace(c.BaseURL); base != "" {
		return base
	}
	if c.TestMode {
		return TestBaseURL
	}
	return LiveBaseURL
}

// Validate reports whether the merchant credentials are usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AccessCode) == "" ||
		strings.TrimSpace(c.MerchantID) == "" ||
		strings.TrimSpace(c.SecureSecret) == "" {
		return ErrInvalidConfig
	}
	return nil
}

// OrderView is the slice of an order the request builder needs.
type OrderView struct {
	ID           string
	Total        decimal.Decimal
	BillingEmail string
}

// BuildPaymentRequest assembles, signs and serialises the outbound payment
// request, returning the full redirect URL the browser should be sent to.
// The parameter set is sorted by key before signing; the secure hash and its
// type marker are appended afterwards and are themselves unsigned.
func BuildPaymentRequest(cfg Config, order OrderView, returnURL string) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	minor, err := MinorUnits(order.Total)
	if err != nil {
		return "", err
	}
	currency := strings.TrimSpace(cfg.Currency)
	if currency == "" {
		currency = "USD"
	}
	locale := strings.TrimSpace(cfg.Locale)
	if locale == "" {
		locale = "en"
	}

	fields := Params{}
	fields.Set("vpc_Currency", currency)
	fields.Set("vpc_AccessCode", strings.TrimSpace(cfg.AccessCode))
	fields.Set(FieldAmount, strconv.FormatInt(minor, 10))
	fields.Set("vpc_Command", "pay")
	fields.Set("vpc_Locale", locale)
	fields.Set(FieldMerchTxnRef, order.ID)
	fields.Set("vpc_Merchant", strings.TrimSpace(cfg.MerchantID))
	fields.Set("vpc_OrderInfo", order.BillingEmail)
	fields.Set("vpc_ReturnURL", returnURL)
	fields.Set("vpc_Version", "1")
	fields.Sort()

	hash, err := Sign(cfg.SecureSecret, hashInput(fields, true))
	if err != nil {
		return "", err
	}
	fields.Set(FieldSecureHash, hash)
	fields.Set(FieldSecureHashType, "SHA256")

	return fmt.Sprintf("%s?%s", cfg.PayURL(), fields.Encode()), nil
}

// VerifyResponse checks an inbound parameter set against its embedded secure
// hash. The hash fields are stripped and the remainder is canonicalised in
// received order with empty values retained, matching the gateway's
// verification rules rather than the request-side ones.
func VerifyResponse(cfg Config, received Params) (bool, error) {
	claimed := received.Get(FieldSecureHash)
	if claimed == "" {
		return false, nil
	}
	rest := received.Without(FieldSecureHash, FieldSecureHashType)
	return Verify(cfg.SecureSecret, hashInput(rest, false), claimed)
}
