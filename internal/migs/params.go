package migs

import (
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Field names carried on every exchange with the gateway.
const (
	FieldAmount          = "vpc_Amount"
	FieldMerchTxnRef     = "vpc_MerchTxnRef"
	FieldSecureHash      = "vpc_SecureHash"
	FieldSecureHashType  = "vpc_SecureHashType"
	FieldTxnResponseCode = "vpc_TxnResponseCode"

	Field3DSXID           = "vpc_3DSXID"
	Field3DSECI           = "vpc_3DSECI"
	Field3DSEnrolled      = "vpc_3DSenrolled"
	Field3DSStatus        = "vpc_3DSstatus"
	FieldVerToken         = "vpc_VerToken"
	FieldVerType          = "vpc_VerType"
	FieldVerSecurityLevel = "vpc_VerSecurityLevel"
)

// Param is a single key/value pair exchanged with the gateway.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter set. Order matters: the gateway signs
// response payloads in the order it emits them, so inbound sets must keep
// wire order rather than being loaded into a map.
type Params []Param

// Get returns the first value stored under key, or "" when absent.
func (p Params) Get(key string) string {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Set appends a key/value pair, preserving insertion order.
func (p *Params) Set(key, value string) {
	*p = append(*p, Param{Key: key, Value: value})
}

// Sort orders the set by ascending byte-wise key comparison. The outbound
// request is sorted before signing; inbound responses are never re-sorted.
func (p Params) Sort() {
	sort.SliceStable(p, func(i, j int) bool { return p[i].Key < p[j].Key })
}

// Without returns a copy of the set with the named keys removed.
func (p Params) Without(keys ...string) Params {
	out := make(Params, 0, len(p))
	for _, kv := range p {
		skip := false
		for _, k := range keys {
			if kv.Key == k {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, kv)
		}
	}
	return out
}

// Encode serialises the set as an URL query string in stored order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// signable reports whether a key participates in secure-hash computation:
// it must live in the vpc_ or user_ namespace and must not be one of the
// hash metadata fields themselves.
func signable(key string) bool {
	if key == FieldSecureHash || key == FieldSecureHashType {
		return false
	}
	return strings.HasPrefix(key, "vpc_") || strings.HasPrefix(key, "user_")
}

// hashInput builds the canonical byte sequence the secure hash is computed
// over: signable entries joined as key=value with & separators and no
// trailing separator. The request path drops empty values before signing;
// the response path keeps them. The gateway behaves asymmetrically here, so
// both callers must not share the same setting.
func hashInput(p Params, dropEmpty bool) string {
	var b strings.Builder
	for _, kv := range p {
		if !signable(kv.Key) {
			continue
		}
		if dropEmpty && kv.Value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

// ParseParams decodes a raw query or form-encoded string into an ordered
// parameter set, preserving wire order and key case.
func ParseParams(raw string) (Params, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	pairs := strings.Split(raw, "&")
	out := make(Params, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		out = append(out, Param{Key: k, Value: v})
	}
	return out, nil
}

// ParamsFromRequest extracts the gateway parameter set from an inbound
// request. The gateway may return the browser via GET or POST; form bodies
// are read raw rather than through ParseForm so wire order survives.
func ParamsFromRequest(r *http.Request) (Params, error) {
	if r.Method == http.MethodPost &&
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			return nil, err
		}
		if len(body) > 0 {
			return ParseParams(string(body))
		}
	}
	return ParseParams(r.URL.RawQuery)
}

// maxCallbackBody bounds how much of a form body the handler will read.
const maxCallbackBody = 1 << 16
