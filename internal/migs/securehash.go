package migs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ErrSecretDecode marks a merchant secret that is not valid hexadecimal.
// Signing and verification both fail closed on it.
var ErrSecretDecode = fmt.Errorf("migs: secure secret is not valid hex")

// Sign computes the secure hash over the canonical data: HMAC-SHA256 keyed
// with the hex-decoded merchant secret, digest encoded as uppercase hex.
func Sign(secretHex, data string) (string, error) {
	key, err := hex.DecodeString(strings.TrimSpace(secretHex))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretDecode, err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil))), nil
}

// Verify recomputes the secure hash for data and compares it against the
// claimed value. The comparison is exact: the gateway always emits uppercase
// hex, and accepting case variants would only widen the surface. hmac.Equal
// keeps the comparison constant time.
func Verify(secretHex, data, claimed string) (bool, error) {
	expected, err := Sign(secretHex, data)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(claimed)), nil
}
