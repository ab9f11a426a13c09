package migs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSecret = "48656c6c6f" // "Hello"

func TestSignVerifyRoundTrip(t *testing.T) {
	data := "vpc_Amount=2550&vpc_Command=pay&vpc_MerchTxnRef=1001"
	sig, err := Sign(testSecret, data)
	require.NoError(t, err)
	require.Equal(t, strings.ToUpper(sig), sig)
	require.Len(t, sig, 64)

	ok, err := Verify(testSecret, data, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyDetectsSingleCharacterTamper(t *testing.T) {
	data := "vpc_Amount=2550&vpc_Command=pay&vpc_MerchTxnRef=1001"
	sig, err := Sign(testSecret, data)
	require.NoError(t, err)

	tampered := strings.Replace(data, "2550", "2551", 1)
	ok, err := Verify(testSecret, tampered, sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyIsCaseSensitive(t *testing.T) {
	data := "vpc_Amount=1"
	sig, err := Sign(testSecret, data)
	require.NoError(t, err)

	ok, err := Verify(testSecret, data, strings.ToLower(sig))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignRejectsMalformedSecret(t *testing.T) {
	for _, secret := range []string{"zz", "abc", "0x1234"} {
		_, err := Sign(secret, "vpc_Amount=1")
		require.ErrorIs(t, err, ErrSecretDecode, "secret %q", secret)

		ok, err := Verify(secret, "vpc_Amount=1", "AA")
		require.ErrorIs(t, err, ErrSecretDecode)
		require.False(t, ok)
	}
}
