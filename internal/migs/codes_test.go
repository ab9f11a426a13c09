package migs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseDescriptionKnownCodes(t *testing.T) {
	cases := map[string]string{
		"0": "Transaction Successful",
		"?": "Transaction status is unknown",
		"2": "Bank Declined Transaction",
		"4": "Expired Card",
		"5": "Insufficient funds",
		"9": "Bank declined transaction (Do not contact Bank)",
		"A": "Transaction Aborted",
		"F": "3D Secure Authentication failed",
		"L": "Shopping Transaction Locked (Please try the transaction again later)",
		"S": "Duplicate SessionID (OrderInfo)",
		"V": "Address Verification and Card Security Code Failed",
	}
	for code, want := range cases {
		require.Equal(t, want, ResponseDescription(code))
	}
}

func TestResponseDescriptionFallback(t *testing.T) {
	for _, code := range []string{"", "Z", "00", "No Value Returned"} {
		require.Equal(t, "Unable to be determined", ResponseDescription(code))
	}
}

func TestOnlyZeroIsSuccess(t *testing.T) {
	require.Equal(t, "0", SuccessCode)
	for code := range responseDescriptions {
		if code == SuccessCode {
			continue
		}
		require.NotEqual(t, SuccessCode, code)
	}
}

func TestAuthStatusDescription(t *testing.T) {
	require.Equal(t, "The cardholder was successfully authenticated.", AuthStatusDescription("Y"))
	require.Equal(t, "The cardholder is not enrolled.", AuthStatusDescription("E"))
	require.Equal(t, "Internal Payment Server system error.", AuthStatusDescription("I"))
	require.Equal(t, "3DS not supported or there was no 3DS data provided", AuthStatusDescription(""))
	require.Equal(t, "3DS not supported or there was no 3DS data provided", AuthStatusDescription(NoValueReturned))
	require.Equal(t, "Unable to be determined", AuthStatusDescription("X"))
}

func TestOrDefault(t *testing.T) {
	require.Equal(t, NoValueReturned, OrDefault(""))
	require.Equal(t, "Y", OrDefault("Y"))
}
