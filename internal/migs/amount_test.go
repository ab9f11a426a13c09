package migs

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"19.99", 1999},
		{"0.00", 0},
		{"25.50", 2550},
		{"19.995", 2000},
		{"0.01", 1},
		{"1000", 100000},
	}
	for _, tc := range cases {
		got, err := MinorUnits(decimal.RequireFromString(tc.in))
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestMinorUnitsRejectsNegative(t *testing.T) {
	_, err := MinorUnits(decimal.RequireFromString("-0.01"))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMajorUnitsRoundTrip(t *testing.T) {
	require.Equal(t, "25.5", MajorUnits(2550).String())
	require.Equal(t, "0", MajorUnits(0).String())
	got, err := MinorUnits(MajorUnits(1999))
	require.NoError(t, err)
	require.Equal(t, int64(1999), got)
}
