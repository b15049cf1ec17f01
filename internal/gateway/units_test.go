package gateway

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWeiRoundTrip(t *testing.T) {
	for _, in := range []string{"0.01", "0.05", "0.123456789012345678", "0.5", "0.999999999999999999", "1.0"} {
		wei, err := ToWei(in)
		require.NoError(t, err, in)

		want, _ := decimal.NewFromString(in)
		got, err := decimal.NewFromString(FromWei(wei))
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "%s -> %s", in, FromWei(wei))
	}
	assert.Equal(t, "0.01", FromWei(mustWei(t, "0.01")))
}

func TestToWeiExact(t *testing.T) {
	wei, err := ToWei("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), wei)

	wei, err = ToWei("1")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", wei.String())
}

func TestToWeiRejectsInvalidInput(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "-0.1", "0.0000000000000000001"} {
		_, err := ToWei(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFromWeiFixed(t *testing.T) {
	assert.Equal(t, "0.0500", FromWeiFixed(mustWei(t, "0.05"), 4))
	assert.Equal(t, "0.0000", FromWeiFixed(nil, 4))
}

func mustWei(t *testing.T, s string) *big.Int {
	t.Helper()
	w, err := ToWei(s)
	require.NoError(t, err)
	return w
}
