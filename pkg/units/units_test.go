package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		want   string
	}{
		{"zero", "0", "0"},
		{"one base unit", "1", "0.000000000000000001"},
		{"one token", "1000000000000000000", "1"},
		{"one and a half", "1500000000000000000", "1.5"},
		{"negative", "-2500000000000000000", "-2.5"},
		{"trailing zeros trimmed", "1100000000000000000", "1.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, ok := new(big.Int).SetString(tc.amount, 10)
			require.True(t, ok)
			assert.Equal(t, tc.want, ToDecimal(amount))
		})
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	full := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

	for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(1), full} {
		back, err := FromDecimal(ToDecimal(amount))
		require.NoError(t, err)
		assert.Zero(t, amount.Cmp(back), "round trip changed %s", amount)
	}
}

func TestFromDecimalRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.2.3", "1.0000000000000000001"} {
		_, err := FromDecimal(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestSplitExactness(t *testing.T) {
	fee, revenue := Split(big.NewInt(1_000_000), 200)

	assert.Equal(t, int64(20_000), fee.Int64())
	assert.Equal(t, int64(980_000), revenue.Int64())

	total := new(big.Int).Add(fee, revenue)
	assert.Equal(t, int64(1_000_000), total.Int64())
}

func TestSplitFloorsOddAmounts(t *testing.T) {
	// 333 * 200 / 10000 = 6.66 -> 6, remainder stays with the payee.
	fee, revenue := Split(big.NewInt(333), 200)
	assert.Equal(t, int64(6), fee.Int64())
	assert.Equal(t, int64(327), revenue.Int64())
}

func TestSplitDegenerateInputs(t *testing.T) {
	fee, revenue := Split(nil, 200)
	assert.Zero(t, fee.Sign())
	assert.Zero(t, revenue.Sign())

	fee, revenue = Split(big.NewInt(100), 0)
	assert.Zero(t, fee.Sign())
	assert.Equal(t, int64(100), revenue.Int64())
}
