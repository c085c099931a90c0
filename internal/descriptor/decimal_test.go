package descriptor

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

// encodePriceSqrt returns floor(sqrt(reserve1/reserve0) * 2^96).
func encodePriceSqrt(reserve1, reserve0 int64) *uint256.Int {
	num := new(big.Int).Lsh(big.NewInt(reserve1), 192)
	num.Quo(num, big.NewInt(reserve0))
	v, overflow := uint256.FromBig(new(big.Int).Sqrt(num))
	if overflow {
		panic("sqrt price overflow")
	}
	return v
}

func TestFixedPointToDecimalString(t *testing.T) {
	cases := []struct {
		name        string
		sqrt        *uint256.Int
		base, quote uint8
		want        string
	}{
		{"one to one", encodePriceSqrt(1, 1), 18, 18, "1.0000"},
		{"two decimals apart", encodePriceSqrt(1, 1), 18, 16, "100.00"},
		{"odd decimal difference", encodePriceSqrt(10, 1), 18, 17, "100.00"},
		{"eight decimals apart", encodePriceSqrt(1, 1), 18, 10, "100000000"},
		{"quote has more decimals", encodePriceSqrt(1, 1), 16, 18, "0.010000"},
		{"quote has more decimals odd", encodePriceSqrt(1, 10), 17, 18, "0.010000"},
		{"eighteen decimals apart", encodePriceSqrt(1, 1), 18, 0, "1000000000000000000"},
		{"eighteen decimals apart inverse", encodePriceSqrt(1, 1), 0, 18, "0.0000000000000000010000"},
		{"difference above eighteen", encodePriceSqrt(1, 1), 30, 0, "1.0000"},
		{"five integer digits", encodePriceSqrt(12345, 1), 18, 18, "12345"},
		{"rounds sixth digit", encodePriceSqrt(123456, 1), 18, 18, "123460"},
		{"nine digits", encodePriceSqrt(123456789, 1), 18, 18, "123460000"},
		{"no rounding needed", encodePriceSqrt(99999, 1), 18, 18, "99999"},
		{"one third", encodePriceSqrt(1, 3), 18, 18, "0.33333"},
		{"three", encodePriceSqrt(3, 1), 18, 18, "3.0000"},
		{"ten", encodePriceSqrt(10, 1), 18, 18, "10.000"},
		{"million", encodePriceSqrt(1000000, 1), 18, 18, "1000000"},
		{"round up carries a digit", encodePriceSqrt(9999995, 1000000), 18, 18, "10.000"},
		{"round up carries into nine digits", encodePriceSqrt(99999995, 1), 18, 18, "100000000"},
		{"just below one", encodePriceSqrt(999995, 1000000), 18, 18, "0.99999"},
		{"one thousandth", encodePriceSqrt(1, 1000), 18, 18, "0.0010000"},
		{"three sevenths", encodePriceSqrt(3, 7), 18, 18, "0.42857"},
		{"smallest representable", uint256.NewInt(1 << 32), 18, 18, "0.0000000000000000000000000000000000000029387"},
		{"min sqrt ratio", tickmath.MinSqrtRatio, 18, 18, "0.0000000000000000000000000000000000000029387"},
		{"max sqrt ratio", tickmath.MaxSqrtRatio, 18, 18, "340260000000000000000000000000000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FixedPointToDecimalString(tc.sqrt, tc.base, tc.quote)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFixedPointToDecimalStringUnderflow(t *testing.T) {
	_, err := FixedPointToDecimalString(uint256.NewInt(1<<31), 18, 18)
	require.ErrorIs(t, err, ErrPriceUnderflow)

	_, err = FixedPointToDecimalString(uint256.NewInt(1<<32), 16, 18)
	require.ErrorIs(t, err, ErrPriceUnderflow)
}

// TestFixedPointToDecimalStringMatchesDecimal checks that the rendered price stays within the
// five significant figure tolerance of an exact decimal computation.
func TestFixedPointToDecimalStringMatchesDecimal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q192 := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)
	tolerance := decimal.New(1, -4)

	for i := 0; i < 200; i++ {
		// Keep prices within 1e-20..1e20 so the rendered value carries five significant figures.
		sqrt := new(big.Int).Lsh(big.NewInt(1), uint(96-32+rng.Intn(64)))
		sqrt.Add(sqrt, big.NewInt(rng.Int63()))
		v, _ := uint256.FromBig(sqrt)

		got, err := FixedPointToDecimalString(v, 18, 18)
		require.NoError(t, err)

		rendered, err := decimal.NewFromString(got)
		require.NoError(t, err, "rendered %q", got)

		exact := decimal.NewFromBigInt(new(big.Int).Mul(sqrt, sqrt), 0).DivRound(q192, 60)
		relErr := rendered.Sub(exact).Abs().DivRound(exact, 30)
		assert.True(t, relErr.LessThan(tolerance), "sqrt %s rendered %s exact %s", sqrt, got, exact.StringFixed(50))
	}
}

func TestTickToDecimalString(t *testing.T) {
	cases := []struct {
		name        string
		tick        int32
		spacing     int32
		base, quote uint8
		flip        bool
		want        string
	}{
		{"min usable tick", -887220, 60, 18, 18, false, "MIN"},
		{"min usable tick flipped", -887220, 60, 18, 18, true, "MAX"},
		{"max usable tick", 887220, 60, 18, 18, false, "MAX"},
		{"max usable tick flipped", 887220, 60, 18, 18, true, "MIN"},
		{"sentinel ignores decimals", -887220, 60, 6, 18, false, "MIN"},
		{"min tick for wider spacing", -887200, 200, 18, 18, false, "MIN"},
		{"not a sentinel for narrower spacing", -887200, 60, 18, 18, false, "0.0000000000000000000000000000000000000029387"},
		{"not a sentinel flipped", -887200, 60, 18, 18, true, "337820000000000000000000000000000000000"},
		{"tick zero", 0, 60, 18, 18, false, "1.0000"},
		{"tick zero flipped", 0, 60, 18, 18, true, "1.0000"},
		{"negative tick", -500, 10, 18, 18, false, "0.95123"},
		{"negative tick flipped", -500, 10, 18, 18, true, "1.0513"},
		{"negative tick decimals", -500, 10, 18, 6, false, "951230000000"},
		{"negative tick decimals flipped", -500, 10, 6, 18, true, "0.0000000000010513"},
		{"positive tick", 500, 10, 18, 18, false, "1.0513"},
		{"one tick", 1, 1, 18, 18, false, "1.0001"},
		{"minus one tick", -1, 1, 18, 18, false, "0.99990"},
		{"large tick", 50000, 10, 18, 18, false, "148.38"},
		{"large negative tick", -50000, 10, 18, 18, false, "0.0067396"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TickToDecimalString(tc.tick, tc.spacing, tc.base, tc.quote, tc.flip)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTickToDecimalStringErrors(t *testing.T) {
	_, err := TickToDecimalString(0, 0, 18, 18, false)
	require.ErrorIs(t, err, tickmath.ErrInvalidTickSpacing)

	_, err = TickToDecimalString(887272, 7, 18, 18, false)
	require.NoError(t, err, "max tick is not a sentinel for spacing 7")

	_, err = TickToDecimalString(887300, 1, 18, 18, false)
	require.ErrorIs(t, err, tickmath.ErrTickOutOfRange)
}

func TestFeeToPercentString(t *testing.T) {
	cases := map[uint32]string{
		0:        "0%",
		1:        "0.0001%",
		30:       "0.003%",
		33:       "0.0033%",
		100:      "0.01%",
		500:      "0.05%",
		2500:     "0.25%",
		3000:     "0.3%",
		10000:    "1%",
		17000:    "1.7%",
		100000:   "10%",
		150000:   "15%",
		102000:   "10.2%",
		1000000:  "100%",
		1005000:  "100.5%",
		10000000: "1000%",
	}
	for fee, want := range cases {
		assert.Equal(t, want, FeeToPercentString(fee), "fee %d", fee)
	}
}
