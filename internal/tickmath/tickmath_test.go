package tickmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
)

func TestGetSqrtRatioAtTick(t *testing.T) {
	t.Run("rejects ticks outside the bounds", func(t *testing.T) {
		_, err := GetSqrtRatioAtTick(MinTick - 1)
		assert.ErrorIs(t, err, ErrTickOutOfRange)
		_, err = GetSqrtRatioAtTick(MaxTick + 1)
		assert.ErrorIs(t, err, ErrTickOutOfRange)
	})

	tests := []struct {
		tick int32
		want string
	}{
		{MinTick, "4295128739"},
		{MinTick + 1, "4295343490"},
		{-500, "77272108795590369356373805297"},
		{-50, "79030349367926598376800521322"},
		{-1, "79224201403219477170569942574"},
		{0, "79228162514264337593543950336"},
		{1, "79232123823359799118286999568"},
		{50, "79426470787362580746886972461"},
		{100, "79625275426524748796330556128"},
		{10000, "130621891405341611593710811006"},
		{MaxTick - 1, "1461373636630004318706518188784493106690254656249"},
		{MaxTick, "1461446703485210103287273052203988822378723970342"},
	}
	for _, tt := range tests {
		got, err := GetSqrtRatioAtTick(tt.tick)
		require.NoError(t, err)
		assert.Equal(t, tt.want, fixedpoint.String(got), "tick %d", tt.tick)
	}
}

func TestGetTickAtSqrtRatio(t *testing.T) {
	t.Run("rejects ratios outside the bounds", func(t *testing.T) {
		_, err := GetTickAtSqrtRatio(new(uint256.Int).Sub(MinSqrtRatio, fixedpoint.One))
		assert.ErrorIs(t, err, ErrSqrtRatioOutOfRange)
		_, err = GetTickAtSqrtRatio(MaxSqrtRatio)
		assert.ErrorIs(t, err, ErrSqrtRatioOutOfRange)
	})

	t.Run("bounds", func(t *testing.T) {
		tick, err := GetTickAtSqrtRatio(MinSqrtRatio)
		require.NoError(t, err)
		assert.Equal(t, MinTick, tick)

		tick, err = GetTickAtSqrtRatio(new(uint256.Int).Sub(MaxSqrtRatio, fixedpoint.One))
		require.NoError(t, err)
		assert.Equal(t, MaxTick-1, tick)
	})

	t.Run("round trips and rounds down between ticks", func(t *testing.T) {
		for _, tick := range []int32{-887000, -60000, -500, -1, 0, 1, 50, 60000, 887000} {
			ratio, err := GetSqrtRatioAtTick(tick)
			require.NoError(t, err)

			got, err := GetTickAtSqrtRatio(ratio)
			require.NoError(t, err)
			assert.Equal(t, tick, got)

			got, err = GetTickAtSqrtRatio(new(uint256.Int).AddUint64(ratio, 1))
			require.NoError(t, err)
			assert.Equal(t, tick, got)

			got, err = GetTickAtSqrtRatio(new(uint256.Int).Sub(ratio, fixedpoint.One))
			require.NoError(t, err)
			assert.Equal(t, tick-1, got)
		}
	})
}

func TestUsableTicks(t *testing.T) {
	assert.Equal(t, int32(-887270), MinUsableTick(10))
	assert.Equal(t, int32(887270), MaxUsableTick(10))
	assert.Equal(t, int32(-887220), MinUsableTick(60))
	assert.Equal(t, int32(887220), MaxUsableTick(60))
	assert.Equal(t, int32(-887200), MinUsableTick(200))
	assert.Equal(t, int32(887200), MaxUsableTick(200))
}

func TestTickSpacingForFee(t *testing.T) {
	for fee, want := range map[uint32]int32{500: 10, 3000: 60, 10000: 200} {
		got, err := TickSpacingForFee(fee)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := TickSpacingForFee(2500)
	assert.ErrorIs(t, err, ErrUnknownFeeTier)
}

func TestValidateTick(t *testing.T) {
	assert.NoError(t, ValidateTick(-120, 60))
	assert.ErrorIs(t, ValidateTick(0, 0), ErrInvalidTickSpacing)
	assert.ErrorIs(t, ValidateTick(MaxTick+1, 1), ErrTickOutOfRange)
	assert.Error(t, ValidateTick(61, 60))
}
