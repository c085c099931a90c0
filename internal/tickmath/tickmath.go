// Package tickmath converts between ticks and Q64.96 square-root price ratios.
package tickmath

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
)

const (
	// MinTick is the lowest tick whose sqrt ratio can be represented.
	MinTick int32 = -887272
	// MaxTick is the highest tick whose sqrt ratio can be represented.
	MaxTick int32 = -MinTick
)

var (
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtRatioOutOfRange = errors.New("sqrt ratio out of range")
	ErrUnknownFeeTier      = errors.New("unknown fee tier")
	ErrInvalidTickSpacing  = errors.New("invalid tick spacing")
)

var (
	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = fixedpoint.MustFromDecimal("1461446703485210103287273052203988822378723970342")
)

// ratioFactors[i] is 2^128 / sqrt(1.0001)^(2^i).
var ratioFactors = [20]*uint256.Int{
	mustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	mustFromHex("0xfff97272373d413259a46990580e213a"),
	mustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	mustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	mustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	mustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	mustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	mustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	mustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	mustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	mustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	mustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	mustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	mustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	mustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	mustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	mustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	mustFromHex("0x5d6af8dedb81196699c329225ee604"),
	mustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	mustFromHex("0x48a170391f7dc42444e8fa2"),
}

var feeTickSpacing = map[uint32]int32{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 value, rounded up.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int).Set(fixedpoint.Q128)
	if absTick&1 != 0 {
		ratio.Set(ratioFactors[0])
	}
	for i := 1; i < len(ratioFactors); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, ratioFactors[i])
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(fixedpoint.MaxUint256, ratio)
	}

	// Q128.128 to Q64.96, rounding up so the result never understates the price.
	roundUp := !new(uint256.Int).Mod(ratio, fixedpoint.Q32).IsZero()
	ratio.Rsh(ratio, 32)
	if roundUp {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, fmt.Errorf("%w: %s", ErrSqrtRatioOutOfRange, fixedpoint.String(sqrtPriceX96))
	}

	low, high := MinTick, MaxTick-1
	for low < high {
		mid := low + (high-low+1)/2
		ratio, err := GetSqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Gt(sqrtPriceX96) {
			high = mid - 1
		} else {
			low = mid
		}
	}
	return low, nil
}

// MinUsableTick is MinTick truncated toward zero to a multiple of tickSpacing.
func MinUsableTick(tickSpacing int32) int32 {
	return (MinTick / tickSpacing) * tickSpacing
}

// MaxUsableTick is MaxTick truncated toward zero to a multiple of tickSpacing.
func MaxUsableTick(tickSpacing int32) int32 {
	return (MaxTick / tickSpacing) * tickSpacing
}

// TickSpacingForFee returns the tick spacing enabled for a fee tier.
func TickSpacingForFee(fee uint32) (int32, error) {
	spacing, ok := feeTickSpacing[fee]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFeeTier, fee)
	}
	return spacing, nil
}

// ValidateTick checks that tick is in range and a multiple of tickSpacing.
func ValidateTick(tick, tickSpacing int32) error {
	if tickSpacing <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, tickSpacing)
	}
	if tick < MinTick || tick > MaxTick {
		return fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	if tick%tickSpacing != 0 {
		return fmt.Errorf("tick %d is not a multiple of spacing %d", tick, tickSpacing)
	}
	return nil
}

func mustFromHex(s string) *uint256.Int {
	v, err := uint256.FromHex(s)
	if err != nil {
		panic(err)
	}
	return v
}
