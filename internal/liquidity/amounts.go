// Package liquidity converts between token amounts and liquidity for a price range.
// All conversions round down so a position is never credited more than it deposited.
package liquidity

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
)

var (
	ErrInvalidRange = errors.New("sqrt price bounds are equal")
	ErrZeroPrice    = errors.New("sqrt price is zero")
)

// ordered returns the bounds low first and rejects empty or degenerate ranges.
func ordered(sqrtRatioAX96, sqrtRatioBX96 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Eq(sqrtRatioBX96) {
		return nil, nil, ErrInvalidRange
	}
	if sqrtRatioAX96.IsZero() {
		return nil, nil, ErrZeroPrice
	}
	return sqrtRatioAX96, sqrtRatioBX96, nil
}

// GetLiquidityForAmount0 is amount0 * (sqrtA*sqrtB/2^96) / (sqrtB - sqrtA).
func GetLiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *uint256.Int) (*uint256.Int, error) {
	lower, upper, err := ordered(sqrtRatioAX96, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	intermediate, err := fixedpoint.MulDiv(lower, upper, fixedpoint.Q96)
	if err != nil {
		return nil, err
	}
	liquidity, err := fixedpoint.MulDiv(amount0, intermediate, new(uint256.Int).Sub(upper, lower))
	if err != nil {
		return nil, err
	}
	return fixedpoint.ToUint128(liquidity)
}

// GetLiquidityForAmount1 is amount1 * 2^96 / (sqrtB - sqrtA).
func GetLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *uint256.Int) (*uint256.Int, error) {
	lower, upper, err := ordered(sqrtRatioAX96, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	liquidity, err := fixedpoint.MulDiv(amount1, fixedpoint.Q96, new(uint256.Int).Sub(upper, lower))
	if err != nil {
		return nil, err
	}
	return fixedpoint.ToUint128(liquidity)
}

// GetLiquidityForAmounts returns the most liquidity amount0 and amount1 can back at the current
// price. Below the range only amount0 counts, above it only amount1, and inside it the smaller
// of the two single-sided results.
func GetLiquidityForAmounts(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	lower, upper, err := ordered(sqrtRatioAX96, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}

	switch {
	case !sqrtRatioX96.Gt(lower):
		return GetLiquidityForAmount0(lower, upper, amount0)
	case sqrtRatioX96.Lt(upper):
		liquidity0, err := GetLiquidityForAmount0(sqrtRatioX96, upper, amount0)
		if err != nil {
			return nil, fmt.Errorf("liquidity for amount0: %w", err)
		}
		liquidity1, err := GetLiquidityForAmount1(lower, sqrtRatioX96, amount1)
		if err != nil {
			return nil, fmt.Errorf("liquidity for amount1: %w", err)
		}
		if liquidity0.Lt(liquidity1) {
			return liquidity0, nil
		}
		return liquidity1, nil
	default:
		return GetLiquidityForAmount1(lower, upper, amount1)
	}
}

// GetAmount0ForLiquidity is liquidity * 2^96 * (sqrtB - sqrtA) / sqrtB / sqrtA.
func GetAmount0ForLiquidity(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	lower, upper, err := ordered(sqrtRatioAX96, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	if _, err := fixedpoint.ToUint128(liquidity); err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	shifted := new(uint256.Int).Lsh(liquidity, fixedpoint.Resolution96)
	amount, err := fixedpoint.MulDiv(shifted, new(uint256.Int).Sub(upper, lower), upper)
	if err != nil {
		return nil, err
	}
	return amount.Div(amount, lower), nil
}

// GetAmount1ForLiquidity is liquidity * (sqrtB - sqrtA) / 2^96.
func GetAmount1ForLiquidity(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	lower, upper, err := ordered(sqrtRatioAX96, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	if _, err := fixedpoint.ToUint128(liquidity); err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	return fixedpoint.MulDiv(liquidity, new(uint256.Int).Sub(upper, lower), fixedpoint.Q96)
}

// GetAmountsForLiquidity returns the token amounts liquidity is worth at the current price,
// using the same three regimes as GetLiquidityForAmounts.
func GetAmountsForLiquidity(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	lower, upper, err := ordered(sqrtRatioAX96, sqrtRatioBX96)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case !sqrtRatioX96.Gt(lower):
		amount0, err = GetAmount0ForLiquidity(lower, upper, liquidity)
		return amount0, new(uint256.Int), err
	case sqrtRatioX96.Lt(upper):
		if amount0, err = GetAmount0ForLiquidity(sqrtRatioX96, upper, liquidity); err != nil {
			return nil, nil, err
		}
		if amount1, err = GetAmount1ForLiquidity(lower, sqrtRatioX96, liquidity); err != nil {
			return nil, nil, err
		}
		return amount0, amount1, nil
	default:
		amount1, err = GetAmount1ForLiquidity(lower, upper, liquidity)
		return new(uint256.Int), amount1, err
	}
}
