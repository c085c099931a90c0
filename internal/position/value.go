// Package position values concentrated liquidity positions: the principal their liquidity
// represents at a price and the fees accrued since their last checkpoint.
package position

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/liquidity"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

// Position is a snapshot of a liquidity position as a position manager records it.
type Position struct {
	Token0                   common.Address
	Token1                   common.Address
	Fee                      uint32
	TickLower                int32
	TickUpper                int32
	Liquidity                *uint256.Int
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	TokensOwed0              *uint256.Int
	TokensOwed1              *uint256.Int
}

// TickFeeGrowth is the fee growth recorded on the far side of a tick.
type TickFeeGrowth struct {
	Outside0X128 *uint256.Int
	Outside1X128 *uint256.Int
}

// Principal returns the token amounts the position's liquidity is worth at sqrtPriceX96.
func Principal(pos Position, sqrtPriceX96 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	sqrtLower, err := tickmath.GetSqrtRatioAtTick(pos.TickLower)
	if err != nil {
		return nil, nil, fmt.Errorf("lower tick: %w", err)
	}
	sqrtUpper, err := tickmath.GetSqrtRatioAtTick(pos.TickUpper)
	if err != nil {
		return nil, nil, fmt.Errorf("upper tick: %w", err)
	}
	return liquidity.GetAmountsForLiquidity(sqrtPriceX96, sqrtLower, sqrtUpper, orZero(pos.Liquidity))
}

// Fees returns the fees owed to the position given the pool's current fee growth inside its
// range, including tokens already owed. Growth deltas wrap modulo 2^256.
func Fees(pos Position, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	amount0, err = accrued(feeGrowthInside0X128, pos.FeeGrowthInside0LastX128, pos.Liquidity)
	if err != nil {
		return nil, nil, err
	}
	amount1, err = accrued(feeGrowthInside1X128, pos.FeeGrowthInside1LastX128, pos.Liquidity)
	if err != nil {
		return nil, nil, err
	}
	amount0.Add(amount0, orZero(pos.TokensOwed0))
	amount1.Add(amount1, orZero(pos.TokensOwed1))
	return amount0, amount1, nil
}

// Total is Principal plus Fees.
func Total(pos Position, sqrtPriceX96, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	principal0, principal1, err := Principal(pos, sqrtPriceX96)
	if err != nil {
		return nil, nil, err
	}
	fee0, fee1, err := Fees(pos, feeGrowthInside0X128, feeGrowthInside1X128)
	if err != nil {
		return nil, nil, err
	}
	return principal0.Add(principal0, fee0), principal1.Add(principal1, fee1), nil
}

// FeeGrowthInside derives the fee growth per unit of liquidity inside [tickLower, tickUpper)
// from the global growth and the growth recorded outside each boundary tick.
func FeeGrowthInside(tickCurrent, tickLower, tickUpper int32, lower, upper TickFeeGrowth, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int) (inside0, inside1 *uint256.Int) {
	lower0, lower1 := orZero(lower.Outside0X128), orZero(lower.Outside1X128)
	upper0, upper1 := orZero(upper.Outside0X128), orZero(upper.Outside1X128)

	switch {
	case tickCurrent < tickLower:
		return new(uint256.Int).Sub(lower0, upper0), new(uint256.Int).Sub(lower1, upper1)
	case tickCurrent < tickUpper:
		inside0 = new(uint256.Int).Sub(orZero(feeGrowthGlobal0X128), lower0)
		inside1 = new(uint256.Int).Sub(orZero(feeGrowthGlobal1X128), lower1)
		return inside0.Sub(inside0, upper0), inside1.Sub(inside1, upper1)
	default:
		return new(uint256.Int).Sub(upper0, lower0), new(uint256.Int).Sub(upper1, lower1)
	}
}

func accrued(feeGrowthInsideX128, lastX128, liq *uint256.Int) (*uint256.Int, error) {
	delta := new(uint256.Int).Sub(orZero(feeGrowthInsideX128), orZero(lastX128))
	return fixedpoint.MulDiv(delta, orZero(liq), fixedpoint.Q128)
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}
