package liquidity

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
)

var (
	ErrLiquiditySub = errors.New("liquidity underflow")
	ErrLiquidityAdd = errors.New("liquidity overflow")
)

// AddDelta applies a signed int128 liquidity delta to a uint128 liquidity.
func AddDelta(x *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	abs, overflow := uint256.FromBig(new(big.Int).Abs(delta))
	if overflow || abs.Gt(fixedpoint.MaxUint128) {
		return nil, ErrLiquidityAdd
	}
	if delta.Sign() < 0 {
		if abs.Gt(x) {
			return nil, ErrLiquiditySub
		}
		return new(uint256.Int).Sub(x, abs), nil
	}
	z := new(uint256.Int).Add(x, abs)
	if z.Gt(fixedpoint.MaxUint128) {
		return nil, ErrLiquidityAdd
	}
	return z, nil
}
