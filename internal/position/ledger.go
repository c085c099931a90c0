package position

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/liquidity"
)

var ErrNoPosition = errors.New("cannot poke a position with no liquidity")

// Info is the pool-side record of a position: liquidity, the fee growth checkpoint and the
// tokens owed but not yet collected. Owed amounts are uint128 and wrap on overflow.
type Info struct {
	Liquidity                *uint256.Int
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	TokensOwed0              *uint256.Int
	TokensOwed1              *uint256.Int
}

// NewInfo returns an empty position record.
func NewInfo() *Info {
	return &Info{
		Liquidity:                uint256.NewInt(0),
		FeeGrowthInside0LastX128: uint256.NewInt(0),
		FeeGrowthInside1LastX128: uint256.NewInt(0),
		TokensOwed0:              uint256.NewInt(0),
		TokensOwed1:              uint256.NewInt(0),
	}
}

// Clone returns a deep copy of i.
func (i *Info) Clone() *Info {
	return &Info{
		Liquidity:                i.Liquidity.Clone(),
		FeeGrowthInside0LastX128: i.FeeGrowthInside0LastX128.Clone(),
		FeeGrowthInside1LastX128: i.FeeGrowthInside1LastX128.Clone(),
		TokensOwed0:              i.TokensOwed0.Clone(),
		TokensOwed1:              i.TokensOwed1.Clone(),
	}
}

// Update credits fees earned since the last checkpoint, moves the checkpoint to the given fee
// growth and applies liquidityDelta. A zero delta (a poke) requires existing liquidity.
// On error the record is left unchanged.
func (i *Info) Update(liquidityDelta *big.Int, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) error {
	next := i.Liquidity
	if liquidityDelta == nil || liquidityDelta.Sign() == 0 {
		if i.Liquidity.IsZero() {
			return ErrNoPosition
		}
	} else {
		var err error
		if next, err = liquidity.AddDelta(i.Liquidity, liquidityDelta); err != nil {
			return err
		}
	}

	owed0, err := accrued(feeGrowthInside0X128, i.FeeGrowthInside0LastX128, i.Liquidity)
	if err != nil {
		return err
	}
	owed1, err := accrued(feeGrowthInside1X128, i.FeeGrowthInside1LastX128, i.Liquidity)
	if err != nil {
		return err
	}

	i.Liquidity = next
	i.FeeGrowthInside0LastX128 = new(uint256.Int).Set(feeGrowthInside0X128)
	i.FeeGrowthInside1LastX128 = new(uint256.Int).Set(feeGrowthInside1X128)
	i.TokensOwed0 = addUint128(i.TokensOwed0, owed0)
	i.TokensOwed1 = addUint128(i.TokensOwed1, owed1)
	return nil
}

// Collect withdraws up to the requested amounts from the tokens owed.
func (i *Info) Collect(amount0Requested, amount1Requested *uint256.Int) (amount0, amount1 *uint256.Int) {
	amount0 = minOf(amount0Requested, i.TokensOwed0)
	amount1 = minOf(amount1Requested, i.TokensOwed1)
	i.TokensOwed0 = new(uint256.Int).Sub(i.TokensOwed0, amount0)
	i.TokensOwed1 = new(uint256.Int).Sub(i.TokensOwed1, amount1)
	return amount0, amount1
}

// addUint128 adds two values truncated to 128 bits.
func addUint128(a, b *uint256.Int) *uint256.Int {
	sum := new(uint256.Int).And(b, fixedpoint.MaxUint128)
	sum.Add(sum, a)
	return sum.And(sum, fixedpoint.MaxUint128)
}

func minOf(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}
