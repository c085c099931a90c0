package position

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/pooladdress"
)

// PositionSource loads position snapshots by token id, e.g. from a position manager contract.
type PositionSource interface {
	Position(ctx context.Context, tokenID *big.Int) (Position, error)
}

// PoolStateSource reads the pool state fee accounting depends on.
type PoolStateSource interface {
	CurrentPrice(ctx context.Context, pool common.Address) (sqrtPriceX96 *uint256.Int, tick int32, err error)
	FeeGrowthGlobals(ctx context.Context, pool common.Address) (global0X128, global1X128 *uint256.Int, err error)
	TickFeeGrowth(ctx context.Context, pool common.Address, tick int32) (TickFeeGrowth, error)
}

// Valuation is the value of one position at one price.
type Valuation struct {
	TokenID      *big.Int
	Pool         common.Address
	Position     Position
	SqrtPriceX96 *uint256.Int
	Principal0   *uint256.Int
	Principal1   *uint256.Int
	Fees0        *uint256.Int
	Fees1        *uint256.Int
}

// Total0 is principal plus fees in token0.
func (v Valuation) Total0() *uint256.Int { return new(uint256.Int).Add(v.Principal0, v.Fees0) }

// Total1 is principal plus fees in token1.
func (v Valuation) Total1() *uint256.Int { return new(uint256.Int).Add(v.Principal1, v.Fees1) }

// Valuer values positions by token id against live pool state.
type Valuer struct {
	positions PositionSource
	pools     PoolStateSource
	factory   common.Address
	logger    *zap.Logger
}

func NewValuer(positions PositionSource, pools PoolStateSource, factory common.Address, logger *zap.Logger) *Valuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Valuer{positions: positions, pools: pools, factory: factory, logger: logger}
}

// Principal values the liquidity of tokenID at sqrtPriceX96, or at the pool price when nil.
func (v *Valuer) Principal(ctx context.Context, tokenID *big.Int, sqrtPriceX96 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	pos, pool, err := v.load(ctx, tokenID)
	if err != nil {
		return nil, nil, err
	}
	if sqrtPriceX96 == nil {
		if sqrtPriceX96, _, err = v.pools.CurrentPrice(ctx, pool); err != nil {
			return nil, nil, fmt.Errorf("read pool price: %w", err)
		}
	}
	return Principal(pos, sqrtPriceX96)
}

// Fees returns the uncollected fees of tokenID.
func (v *Valuer) Fees(ctx context.Context, tokenID *big.Int) (amount0, amount1 *uint256.Int, err error) {
	pos, pool, err := v.load(ctx, tokenID)
	if err != nil {
		return nil, nil, err
	}
	_, tick, err := v.pools.CurrentPrice(ctx, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("read pool price: %w", err)
	}
	return v.fees(ctx, pos, pool, tick)
}

// Total is Principal plus Fees for tokenID.
func (v *Valuer) Total(ctx context.Context, tokenID *big.Int, sqrtPriceX96 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	val, err := v.Value(ctx, tokenID, sqrtPriceX96)
	if err != nil {
		return nil, nil, err
	}
	return val.Total0(), val.Total1(), nil
}

// Value computes principal and fees of tokenID in one pass. A nil sqrtPriceX96 values the
// principal at the pool price.
func (v *Valuer) Value(ctx context.Context, tokenID *big.Int, sqrtPriceX96 *uint256.Int) (Valuation, error) {
	pos, pool, err := v.load(ctx, tokenID)
	if err != nil {
		return Valuation{}, err
	}
	poolPrice, tick, err := v.pools.CurrentPrice(ctx, pool)
	if err != nil {
		return Valuation{}, fmt.Errorf("read pool price: %w", err)
	}
	if sqrtPriceX96 == nil {
		sqrtPriceX96 = poolPrice
	}

	principal0, principal1, err := Principal(pos, sqrtPriceX96)
	if err != nil {
		return Valuation{}, fmt.Errorf("principal: %w", err)
	}
	fees0, fees1, err := v.fees(ctx, pos, pool, tick)
	if err != nil {
		return Valuation{}, err
	}

	v.logger.Debug("position valued",
		zap.String("token_id", tokenID.String()),
		zap.String("pool", pool.Hex()),
		zap.Int32("tick", tick),
		zap.String("principal0", fixedpoint.String(principal0)),
		zap.String("principal1", fixedpoint.String(principal1)),
		zap.String("fees0", fixedpoint.String(fees0)),
		zap.String("fees1", fixedpoint.String(fees1)),
	)

	return Valuation{
		TokenID:      new(big.Int).Set(tokenID),
		Pool:         pool,
		Position:     pos,
		SqrtPriceX96: sqrtPriceX96,
		Principal0:   principal0,
		Principal1:   principal1,
		Fees0:        fees0,
		Fees1:        fees1,
	}, nil
}

func (v *Valuer) load(ctx context.Context, tokenID *big.Int) (Position, common.Address, error) {
	if v.positions == nil {
		return Position{}, common.Address{}, fmt.Errorf("position source is nil")
	}
	if v.pools == nil {
		return Position{}, common.Address{}, fmt.Errorf("pool state source is nil")
	}
	if tokenID == nil {
		return Position{}, common.Address{}, fmt.Errorf("token id is nil")
	}
	pos, err := v.positions.Position(ctx, tokenID)
	if err != nil {
		return Position{}, common.Address{}, fmt.Errorf("load position %s: %w", tokenID, err)
	}
	pool, err := pooladdress.ComputeAddress(v.factory, pooladdress.PoolKey{Token0: pos.Token0, Token1: pos.Token1, Fee: pos.Fee})
	if err != nil {
		return Position{}, common.Address{}, fmt.Errorf("pool for position %s: %w", tokenID, err)
	}
	return pos, pool, nil
}

func (v *Valuer) fees(ctx context.Context, pos Position, pool common.Address, tick int32) (amount0, amount1 *uint256.Int, err error) {
	global0, global1, err := v.pools.FeeGrowthGlobals(ctx, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("read fee growth globals: %w", err)
	}
	lower, err := v.pools.TickFeeGrowth(ctx, pool, pos.TickLower)
	if err != nil {
		return nil, nil, fmt.Errorf("read tick %d: %w", pos.TickLower, err)
	}
	upper, err := v.pools.TickFeeGrowth(ctx, pool, pos.TickUpper)
	if err != nil {
		return nil, nil, fmt.Errorf("read tick %d: %w", pos.TickUpper, err)
	}
	inside0, inside1 := FeeGrowthInside(tick, pos.TickLower, pos.TickUpper, lower, upper, global0, global1)
	return Fees(pos, inside0, inside1)
}
