package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/position"
)

// PositionManager reads positions from a nonfungible position manager contract.
type PositionManager struct {
	caller  Caller
	address common.Address
	block   *big.Int
}

func NewPositionManager(caller Caller, address common.Address, block *big.Int) *PositionManager {
	return &PositionManager{caller: caller, address: address, block: block}
}

func (m *PositionManager) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if m.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	return callMethod(ctx, m.caller, m.address, parsed, m.block, method, args...)
}

// Factory returns the pool factory the manager deploys against.
func (m *PositionManager) Factory(ctx context.Context) (common.Address, error) {
	values, err := m.call(ctx, "factory")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// WETH9 returns the wrapped native token the manager is configured with.
func (m *PositionManager) WETH9(ctx context.Context) (common.Address, error) {
	values, err := m.call(ctx, "WETH9")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

func (m *PositionManager) Position(ctx context.Context, tokenID *big.Int) (position.Position, error) {
	if tokenID == nil {
		return position.Position{}, fmt.Errorf("token id is nil")
	}
	values, err := m.call(ctx, "positions", tokenID)
	if err != nil {
		return position.Position{}, err
	}
	if len(values) != 12 {
		return position.Position{}, fmt.Errorf("positions: got %d values", len(values))
	}

	var pos position.Position
	if pos.Token0, err = asAddress(values[2]); err != nil {
		return position.Position{}, fmt.Errorf("token0: %w", err)
	}
	if pos.Token1, err = asAddress(values[3]); err != nil {
		return position.Position{}, fmt.Errorf("token1: %w", err)
	}
	fee, err := asBigInt(values[4])
	if err != nil {
		return position.Position{}, fmt.Errorf("fee: %w", err)
	}
	pos.Fee = uint32(fee.Uint64())
	if pos.TickLower, err = asInt24(values[5]); err != nil {
		return position.Position{}, fmt.Errorf("tick lower: %w", err)
	}
	if pos.TickUpper, err = asInt24(values[6]); err != nil {
		return position.Position{}, fmt.Errorf("tick upper: %w", err)
	}

	fields := []**uint256.Int{
		&pos.Liquidity,
		&pos.FeeGrowthInside0LastX128,
		&pos.FeeGrowthInside1LastX128,
		&pos.TokensOwed0,
		&pos.TokensOwed1,
	}
	for i, dst := range fields {
		if *dst, err = asUint256(values[7+i]); err != nil {
			return position.Position{}, fmt.Errorf("positions field %d: %w", 7+i, err)
		}
	}
	return pos, nil
}
