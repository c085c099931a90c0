package position

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/pooladdress"
)

var (
	testFactory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	testToken0  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testToken1  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

type memPositions map[string]Position

func (m memPositions) Position(_ context.Context, tokenID *big.Int) (Position, error) {
	pos, ok := m[tokenID.String()]
	if !ok {
		return Position{}, errors.New("invalid token id")
	}
	return pos, nil
}

type memPool struct {
	address common.Address
	sqrt    *uint256.Int
	tick    int32
	global0 *uint256.Int
	global1 *uint256.Int
	ticks   map[int32]TickFeeGrowth
}

func (m *memPool) check(pool common.Address) error {
	if pool != m.address {
		return errors.New("unknown pool " + pool.Hex())
	}
	return nil
}

func (m *memPool) CurrentPrice(_ context.Context, pool common.Address) (*uint256.Int, int32, error) {
	if err := m.check(pool); err != nil {
		return nil, 0, err
	}
	return m.sqrt, m.tick, nil
}

func (m *memPool) FeeGrowthGlobals(_ context.Context, pool common.Address) (*uint256.Int, *uint256.Int, error) {
	if err := m.check(pool); err != nil {
		return nil, nil, err
	}
	return m.global0, m.global1, nil
}

func (m *memPool) TickFeeGrowth(_ context.Context, pool common.Address, tick int32) (TickFeeGrowth, error) {
	if err := m.check(pool); err != nil {
		return TickFeeGrowth{}, err
	}
	return m.ticks[tick], nil
}

func newTestValuer(t *testing.T) (*Valuer, *memPool) {
	t.Helper()
	poolAddr, err := pooladdress.ComputeAddress(testFactory, pooladdress.GetPoolKey(testToken0, testToken1, 3000))
	require.NoError(t, err)

	pos := testPosition()
	pos.Token0, pos.Token1, pos.Fee = testToken0, testToken1, 3000
	pos.FeeGrowthInside0LastX128 = new(uint256.Int).Set(fixedpoint.Q128)
	pos.TokensOwed1 = u(9)

	swapped := pos
	swapped.Token0, swapped.Token1 = testToken1, testToken0

	pool := &memPool{
		address: poolAddr,
		sqrt:    new(uint256.Int).Set(fixedpoint.Q96),
		tick:    0,
		global0: new(uint256.Int).Mul(fixedpoint.Q128, u(4)),
		global1: new(uint256.Int).Set(fixedpoint.Q128),
		ticks: map[int32]TickFeeGrowth{
			-600: {Outside0X128: new(uint256.Int).Set(fixedpoint.Q128), Outside1X128: u(0)},
			600:  {Outside0X128: new(uint256.Int).Set(fixedpoint.Q128), Outside1X128: u(0)},
		},
	}
	positions := memPositions{"1": pos, "2": swapped}
	return NewValuer(positions, pool, testFactory, zap.NewNop()), pool
}

func TestValuerValue(t *testing.T) {
	v, pool := newTestValuer(t)
	ctx := context.Background()

	val, err := v.Value(ctx, big.NewInt(1), nil)
	require.NoError(t, err)
	assert.Equal(t, pool.address, val.Pool)
	assert.Equal(t, uint64(29553010879137169), val.Principal0.Uint64())
	assert.Equal(t, uint64(29553010879137169), val.Principal1.Uint64())
	// Inside growth is 4 - 1 - 1 = 2 per liquidity, of which 1 was already checkpointed.
	assert.Equal(t, "1000000000000000000", val.Fees0.String())
	assert.Equal(t, "1000000000000000009", val.Fees1.String())
	assert.Equal(t, "1029553010879137169", val.Total0().String())

	fees0, fees1, err := v.Fees(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, fees0.Eq(val.Fees0))
	assert.True(t, fees1.Eq(val.Fees1))

	total0, total1, err := v.Total(ctx, big.NewInt(1), nil)
	require.NoError(t, err)
	assert.True(t, total0.Eq(val.Total0()))
	assert.True(t, total1.Eq(val.Total1()))
}

func TestValuerPrincipalAtExplicitPrice(t *testing.T) {
	v, _ := newTestValuer(t)
	amount0, amount1, err := v.Principal(context.Background(), big.NewInt(1), mustSqrt(t, 700))
	require.NoError(t, err)
	assert.True(t, amount0.IsZero())
	assert.Equal(t, uint64(60005999255049926), amount1.Uint64())
}

func TestValuerErrors(t *testing.T) {
	v, _ := newTestValuer(t)
	ctx := context.Background()

	_, err := v.Value(ctx, big.NewInt(2), nil)
	require.ErrorIs(t, err, pooladdress.ErrTokenOrderMismatch)

	_, err = v.Value(ctx, big.NewInt(3), nil)
	require.Error(t, err)

	_, err = v.Value(ctx, nil, nil)
	require.Error(t, err)

	_, _, err = NewValuer(nil, nil, testFactory, nil).Fees(ctx, big.NewInt(1))
	require.Error(t, err)
}
