package position

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/liquidity"
)

func TestInfoUpdate(t *testing.T) {
	info := NewInfo()

	err := info.Update(big.NewInt(0), u(0), u(0))
	require.ErrorIs(t, err, ErrNoPosition)

	require.NoError(t, info.Update(big.NewInt(1000), fixedpoint.Q128, u(0)))
	assert.Equal(t, uint64(1000), info.Liquidity.Uint64())
	assert.True(t, info.TokensOwed0.IsZero(), "fees accrue on the liquidity held before the update")
	assert.True(t, info.FeeGrowthInside0LastX128.Eq(fixedpoint.Q128))

	growth := new(uint256.Int).Mul(fixedpoint.Q128, u(3))
	require.NoError(t, info.Update(big.NewInt(-400), growth, fixedpoint.Q128))
	assert.Equal(t, uint64(600), info.Liquidity.Uint64())
	assert.Equal(t, uint64(2000), info.TokensOwed0.Uint64())
	assert.Equal(t, uint64(1000), info.TokensOwed1.Uint64())

	before := info.Clone()
	err = info.Update(big.NewInt(-601), new(uint256.Int).Mul(growth, u(2)), growth)
	require.ErrorIs(t, err, liquidity.ErrLiquiditySub)
	assert.Equal(t, before, info, "failed update must not mutate the record")
}

func TestInfoUpdateOwedWraps(t *testing.T) {
	info := NewInfo()
	info.Liquidity = u(1)
	info.TokensOwed0 = new(uint256.Int).Set(fixedpoint.MaxUint128)

	require.NoError(t, info.Update(big.NewInt(0), new(uint256.Int).Mul(fixedpoint.Q128, u(2)), u(0)))
	assert.Equal(t, uint64(1), info.TokensOwed0.Uint64())
}

func TestInfoCollect(t *testing.T) {
	info := NewInfo()
	info.TokensOwed0 = u(50)
	info.TokensOwed1 = u(5)

	amount0, amount1 := info.Collect(u(20), u(100))
	assert.Equal(t, uint64(20), amount0.Uint64())
	assert.Equal(t, uint64(5), amount1.Uint64())
	assert.Equal(t, uint64(30), info.TokensOwed0.Uint64())
	assert.True(t, info.TokensOwed1.IsZero())

	amount0, amount1 = info.Collect(u(0), u(0))
	assert.True(t, amount0.IsZero())
	assert.True(t, amount1.IsZero())
	assert.Equal(t, uint64(30), info.TokensOwed0.Uint64())
}
