package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

func weights(pairs ...int64) []WeightedTickData {
	out := make([]WeightedTickData, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, WeightedTickData{Tick: int32(pairs[i]), Weight: uint256.NewInt(uint64(pairs[i+1]))})
	}
	return out
}

func TestGetWeightedArithmeticMeanTick(t *testing.T) {
	cases := []struct {
		name string
		data []WeightedTickData
		want int32
	}{
		{"single", weights(100, 5), 100},
		{"equal weights", weights(10, 1, -20, 1), -5},
		{"negative remainder rounds down", weights(10, 1, -21, 1), -6},
		{"positive remainder truncates", weights(11, 1, 0, 1), 5},
		{"skewed weights", weights(100, 3, -100, 1), 50},
		{"zero weight entry ignored", weights(100, 1, 50000, 0), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetWeightedArithmeticMeanTick(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("uint128 weights do not overflow", func(t *testing.T) {
		data := []WeightedTickData{
			{Tick: tickmath.MaxTick, Weight: fixedpoint.MaxUint128},
			{Tick: tickmath.MinTick, Weight: fixedpoint.MaxUint128},
			{Tick: -1, Weight: uint256.NewInt(1)},
		}
		got, err := GetWeightedArithmeticMeanTick(data)
		require.NoError(t, err)
		assert.Equal(t, int32(-1), got)
	})

	_, err := GetWeightedArithmeticMeanTick(nil)
	require.ErrorIs(t, err, ErrZeroWeight)
	_, err = GetWeightedArithmeticMeanTick(weights(5, 0))
	require.ErrorIs(t, err, ErrZeroWeight)
}

func TestGetArithmeticMeanTickWeightedByLiquidity(t *testing.T) {
	obs := []PeriodObservation{
		{ArithmeticMeanTick: 100, HarmonicMeanLiquidity: uint256.NewInt(3)},
		{ArithmeticMeanTick: -100, HarmonicMeanLiquidity: uint256.NewInt(1)},
	}
	got, err := GetArithmeticMeanTickWeightedByLiquidity(obs)
	require.NoError(t, err)
	assert.Equal(t, int32(50), got)

	_, err = GetArithmeticMeanTickWeightedByLiquidity([]PeriodObservation{{ArithmeticMeanTick: 1, HarmonicMeanLiquidity: uint256.NewInt(0)}})
	require.ErrorIs(t, err, ErrZeroWeight)
}

func TestConsultAll(t *testing.T) {
	rate := new(uint256.Int).Div(fixedpoint.Q128, uint256.NewInt(1000))
	sources := []Observable{
		&fakeObservable{tick: 10, splPerSecond: rate},
		&fakeObservable{tick: -30, splPerSecond: rate},
		&fakeObservable{tick: 7, splPerSecond: rate},
	}
	got, err := ConsultAll(context.Background(), sources, 60)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int32(10), got[0].ArithmeticMeanTick)
	assert.Equal(t, int32(-30), got[1].ArithmeticMeanTick)
	assert.Equal(t, int32(7), got[2].ArithmeticMeanTick)
	for _, o := range got {
		assert.Equal(t, "1000", o.HarmonicMeanLiquidity.String())
	}

	boom := errors.New("boom")
	sources[1] = &fakeObservable{err: boom}
	_, err = ConsultAll(context.Background(), sources, 60)
	require.ErrorIs(t, err, boom)

	_, err = ConsultAll(context.Background(), sources, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGetChainedPrice(t *testing.T) {
	got, err := GetChainedPrice([]common.Address{token0, token1, token2}, []int32{100, 200})
	require.NoError(t, err)
	assert.Equal(t, int64(300), got)

	got, err = GetChainedPrice([]common.Address{token2, token1, token0}, []int32{100, 200})
	require.NoError(t, err)
	assert.Equal(t, int64(-300), got)

	got, err = GetChainedPrice([]common.Address{token0, token2, token1}, []int32{100, 200})
	require.NoError(t, err)
	assert.Equal(t, int64(-100), got)

	got, err = GetChainedPrice([]common.Address{token0}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = GetChainedPrice([]common.Address{token0, token1}, []int32{1, 2})
	require.ErrorIs(t, err, ErrLengthMismatch)
	_, err = GetChainedPrice(nil, nil)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestGetPriceChained(t *testing.T) {
	ctx := context.Background()
	rate := uint256.NewInt(1 << 20)

	t.Run("forward hops compose", func(t *testing.T) {
		sources := []Observable{
			&fakeObservable{tick: 100, splPerSecond: rate},
			&fakeObservable{tick: 100, splPerSecond: rate},
		}
		got, err := GetPriceChained(ctx, []common.Address{token0, token1, token2}, sources, 30)
		require.NoError(t, err)
		assert.Equal(t, "80024378775772204256025656564", got.String())
	})

	t.Run("reverse hop cancels", func(t *testing.T) {
		sources := []Observable{
			&fakeObservable{tick: 100, splPerSecond: rate},
			&fakeObservable{tick: 100, splPerSecond: rate},
		}
		got, err := GetPriceChained(ctx, []common.Address{token0, token1, token0}, sources, 30)
		require.NoError(t, err)
		diff := new(uint256.Int).Sub(fixedpoint.Q96, got)
		assert.Equal(t, "1", diff.String())
	})

	t.Run("zero ticks are identity", func(t *testing.T) {
		sources := []Observable{&fakeObservable{splPerSecond: rate}, &fakeObservable{splPerSecond: rate}}
		got, err := GetPriceChained(ctx, []common.Address{token2, token0, token1}, sources, 30)
		require.NoError(t, err)
		assert.True(t, got.Eq(fixedpoint.Q96))
	})

	_, err := GetPriceChained(ctx, []common.Address{token0, token1}, []Observable{&fakeObservable{}}, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = GetPriceChained(ctx, []common.Address{token0, token1}, nil, 10)
	require.ErrorIs(t, err, ErrLengthMismatch)
}
