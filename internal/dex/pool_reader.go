package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/oracle"
	"github.com/Uniswap/v3-periphery-sub000/internal/position"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickbitmap"
)

// PoolReader reads one pool's state over eth_call. It satisfies the oracle, bitmap and tick
// accessors so the math packages can run against live chain state.
type PoolReader struct {
	caller Caller
	pool   common.Address
	block  *big.Int
}

var (
	_ oracle.Observable        = (*PoolReader)(nil)
	_ oracle.ObservationSource = (*PoolReader)(nil)
	_ tickbitmap.BitmapReader  = (*PoolReader)(nil)
	_ tickbitmap.TickReader    = (*PoolReader)(nil)
	_ position.PoolStateSource = (*PoolState)(nil)
	_ position.PositionSource  = (*PositionManager)(nil)
)

// NewPoolReader reads pool at block, or at the latest block when block is nil.
func NewPoolReader(caller Caller, pool common.Address, block *big.Int) *PoolReader {
	return &PoolReader{caller: caller, pool: pool, block: block}
}

func (r *PoolReader) Address() common.Address { return r.pool }

func (r *PoolReader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := callMethod(ctx, r.caller, r.pool, parsed, r.block, method, args...)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", r.pool.Hex(), err)
	}
	return values, nil
}

// Observe returns the cumulative tick and seconds-per-liquidity values at each secondsAgo.
func (r *PoolReader) Observe(ctx context.Context, secondsAgos []uint32) ([]int64, []*uint256.Int, error) {
	values, err := r.call(ctx, "observe", secondsAgos)
	if err != nil {
		return nil, nil, err
	}
	rawTicks, err := bigSlice(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("tick cumulatives: %w", err)
	}
	rawSpl, err := bigSlice(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("seconds per liquidity: %w", err)
	}

	tickCumulatives := make([]int64, len(rawTicks))
	for i, v := range rawTicks {
		if tickCumulatives[i], err = asInt56(v); err != nil {
			return nil, nil, fmt.Errorf("tick cumulative %d: %w", i, err)
		}
	}
	spls := make([]*uint256.Int, len(rawSpl))
	for i, v := range rawSpl {
		if spls[i], err = asUint256(v); err != nil {
			return nil, nil, fmt.Errorf("seconds per liquidity %d: %w", i, err)
		}
	}
	return tickCumulatives, spls, nil
}

func (r *PoolReader) Slot0(ctx context.Context) (oracle.Slot0, error) {
	values, err := r.call(ctx, "slot0")
	if err != nil {
		return oracle.Slot0{}, err
	}
	sqrt, err := asUint256(values[0])
	if err != nil {
		return oracle.Slot0{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tick, err := asInt24(values[1])
	if err != nil {
		return oracle.Slot0{}, fmt.Errorf("slot0 tick: %w", err)
	}
	index, err := asUint16(values[2])
	if err != nil {
		return oracle.Slot0{}, fmt.Errorf("slot0 observation index: %w", err)
	}
	cardinality, err := asUint16(values[3])
	if err != nil {
		return oracle.Slot0{}, fmt.Errorf("slot0 observation cardinality: %w", err)
	}
	return oracle.Slot0{
		SqrtPriceX96:           sqrt,
		Tick:                   tick,
		ObservationIndex:       index,
		ObservationCardinality: cardinality,
	}, nil
}

func (r *PoolReader) Observation(ctx context.Context, index uint16) (oracle.Observation, error) {
	values, err := r.call(ctx, "observations", new(big.Int).SetUint64(uint64(index)))
	if err != nil {
		return oracle.Observation{}, err
	}
	ts, ok := values[0].(uint32)
	if !ok {
		return oracle.Observation{}, fmt.Errorf("observation timestamp: unsupported type %T", values[0])
	}
	tickCumulative, err := asInt56(values[1])
	if err != nil {
		return oracle.Observation{}, fmt.Errorf("observation tick cumulative: %w", err)
	}
	spl, err := asUint256(values[2])
	if err != nil {
		return oracle.Observation{}, fmt.Errorf("observation seconds per liquidity: %w", err)
	}
	initialized, _ := values[3].(bool)
	return oracle.Observation{
		BlockTimestamp:                    ts,
		TickCumulative:                    tickCumulative,
		SecondsPerLiquidityCumulativeX128: spl,
		Initialized:                       initialized,
	}, nil
}

func (r *PoolReader) Liquidity(ctx context.Context) (*uint256.Int, error) {
	return r.uint256Call(ctx, "liquidity")
}

func (r *PoolReader) TickSpacing(ctx context.Context) (int32, error) {
	values, err := r.call(ctx, "tickSpacing")
	if err != nil {
		return 0, err
	}
	spacing, err := asInt24(values[0])
	if err != nil {
		return 0, fmt.Errorf("tick spacing: %w", err)
	}
	return spacing, nil
}

// FeeGrowthGlobals returns feeGrowthGlobal0X128 and feeGrowthGlobal1X128.
func (r *PoolReader) FeeGrowthGlobals(ctx context.Context) (*uint256.Int, *uint256.Int, error) {
	global0, err := r.uint256Call(ctx, "feeGrowthGlobal0X128")
	if err != nil {
		return nil, nil, err
	}
	global1, err := r.uint256Call(ctx, "feeGrowthGlobal1X128")
	if err != nil {
		return nil, nil, err
	}
	return global0, global1, nil
}

func (r *PoolReader) TickBitmap(ctx context.Context, wordPos int16) (*uint256.Int, error) {
	return r.uint256Call(ctx, "tickBitmap", wordPos)
}

func (r *PoolReader) Ticks(ctx context.Context, tick int32) (tickbitmap.TickInfo, error) {
	values, err := r.call(ctx, "ticks", big.NewInt(int64(tick)))
	if err != nil {
		return tickbitmap.TickInfo{}, err
	}
	gross, err := asUint256(values[0])
	if err != nil {
		return tickbitmap.TickInfo{}, fmt.Errorf("liquidity gross: %w", err)
	}
	net, err := asBigInt(values[1])
	if err != nil {
		return tickbitmap.TickInfo{}, fmt.Errorf("liquidity net: %w", err)
	}
	outside0, err := asUint256(values[2])
	if err != nil {
		return tickbitmap.TickInfo{}, fmt.Errorf("fee growth outside0: %w", err)
	}
	outside1, err := asUint256(values[3])
	if err != nil {
		return tickbitmap.TickInfo{}, fmt.Errorf("fee growth outside1: %w", err)
	}
	initialized, _ := values[7].(bool)
	return tickbitmap.TickInfo{
		LiquidityGross:        gross,
		LiquidityNet:          net,
		FeeGrowthOutside0X128: outside0,
		FeeGrowthOutside1X128: outside1,
		Initialized:           initialized,
	}, nil
}

func (r *PoolReader) uint256Call(ctx context.Context, method string, args ...interface{}) (*uint256.Int, error) {
	values, err := r.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	out, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

// PoolState serves pool state by address, for code that resolves pools itself.
type PoolState struct {
	caller Caller
	block  *big.Int
}

func NewPoolState(caller Caller, block *big.Int) *PoolState {
	return &PoolState{caller: caller, block: block}
}

func (s *PoolState) reader(pool common.Address) *PoolReader {
	return NewPoolReader(s.caller, pool, s.block)
}

func (s *PoolState) CurrentPrice(ctx context.Context, pool common.Address) (*uint256.Int, int32, error) {
	slot0, err := s.reader(pool).Slot0(ctx)
	if err != nil {
		return nil, 0, err
	}
	return slot0.SqrtPriceX96, slot0.Tick, nil
}

func (s *PoolState) FeeGrowthGlobals(ctx context.Context, pool common.Address) (*uint256.Int, *uint256.Int, error) {
	return s.reader(pool).FeeGrowthGlobals(ctx)
}

func (s *PoolState) TickFeeGrowth(ctx context.Context, pool common.Address, tick int32) (position.TickFeeGrowth, error) {
	info, err := s.reader(pool).Ticks(ctx, tick)
	if err != nil {
		return position.TickFeeGrowth{}, err
	}
	return position.TickFeeGrowth{
		Outside0X128: info.FeeGrowthOutside0X128,
		Outside1X128: info.FeeGrowthOutside1X128,
	}, nil
}
