package tickbitmap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

// TickInfo is the per-tick state a pool stores for initialized ticks.
type TickInfo struct {
	LiquidityGross        *uint256.Int
	LiquidityNet          *big.Int
	FeeGrowthOutside0X128 *uint256.Int
	FeeGrowthOutside1X128 *uint256.Int
	Initialized           bool
}

// TickReader returns the stored state of one tick.
type TickReader interface {
	Ticks(ctx context.Context, tick int32) (TickInfo, error)
}

// PopulatedTick is an initialized tick with its liquidity deltas.
type PopulatedTick struct {
	Tick           int32
	LiquidityNet   *big.Int
	LiquidityGross *uint256.Int
}

// GetPopulatedTicksInWord lists the initialized ticks of one bitmap word, highest tick first.
func GetPopulatedTicksInWord(ctx context.Context, bitmap BitmapReader, ticks TickReader, tickSpacing int32, wordPos int16) ([]PopulatedTick, error) {
	if bitmap == nil {
		return nil, errNilReader
	}
	if ticks == nil {
		return nil, errors.New("tick reader is nil")
	}
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("%w: %d", tickmath.ErrInvalidTickSpacing, tickSpacing)
	}

	word, err := newPages(bitmap).word(ctx, wordPos)
	if err != nil {
		return nil, err
	}
	out := make([]PopulatedTick, 0, popCount(word))
	for bit := 255; bit >= 0; bit-- {
		if word[bit/64]&(1<<(uint(bit)%64)) == 0 {
			continue
		}
		tick := (int32(wordPos)<<8 + int32(bit)) * tickSpacing
		info, err := ticks.Ticks(ctx, tick)
		if err != nil {
			return nil, fmt.Errorf("read tick %d: %w", tick, err)
		}
		out = append(out, PopulatedTick{
			Tick:           tick,
			LiquidityNet:   info.LiquidityNet,
			LiquidityGross: info.LiquidityGross,
		})
	}
	return out, nil
}
