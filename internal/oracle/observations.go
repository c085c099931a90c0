package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Slot0 is the subset of pool slot0 the observation helpers need.
type Slot0 struct {
	SqrtPriceX96           *uint256.Int
	Tick                   int32
	ObservationIndex       uint16
	ObservationCardinality uint16
}

// Observation is one entry of a pool's observation ring buffer.
type Observation struct {
	BlockTimestamp                    uint32
	TickCumulative                    int64
	SecondsPerLiquidityCumulativeX128 *uint256.Int
	Initialized                       bool
}

// ObservationSource reads a pool's oracle ring buffer.
type ObservationSource interface {
	Slot0(ctx context.Context) (Slot0, error)
	Observation(ctx context.Context, index uint16) (Observation, error)
	Liquidity(ctx context.Context) (*uint256.Int, error)
}

// GetOldestObservationSecondsAgo returns how far back the source can be observed, given the
// current block timestamp now.
func GetOldestObservationSecondsAgo(ctx context.Context, source ObservationSource, now uint32) (uint32, error) {
	if source == nil {
		return 0, errors.New("observation source is nil")
	}
	slot0, err := source.Slot0(ctx)
	if err != nil {
		return 0, fmt.Errorf("read slot0: %w", err)
	}
	if slot0.ObservationCardinality == 0 {
		return 0, ErrNotInitialized
	}

	// The slot after the latest write is the oldest once the buffer has wrapped.
	next := uint16((uint32(slot0.ObservationIndex) + 1) % uint32(slot0.ObservationCardinality))
	oldest, err := source.Observation(ctx, next)
	if err != nil {
		return 0, fmt.Errorf("read observation %d: %w", next, err)
	}
	if !oldest.Initialized {
		oldest, err = source.Observation(ctx, 0)
		if err != nil {
			return 0, fmt.Errorf("read observation 0: %w", err)
		}
	}
	return now - oldest.BlockTimestamp, nil
}

// GetBlockStartingTickAndLiquidity returns the tick and liquidity in effect at the start of the
// block with timestamp now. When the latest observation was written in this block, they are
// derived from it and the previous observation; otherwise the current slot0 values apply.
func GetBlockStartingTickAndLiquidity(ctx context.Context, source ObservationSource, now uint32) (int32, *uint256.Int, error) {
	if source == nil {
		return 0, nil, errors.New("observation source is nil")
	}
	slot0, err := source.Slot0(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("read slot0: %w", err)
	}
	if slot0.ObservationCardinality <= 1 {
		return 0, nil, ErrNotEnoughObservations
	}

	latest, err := source.Observation(ctx, slot0.ObservationIndex)
	if err != nil {
		return 0, nil, fmt.Errorf("read observation %d: %w", slot0.ObservationIndex, err)
	}
	if latest.BlockTimestamp != now {
		liquidity, err := source.Liquidity(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("read liquidity: %w", err)
		}
		return slot0.Tick, liquidity, nil
	}

	card := uint32(slot0.ObservationCardinality)
	prevIndex := uint16((uint32(slot0.ObservationIndex) + card - 1) % card)
	prev, err := source.Observation(ctx, prevIndex)
	if err != nil {
		return 0, nil, fmt.Errorf("read observation %d: %w", prevIndex, err)
	}
	if !prev.Initialized {
		return 0, nil, ErrObservationNotInitialized
	}

	elapsed := latest.BlockTimestamp - prev.BlockTimestamp
	if elapsed == 0 {
		return 0, nil, ErrInvalidPeriod
	}
	// Truncated, unlike MeanTick.
	tick, err := checkTick(wrapInt56(latest.TickCumulative-prev.TickCumulative) / int64(elapsed))
	if err != nil {
		return 0, nil, err
	}
	liquidity, err := HarmonicMeanLiquidity(prev.SecondsPerLiquidityCumulativeX128, latest.SecondsPerLiquidityCumulativeX128, elapsed)
	if err != nil {
		return 0, nil, err
	}
	return tick, liquidity, nil
}
