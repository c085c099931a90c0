// Package oracle derives time-weighted prices and liquidity from pool observation accumulators.
package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

var (
	ErrInvalidPeriod              = errors.New("invalid period")
	ErrZeroWeight                 = errors.New("total weight is zero")
	ErrLengthMismatch             = errors.New("length mismatch")
	ErrNotInitialized             = errors.New("oracle not initialized")
	ErrNotEnoughObservations      = errors.New("not enough observations")
	ErrObservationNotInitialized  = errors.New("observation not initialized")
	ErrUnexpectedObservationCount = errors.New("unexpected observation count")
)

// Observable is a price source exposing cumulative accumulators, such as a pool's observe().
// Results are ordered like secondsAgos.
type Observable interface {
	Observe(ctx context.Context, secondsAgos []uint32) (tickCumulatives []int64, secondsPerLiquidityCumulativeX128s []*uint256.Int, err error)
}

// PeriodObservation is the outcome of consulting a source over one period.
type PeriodObservation struct {
	ArithmeticMeanTick    int32
	HarmonicMeanLiquidity *uint256.Int
}

// MeanTick is the arithmetic mean tick between two tick accumulators sampled period seconds apart.
// Accumulators are int56 on chain, so the delta wraps at 56 bits. The quotient rounds toward
// negative infinity.
func MeanTick(tickCumulative0, tickCumulative1 int64, period uint32) (int32, error) {
	if period == 0 {
		return 0, ErrInvalidPeriod
	}
	delta := wrapInt56(tickCumulative1 - tickCumulative0)
	return floorTick(delta, int64(period))
}

// HarmonicMeanLiquidity is period * (2^160 - 1) / (delta << 32) where delta is the uint160
// seconds-per-liquidity difference. The result saturates at the uint128 maximum instead of
// wrapping, and a zero delta also saturates.
func HarmonicMeanLiquidity(secondsPerLiquidity0, secondsPerLiquidity1 *uint256.Int, period uint32) (*uint256.Int, error) {
	if period == 0 {
		return nil, ErrInvalidPeriod
	}
	delta := fixedpoint.WrapUint160(new(uint256.Int).Sub(secondsPerLiquidity1, secondsPerLiquidity0))
	if delta.IsZero() {
		return new(uint256.Int).Set(fixedpoint.MaxUint128), nil
	}
	numerator := new(uint256.Int).Mul(uint256.NewInt(uint64(period)), fixedpoint.MaxUint160)
	liquidity := numerator.Div(numerator, delta.Lsh(delta, 32))
	if liquidity.Gt(fixedpoint.MaxUint128) {
		return new(uint256.Int).Set(fixedpoint.MaxUint128), nil
	}
	return liquidity, nil
}

// Consult observes source at secondsAgo and now and returns the mean tick and harmonic mean
// liquidity over that window.
func Consult(ctx context.Context, source Observable, secondsAgo uint32) (PeriodObservation, error) {
	if secondsAgo == 0 {
		return PeriodObservation{}, ErrInvalidPeriod
	}
	if source == nil {
		return PeriodObservation{}, errors.New("observable is nil")
	}
	tickCumulatives, secondsPerLiquidity, err := source.Observe(ctx, []uint32{secondsAgo, 0})
	if err != nil {
		return PeriodObservation{}, fmt.Errorf("observe: %w", err)
	}
	if len(tickCumulatives) != 2 || len(secondsPerLiquidity) != 2 {
		return PeriodObservation{}, fmt.Errorf("%w: got %d ticks and %d liquidity values",
			ErrUnexpectedObservationCount, len(tickCumulatives), len(secondsPerLiquidity))
	}

	tick, err := MeanTick(tickCumulatives[0], tickCumulatives[1], secondsAgo)
	if err != nil {
		return PeriodObservation{}, err
	}
	liquidity, err := HarmonicMeanLiquidity(secondsPerLiquidity[0], secondsPerLiquidity[1], secondsAgo)
	if err != nil {
		return PeriodObservation{}, err
	}
	return PeriodObservation{ArithmeticMeanTick: tick, HarmonicMeanLiquidity: liquidity}, nil
}

// GetQuoteAtTick converts baseAmount of baseToken into quoteToken at the price of tick.
// The squared ratio is taken in Q192 while the sqrt ratio fits 128 bits and in Q128 beyond that.
func GetQuoteAtTick(tick int32, baseAmount *uint256.Int, baseToken, quoteToken common.Address) (*uint256.Int, error) {
	if _, err := fixedpoint.ToUint128(baseAmount); err != nil {
		return nil, fmt.Errorf("base amount: %w", err)
	}
	sqrtRatioX96, err := tickmath.GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	baseIsToken0 := bytes.Compare(baseToken.Bytes(), quoteToken.Bytes()) < 0

	if !sqrtRatioX96.Gt(fixedpoint.MaxUint128) {
		ratioX192 := new(uint256.Int).Mul(sqrtRatioX96, sqrtRatioX96)
		if baseIsToken0 {
			return fixedpoint.MulDiv(ratioX192, baseAmount, fixedpoint.Q192)
		}
		return fixedpoint.MulDiv(fixedpoint.Q192, baseAmount, ratioX192)
	}

	ratioX128, err := fixedpoint.MulDiv(sqrtRatioX96, sqrtRatioX96, fixedpoint.Q64)
	if err != nil {
		return nil, err
	}
	if baseIsToken0 {
		return fixedpoint.MulDiv(ratioX128, baseAmount, fixedpoint.Q128)
	}
	return fixedpoint.MulDiv(fixedpoint.Q128, baseAmount, ratioX128)
}

// WeightedTickData is one tick and its weight for GetWeightedArithmeticMeanTick.
type WeightedTickData struct {
	Tick   int32
	Weight *uint256.Int
}

// GetWeightedArithmeticMeanTick is sum(tick*weight)/sum(weight), rounded toward negative infinity.
func GetWeightedArithmeticMeanTick(data []WeightedTickData) (int32, error) {
	numerator := new(big.Int)
	denominator := new(big.Int)
	for _, d := range data {
		if d.Weight == nil {
			continue
		}
		w := d.Weight.ToBig()
		numerator.Add(numerator, new(big.Int).Mul(big.NewInt(int64(d.Tick)), w))
		denominator.Add(denominator, w)
	}
	if denominator.Sign() == 0 {
		return 0, ErrZeroWeight
	}
	// Div is Euclidean, which is floor division for a positive divisor.
	mean := new(big.Int).Div(numerator, denominator)
	if !mean.IsInt64() {
		return 0, fmt.Errorf("%w: weighted mean %s", tickmath.ErrTickOutOfRange, mean)
	}
	return checkTick(mean.Int64())
}

func floorTick(delta, period int64) (int32, error) {
	q := delta / period
	if delta < 0 && delta%period != 0 {
		q--
	}
	return checkTick(q)
}

func checkTick(t int64) (int32, error) {
	if t < int64(tickmath.MinTick) || t > int64(tickmath.MaxTick) {
		return 0, fmt.Errorf("%w: %d", tickmath.ErrTickOutOfRange, t)
	}
	return int32(t), nil
}

// wrapInt56 sign-extends the low 56 bits of x.
func wrapInt56(x int64) int64 {
	return x << 8 >> 8
}
