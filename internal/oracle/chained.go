package oracle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

// GetChainedPrice folds per-hop ticks into the synthetic tick of tokens[0] priced in the last token.
// ticks[i] is the tick of the pool between tokens[i] and tokens[i+1]; a hop whose first token
// sorts higher is subtracted.
func GetChainedPrice(tokens []common.Address, ticks []int32) (int64, error) {
	if len(tokens) == 0 || len(tokens)-1 != len(ticks) {
		return 0, fmt.Errorf("%w: %d tokens, %d ticks", ErrLengthMismatch, len(tokens), len(ticks))
	}
	var synthetic int64
	for i := 1; i < len(tokens); i++ {
		if sortsBefore(tokens[i-1], tokens[i]) {
			synthetic += int64(ticks[i-1])
		} else {
			synthetic -= int64(ticks[i-1])
		}
	}
	return synthetic, nil
}

// GetPriceChained consults every hop over secondsAgo and multiplies the oriented sqrt ratios into
// one Q64.96 sqrt price of tokens[0] denominated in the last token.
func GetPriceChained(ctx context.Context, tokens []common.Address, sources []Observable, secondsAgo uint32) (*uint256.Int, error) {
	if secondsAgo == 0 {
		return nil, ErrInvalidPeriod
	}
	if len(tokens) < 2 || len(tokens)-1 != len(sources) {
		return nil, fmt.Errorf("%w: %d tokens, %d sources", ErrLengthMismatch, len(tokens), len(sources))
	}

	observations, err := ConsultAll(ctx, sources, secondsAgo)
	if err != nil {
		return nil, err
	}

	price := new(uint256.Int).Set(fixedpoint.Q96)
	for i, obs := range observations {
		hop, err := tickmath.GetSqrtRatioAtTick(obs.ArithmeticMeanTick)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		if !sortsBefore(tokens[i], tokens[i+1]) {
			hop = new(uint256.Int).Div(fixedpoint.Q192, hop)
		}
		price, err = fixedpoint.MulDiv(price, hop, fixedpoint.Q96)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
	}
	return price, nil
}

func sortsBefore(a, b common.Address) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}
