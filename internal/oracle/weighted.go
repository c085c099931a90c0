package oracle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GetArithmeticMeanTickWeightedByLiquidity averages the mean ticks of several observations,
// weighting each by its harmonic mean liquidity.
func GetArithmeticMeanTickWeightedByLiquidity(observations []PeriodObservation) (int32, error) {
	data := make([]WeightedTickData, len(observations))
	for i, o := range observations {
		data[i] = WeightedTickData{Tick: o.ArithmeticMeanTick, Weight: o.HarmonicMeanLiquidity}
	}
	return GetWeightedArithmeticMeanTick(data)
}

// ConsultAll consults every source over the same period. Sources are queried concurrently and
// results keep the order of sources.
func ConsultAll(ctx context.Context, sources []Observable, period uint32) ([]PeriodObservation, error) {
	if period == 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]PeriodObservation, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			obs, err := Consult(gctx, src, period)
			if err != nil {
				return fmt.Errorf("consult source %d: %w", i, err)
			}
			out[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
