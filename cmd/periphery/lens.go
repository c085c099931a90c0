package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Uniswap/v3-periphery-sub000/internal/config"
	"github.com/Uniswap/v3-periphery-sub000/internal/dex"
	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/model"
	"github.com/Uniswap/v3-periphery-sub000/internal/oracle"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickbitmap"
)

func newTicksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "Count initialized ticks a swap between two ticks would cross",
		RunE:  runTicks,
	}
	addChainFlags(cmd.Flags())
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().Int32("from-tick", 0, "tick before the swap")
	cmd.Flags().Int32("to-tick", 0, "tick after the swap")
	cmd.Flags().Bool("inclusive", false, "count every initialized tick in [from, to] instead")
	return cmd
}

type tickCount struct {
	Pool        string `json:"pool"`
	TickSpacing int32  `json:"tick_spacing"`
	From        int32  `json:"from_tick"`
	To          int32  `json:"to_tick"`
	Inclusive   bool   `json:"inclusive"`
	Initialized uint32 `json:"initialized_ticks"`
	NextBelow   int32  `json:"next_below"`
	NextAbove   int32  `json:"next_above"`
}

func runTicks(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadLens(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := openSession(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer s.Close()

	pool, err := config.ParseAddress("pool", cfg.Pool)
	if err != nil {
		return err
	}
	reader := dex.NewPoolReader(s.client, pool, s.block)
	spacing, err := reader.TickSpacing(ctx)
	if err != nil {
		return err
	}

	out := tickCount{Pool: pool.Hex(), TickSpacing: spacing, From: cfg.TickBefore, To: cfg.TickAfter, Inclusive: cfg.Inclusive}
	if cfg.Inclusive {
		lower, upper := cfg.TickBefore, cfg.TickAfter
		if lower > upper {
			lower, upper = upper, lower
		}
		out.Initialized, err = tickbitmap.CountInitializedTicksInRange(ctx, reader, spacing, lower, upper)
	} else {
		out.Initialized, err = tickbitmap.CountInitializedTicksCrossed(ctx, reader, spacing, cfg.TickBefore, cfg.TickAfter)
	}
	if err != nil {
		return err
	}

	// Nearest initialized ticks around the end of the swap, within one bitmap word.
	if out.NextBelow, _, err = tickbitmap.NextInitializedTickWithinOneWord(ctx, reader, spacing, cfg.TickAfter, true); err != nil {
		return err
	}
	if out.NextAbove, _, err = tickbitmap.NextInitializedTickWithinOneWord(ctx, reader, spacing, cfg.TickAfter, false); err != nil {
		return err
	}
	return printJSON(cmd, out)
}

func newLensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lens",
		Short: "List populated ticks of a bitmap word and the pool's oracle state",
		RunE:  runLens,
	}
	addChainFlags(cmd.Flags())
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().Int16("word", 0, "bitmap word position, defaults to the word of the current tick")
	return cmd
}

type lensReport struct {
	Pool                        string                `json:"pool"`
	Tick                        int32                 `json:"tick"`
	TickSpacing                 int32                 `json:"tick_spacing"`
	Word                        int16                 `json:"word"`
	OldestObservationSecondsAgo uint32                `json:"oldest_observation_seconds_ago"`
	BlockStartingTick           *int32                `json:"block_starting_tick,omitempty"`
	BlockStartingLiquidity      string                `json:"block_starting_liquidity,omitempty"`
	Ticks                       []model.PopulatedTick `json:"ticks"`
}

func runLens(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadLens(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := openSession(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer s.Close()

	pool, err := config.ParseAddress("pool", cfg.Pool)
	if err != nil {
		return err
	}
	reader := dex.NewPoolReader(s.client, pool, s.block)
	spacing, err := reader.TickSpacing(ctx)
	if err != nil {
		return err
	}
	slot0, err := reader.Slot0(ctx)
	if err != nil {
		return err
	}

	var word int16
	if cfg.Word != nil {
		word = *cfg.Word
	} else {
		compressed := slot0.Tick / spacing
		if slot0.Tick < 0 && slot0.Tick%spacing != 0 {
			compressed--
		}
		word, _ = tickbitmap.Position(compressed)
	}

	ticks, err := tickbitmap.GetPopulatedTicksInWord(ctx, reader, reader, spacing, word)
	if err != nil {
		return err
	}
	report := lensReport{
		Pool:        pool.Hex(),
		Tick:        slot0.Tick,
		TickSpacing: spacing,
		Word:        word,
		Ticks:       make([]model.PopulatedTick, len(ticks)),
	}
	for i, t := range ticks {
		report.Ticks[i] = model.PopulatedTick{
			Tick:           t.Tick,
			LiquidityNet:   t.LiquidityNet.String(),
			LiquidityGross: fixedpoint.String(t.LiquidityGross),
		}
	}

	now, err := s.now(ctx)
	if err != nil {
		return fmt.Errorf("block timestamp: %w", err)
	}
	if report.OldestObservationSecondsAgo, err = oracle.GetOldestObservationSecondsAgo(ctx, reader, now); err != nil {
		return err
	}
	tick, liquidity, err := oracle.GetBlockStartingTickAndLiquidity(ctx, reader, now)
	if err != nil {
		s.logger.Warn("block starting tick unavailable", zap.String("pool", pool.Hex()), zap.Error(err))
	} else {
		report.BlockStartingTick = &tick
		report.BlockStartingLiquidity = fixedpoint.String(liquidity)
	}
	return printJSON(cmd, report)
}
