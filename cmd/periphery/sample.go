package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Uniswap/v3-periphery-sub000/internal/config"
	"github.com/Uniswap/v3-periphery-sub000/internal/dex"
	"github.com/Uniswap/v3-periphery-sub000/internal/model"
	"github.com/Uniswap/v3-periphery-sub000/internal/pooladdress"
	"github.com/Uniswap/v3-periphery-sub000/internal/quoter"
)

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample time-weighted quotes for many pairs and persist them",
		RunE:  runSample,
	}
	addChainFlags(cmd.Flags())
	cmd.Flags().StringSlice("pair", nil, "pairs as base:quote[:amount[:fee/fee...]]")
	cmd.Flags().Uint32("period", 1800, "averaging period in seconds")
	cmd.Flags().Int("concurrency", 4, "pairs sampled in parallel")
	cmd.Flags().Duration("interval", 0, "repeat every interval until interrupted, 0 samples once")
	cmd.Flags().String("out", "./data/quotes.jsonl", "append snapshots to this JSONL file")
	cmd.Flags().String("pg-dsn", "", "upsert snapshots into Postgres")
	return cmd
}

func runSample(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadSample(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	if len(cfg.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	specs := make([]config.PairSpec, len(cfg.Pairs))
	for i, raw := range cfg.Pairs {
		if specs[i], err = config.ParsePair(raw); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer s.Close()

	sinks, err := openSinks(ctx, cfg.Out, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer sinks.Close()

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	pairs := make([]quoter.Pair, len(specs))
	for i, spec := range specs {
		if pairs[i], err = buildPair(cmd, s, spec); err != nil {
			return err
		}
	}
	if err := recordPools(ctx, s, sinks, chainID, pairs); err != nil {
		return err
	}

	sampler := quoter.NewSampler(quoter.Config{
		ChainID:     chainID,
		Factory:     s.factory,
		Period:      cfg.Period,
		Concurrency: cfg.Concurrency,
	}, s.dialer(), sinks, s.logger)

	s.logger.Info("sampler start",
		zap.Uint64("chain_id", chainID),
		zap.Int("pairs", len(pairs)),
		zap.Uint32("period", cfg.Period),
		zap.Duration("interval", cfg.Interval),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	if cfg.Interval <= 0 {
		snaps, err := sampler.Sample(ctx, pairs)
		if err != nil {
			return err
		}
		return printJSON(cmd, snaps)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := sampler.Sample(ctx, pairs); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("sample failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// recordPools upserts metadata of every pool the pairs read from.
func recordPools(ctx context.Context, s *session, sinks *sinkSet, chainID uint64, pairs []quoter.Pair) error {
	if sinks.pg == nil {
		return nil
	}
	cache := dex.NewPoolMetaCache()
	var pools []model.Pool
	for _, pair := range pairs {
		for _, fee := range pair.Fees {
			addr, err := pooladdress.ComputeAddress(s.factory, pooladdress.GetPoolKey(pair.Base, pair.Quote, fee))
			if err != nil {
				return err
			}
			if _, seen := cache.Get(addr); seen {
				continue
			}
			meta, err := cache.Pool(ctx, s.client, addr)
			if err != nil {
				return fmt.Errorf("pool metadata %s: %w", addr.Hex(), err)
			}
			pools = append(pools, model.Pool{
				ChainID:     chainID,
				Address:     meta.Address,
				Token0:      meta.Token0,
				Token1:      meta.Token1,
				Fee:         meta.Fee,
				TickSpacing: meta.TickSpacing,
			})
		}
	}
	return sinks.upsertPools(ctx, pools)
}
