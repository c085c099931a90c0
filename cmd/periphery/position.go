package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/Uniswap/v3-periphery-sub000/internal/config"
	"github.com/Uniswap/v3-periphery-sub000/internal/descriptor"
	"github.com/Uniswap/v3-periphery-sub000/internal/dex"
	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/model"
	"github.com/Uniswap/v3-periphery-sub000/internal/pooladdress"
	"github.com/Uniswap/v3-periphery-sub000/internal/position"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

func addPositionFlags(cmd *cobra.Command) {
	addChainFlags(cmd.Flags())
	cmd.Flags().String("position-manager", config.DefaultPositionManager, "nonfungible position manager address")
	cmd.Flags().StringSlice("token-id", nil, "position token ids (comma-separated)")
}

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Value positions: principal at a price plus uncollected fees",
		RunE:  runPosition,
	}
	addPositionFlags(cmd)
	cmd.Flags().String("sqrt-price", "", "Q64.96 sqrt price to value principal at, defaults to the pool price")
	cmd.Flags().String("out", "", "append valuations to this JSONL file")
	cmd.Flags().String("pg-dsn", "", "upsert valuations into Postgres")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Render the descriptive name and price range of positions",
		RunE:  runDescribe,
	}
	addPositionFlags(cmd)
	return cmd
}

// positionEnv bundles what both position commands read from chain.
type positionEnv struct {
	*session
	npm     *dex.PositionManager
	chainID uint64
	weth    common.Address
}

func openPositionEnv(ctx context.Context, cfg config.PositionConfig) (*positionEnv, []*big.Int, error) {
	if len(cfg.TokenIDs) == 0 {
		return nil, nil, fmt.Errorf("at least one token id is required")
	}
	ids := make([]*big.Int, len(cfg.TokenIDs))
	for i, raw := range cfg.TokenIDs {
		id, ok := new(big.Int).SetString(raw, 10)
		if !ok || id.Sign() < 0 {
			return nil, nil, fmt.Errorf("invalid token id %q", raw)
		}
		ids[i] = id
	}
	manager, err := config.ParseAddress("position manager", cfg.PositionManager)
	if err != nil {
		return nil, nil, err
	}

	s, err := openSession(ctx, cfg.Chain)
	if err != nil {
		return nil, nil, err
	}
	env := &positionEnv{session: s, npm: dex.NewPositionManager(s.client, manager, s.block)}
	if env.chainID, err = s.client.ChainID(ctx); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("chain id: %w", err)
	}
	if env.weth, err = env.npm.WETH9(ctx); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("weth9: %w", err)
	}
	return env, ids, nil
}

func (e *positionEnv) nameParams(ctx context.Context, pos position.Position) (descriptor.NameParams, error) {
	meta0, err := e.tokens.Token(ctx, e.client, pos.Token0, e.logger)
	if err != nil {
		return descriptor.NameParams{}, err
	}
	meta1, err := e.tokens.Token(ctx, e.client, pos.Token1, e.logger)
	if err != nil {
		return descriptor.NameParams{}, err
	}

	spacing, err := tickmath.TickSpacingForFee(pos.Fee)
	if err != nil {
		pool, perr := e.poolOf(pos)
		if perr != nil {
			return descriptor.NameParams{}, perr
		}
		if spacing, err = dex.NewPoolReader(e.client, pool, e.block).TickSpacing(ctx); err != nil {
			return descriptor.NameParams{}, err
		}
	}
	return descriptor.NameParams{
		Token0:         pos.Token0,
		Token1:         pos.Token1,
		Token0Symbol:   meta0.Symbol,
		Token1Symbol:   meta1.Symbol,
		Token0Decimals: meta0.Decimals,
		Token1Decimals: meta1.Decimals,
		Fee:            pos.Fee,
		TickLower:      pos.TickLower,
		TickUpper:      pos.TickUpper,
		TickSpacing:    spacing,
		ChainID:        e.chainID,
		WETH:           e.weth,
	}, nil
}

func (e *positionEnv) poolOf(pos position.Position) (common.Address, error) {
	return pooladdress.ComputeAddress(e.factory, pooladdress.PoolKey{Token0: pos.Token0, Token1: pos.Token1, Fee: pos.Fee})
}

func runPosition(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadPosition(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	var sqrtPrice *uint256.Int
	if cfg.SqrtPriceX96 != "" {
		if sqrtPrice, err = fixedpoint.FromDecimal(cfg.SqrtPriceX96); err != nil {
			return fmt.Errorf("sqrt price: %w", err)
		}
	}

	ctx := cmd.Context()
	env, ids, err := openPositionEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	sinks, err := openSinks(ctx, cfg.Out, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer sinks.Close()

	valuer := position.NewValuer(env.npm, dex.NewPoolState(env.client, env.block), env.factory, env.logger)
	valuedAt := time.Now().UTC()
	out := make([]model.PositionValuation, 0, len(ids))
	for _, id := range ids {
		val, err := valuer.Value(ctx, id, sqrtPrice)
		if err != nil {
			return err
		}
		params, err := env.nameParams(ctx, val.Position)
		if err != nil {
			return err
		}
		name, err := descriptor.GenerateName(params)
		if err != nil {
			return err
		}
		out = append(out, model.PositionValuation{
			ChainID:      env.chainID,
			TokenID:      id.String(),
			Name:         name,
			Pool:         val.Pool.Hex(),
			Token0:       val.Position.Token0.Hex(),
			Token1:       val.Position.Token1.Hex(),
			Fee:          val.Position.Fee,
			TickLower:    val.Position.TickLower,
			TickUpper:    val.Position.TickUpper,
			Liquidity:    fixedpoint.String(val.Position.Liquidity),
			SqrtPriceX96: fixedpoint.String(val.SqrtPriceX96),
			Principal0:   fixedpoint.String(val.Principal0),
			Principal1:   fixedpoint.String(val.Principal1),
			Fees0:        fixedpoint.String(val.Fees0),
			Fees1:        fixedpoint.String(val.Fees1),
			Total0:       fixedpoint.String(val.Total0()),
			Total1:       fixedpoint.String(val.Total1()),
			ValuedAt:     valuedAt,
		})
	}

	if err := sinks.PutPositionValuations(ctx, out); err != nil {
		return fmt.Errorf("store valuations: %w", err)
	}
	return printJSON(cmd, out)
}

type positionDescription struct {
	TokenID      string `json:"token_id"`
	Name         string `json:"name"`
	Pool         string `json:"pool"`
	Fee          string `json:"fee"`
	QuoteToken   string `json:"quote_token"`
	BaseToken    string `json:"base_token"`
	PriceLower   string `json:"price_lower"`
	PriceUpper   string `json:"price_upper"`
	CurrentPrice string `json:"current_price"`
	CurrentTick  int32  `json:"current_tick"`
}

func runDescribe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadPosition(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	env, ids, err := openPositionEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	state := dex.NewPoolState(env.client, env.block)
	out := make([]positionDescription, 0, len(ids))
	for _, id := range ids {
		pos, err := env.npm.Position(ctx, id)
		if err != nil {
			return fmt.Errorf("load position %s: %w", id, err)
		}
		params, err := env.nameParams(ctx, pos)
		if err != nil {
			return err
		}
		name, err := descriptor.GenerateName(params)
		if err != nil {
			return err
		}
		pool, err := env.poolOf(pos)
		if err != nil {
			return err
		}
		sqrtPrice, tick, err := state.CurrentPrice(ctx, pool)
		if err != nil {
			return err
		}

		// Prices are shown as quote per base, where the flip decides which token is the quote.
		flip := descriptor.FlipRatio(pos.Token0, pos.Token1, env.chainID, env.weth)
		desc := positionDescription{
			TokenID:     id.String(),
			Name:        name,
			Pool:        pool.Hex(),
			Fee:         descriptor.FeeToPercentString(pos.Fee),
			QuoteToken:  pos.Token1.Hex(),
			BaseToken:   pos.Token0.Hex(),
			CurrentTick: tick,
		}
		baseDecimals, quoteDecimals := params.Token0Decimals, params.Token1Decimals
		lower, upper := pos.TickLower, pos.TickUpper
		current := sqrtPrice
		if flip {
			desc.QuoteToken, desc.BaseToken = desc.BaseToken, desc.QuoteToken
			baseDecimals, quoteDecimals = quoteDecimals, baseDecimals
			lower, upper = upper, lower
			current = new(uint256.Int).Div(fixedpoint.Q192, sqrtPrice)
		}
		if desc.PriceLower, err = descriptor.TickToDecimalString(lower, params.TickSpacing, baseDecimals, quoteDecimals, flip); err != nil {
			return err
		}
		if desc.PriceUpper, err = descriptor.TickToDecimalString(upper, params.TickSpacing, baseDecimals, quoteDecimals, flip); err != nil {
			return err
		}
		if desc.CurrentPrice, err = descriptor.FixedPointToDecimalString(current, baseDecimals, quoteDecimals); err != nil {
			return err
		}
		out = append(out, desc)
	}
	return printJSON(cmd, out)
}
