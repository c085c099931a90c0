package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Uniswap/v3-periphery-sub000/internal/config"
	"github.com/Uniswap/v3-periphery-sub000/internal/descriptor"
	"github.com/Uniswap/v3-periphery-sub000/internal/dex"
	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/oracle"
	"github.com/Uniswap/v3-periphery-sub000/internal/pooladdress"
	"github.com/Uniswap/v3-periphery-sub000/internal/quoter"
	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Time-weighted quote across fee tiers, or along a route of pools",
		RunE:  runQuote,
	}
	addChainFlags(cmd.Flags())
	cmd.Flags().String("base", "", "token being priced")
	cmd.Flags().String("quote", "", "token the price is denominated in")
	cmd.Flags().String("amount", "1", "base amount in whole tokens")
	cmd.Flags().StringSlice("fees", []string{"500", "3000", "10000"}, "fee tiers to average over")
	cmd.Flags().Uint32("period", 1800, "averaging period in seconds")
	cmd.Flags().StringSlice("route", nil, "token path priced first-in-last, overrides base/quote")
	cmd.Flags().StringSlice("route-fees", nil, "fee tier of each hop of --route")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadQuote(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := openSession(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(cfg.Route) > 0 {
		return quoteRoute(cmd, s, cfg)
	}

	base, err := config.ParseAddress("base", cfg.Base)
	if err != nil {
		return err
	}
	quote, err := config.ParseAddress("quote", cfg.Quote)
	if err != nil {
		return err
	}
	fees, err := config.ParseFees(cfg.Fees)
	if err != nil {
		return err
	}
	pair, err := buildPair(cmd, s, config.PairSpec{Base: base, Quote: quote, Amount: cfg.Amount, Fees: fees})
	if err != nil {
		return err
	}

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	sampler := quoter.NewSampler(quoter.Config{
		ChainID:     chainID,
		Factory:     s.factory,
		Period:      cfg.Period,
		Concurrency: len(fees),
	}, s.dialer(), nil, s.logger)
	snaps, err := sampler.Sample(ctx, []quoter.Pair{pair})
	if err != nil {
		return err
	}
	return printJSON(cmd, snaps[0])
}

func (s *session) dialer() quoter.Dialer {
	return func(pool common.Address) oracle.Observable {
		return dex.NewPoolReader(s.client, pool, s.block)
	}
}

// buildPair resolves token decimals and scales the human amount into raw base units.
func buildPair(cmd *cobra.Command, s *session, spec config.PairSpec) (quoter.Pair, error) {
	ctx := cmd.Context()
	baseMeta, err := s.tokens.Token(ctx, s.client, spec.Base, s.logger)
	if err != nil {
		return quoter.Pair{}, err
	}
	quoteMeta, err := s.tokens.Token(ctx, s.client, spec.Quote, s.logger)
	if err != nil {
		return quoter.Pair{}, err
	}

	raw, err := config.ParseTokenAmount(spec.Amount, baseMeta.Decimals)
	if err != nil {
		return quoter.Pair{}, err
	}
	amount, overflow := uint256.FromBig(raw)
	if overflow {
		return quoter.Pair{}, fmt.Errorf("amount %s overflows uint256", spec.Amount)
	}
	return quoter.Pair{
		Base:          spec.Base,
		Quote:         spec.Quote,
		BaseDecimals:  baseMeta.Decimals,
		QuoteDecimals: quoteMeta.Decimals,
		BaseAmount:    amount,
		Fees:          spec.Fees,
	}, nil
}

type routeQuote struct {
	Route        []string `json:"route"`
	Pools        []string `json:"pools"`
	PeriodSecs   uint32   `json:"period_secs"`
	SqrtPriceX96 string   `json:"sqrt_price_x96"`
	Tick         *int32   `json:"tick,omitempty"`
	Price        string   `json:"price"`
	BaseAmount   string   `json:"base_amount"`
	QuoteAmount  string   `json:"quote_amount"`
}

func quoteRoute(cmd *cobra.Command, s *session, cfg config.QuoteConfig) error {
	ctx := cmd.Context()
	tokens, err := config.ParseAddresses(cfg.Route)
	if err != nil {
		return err
	}
	fees, err := config.ParseFees(cfg.RouteFees)
	if err != nil {
		return err
	}
	if len(tokens) < 2 || len(fees) != len(tokens)-1 {
		return fmt.Errorf("%w: route of %d tokens needs %d fees, got %d", oracle.ErrLengthMismatch, len(tokens), len(tokens)-1, len(fees))
	}

	out := routeQuote{PeriodSecs: cfg.Period}
	sources := make([]oracle.Observable, len(fees))
	for i, fee := range fees {
		pool, err := pooladdress.ComputeAddress(s.factory, pooladdress.GetPoolKey(tokens[i], tokens[i+1], fee))
		if err != nil {
			return fmt.Errorf("hop %d: %w", i, err)
		}
		sources[i] = dex.NewPoolReader(s.client, pool, s.block)
		out.Pools = append(out.Pools, pool.Hex())
	}
	for _, token := range tokens {
		out.Route = append(out.Route, token.Hex())
	}

	sqrtPrice, err := oracle.GetPriceChained(ctx, tokens, sources, cfg.Period)
	if err != nil {
		return err
	}
	out.SqrtPriceX96 = fixedpoint.String(sqrtPrice)
	if tick, err := tickmath.GetTickAtSqrtRatio(sqrtPrice); err == nil {
		out.Tick = &tick
	} else {
		s.logger.Debug("chained price outside tick range", zap.Error(err))
	}

	first, err := s.tokens.Token(ctx, s.client, tokens[0], s.logger)
	if err != nil {
		return err
	}
	last, err := s.tokens.Token(ctx, s.client, tokens[len(tokens)-1], s.logger)
	if err != nil {
		return err
	}
	if out.Price, err = descriptor.FixedPointToDecimalString(sqrtPrice, first.Decimals, last.Decimals); err != nil {
		return err
	}

	raw, err := config.ParseTokenAmount(cfg.Amount, first.Decimals)
	if err != nil {
		return err
	}
	amount, overflow := uint256.FromBig(raw)
	if overflow {
		return fmt.Errorf("amount %s overflows uint256", cfg.Amount)
	}
	quoteAmount, err := fixedpoint.MulDiv(amount, sqrtPrice, fixedpoint.Q96)
	if err == nil {
		quoteAmount, err = fixedpoint.MulDiv(quoteAmount, sqrtPrice, fixedpoint.Q96)
	}
	if err != nil {
		return fmt.Errorf("quote amount: %w", err)
	}
	out.BaseAmount = fixedpoint.String(amount)
	out.QuoteAmount = fixedpoint.String(quoteAmount)
	return printJSON(cmd, out)
}
