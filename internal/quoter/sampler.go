package quoter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Uniswap/v3-periphery-sub000/internal/fixedpoint"
	"github.com/Uniswap/v3-periphery-sub000/internal/model"
	"github.com/Uniswap/v3-periphery-sub000/internal/oracle"
	"github.com/Uniswap/v3-periphery-sub000/internal/pooladdress"
	"github.com/Uniswap/v3-periphery-sub000/internal/storage"
)

// Pair is one quote to sample: BaseAmount of Base priced in Quote, averaged over the pools of
// the listed fee tiers.
type Pair struct {
	Base          common.Address
	Quote         common.Address
	BaseDecimals  uint8
	QuoteDecimals uint8
	BaseAmount    *uint256.Int
	Fees          []uint32
}

// Config configures a Sampler.
type Config struct {
	ChainID     uint64
	Factory     common.Address
	Period      uint32
	Concurrency int
}

// Dialer returns the oracle of the pool at address.
type Dialer func(pool common.Address) oracle.Observable

// Sampler turns pool oracles into liquidity-weighted quote snapshots.
type Sampler struct {
	cfg    Config
	dial   Dialer
	sink   storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// NewSampler builds a sampler. A nil sink skips persistence.
func NewSampler(cfg Config, dial Dialer, sink storage.Storage, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Sampler{cfg: cfg, dial: dial, sink: sink, logger: logger, now: time.Now}
}

// Sample quotes every pair, persists the snapshots and returns them in pair order.
func (s *Sampler) Sample(ctx context.Context, pairs []Pair) ([]model.QuoteSnapshot, error) {
	if s.dial == nil {
		return nil, errors.New("pool dialer is nil")
	}
	if s.cfg.Period == 0 {
		return nil, oracle.ErrInvalidPeriod
	}

	sampledAt := s.now().UTC()
	out := make([]model.QuoteSnapshot, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			snap, err := s.samplePair(gctx, pair)
			if err != nil {
				return fmt.Errorf("pair %s/%s: %w", pair.Base.Hex(), pair.Quote.Hex(), err)
			}
			snap.SampledAt = sampledAt
			out[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.sink != nil {
		if err := s.sink.PutQuoteSnapshots(ctx, out); err != nil {
			return nil, fmt.Errorf("store snapshots: %w", err)
		}
	}
	s.logger.Info("quotes sampled",
		zap.Int("pairs", len(out)),
		zap.Uint32("period", s.cfg.Period),
		zap.Time("sampled_at", sampledAt),
	)
	return out, nil
}

func (s *Sampler) samplePair(ctx context.Context, pair Pair) (model.QuoteSnapshot, error) {
	if len(pair.Fees) == 0 {
		return model.QuoteSnapshot{}, errors.New("no fee tiers")
	}
	if pair.BaseAmount == nil {
		return model.QuoteSnapshot{}, errors.New("base amount is nil")
	}

	pools := make([]common.Address, len(pair.Fees))
	sources := make([]oracle.Observable, len(pair.Fees))
	for i, fee := range pair.Fees {
		addr, err := pooladdress.ComputeAddress(s.cfg.Factory, pooladdress.GetPoolKey(pair.Base, pair.Quote, fee))
		if err != nil {
			return model.QuoteSnapshot{}, err
		}
		pools[i] = addr
		sources[i] = s.dial(addr)
	}

	observations, err := oracle.ConsultAll(ctx, sources, s.cfg.Period)
	if err != nil {
		return model.QuoteSnapshot{}, err
	}
	meanTick, err := oracle.GetArithmeticMeanTickWeightedByLiquidity(observations)
	if err != nil {
		return model.QuoteSnapshot{}, err
	}
	quoteAmount, err := oracle.GetQuoteAtTick(meanTick, pair.BaseAmount, pair.Base, pair.Quote)
	if err != nil {
		return model.QuoteSnapshot{}, err
	}

	poolObs := make([]model.PoolObservation, len(pools))
	for i, obs := range observations {
		poolObs[i] = model.PoolObservation{
			Pool:                  pools[i].Hex(),
			ArithmeticMeanTick:    obs.ArithmeticMeanTick,
			HarmonicMeanLiquidity: fixedpoint.String(obs.HarmonicMeanLiquidity),
		}
		s.logger.Debug("pool consulted",
			zap.String("pool", pools[i].Hex()),
			zap.Int32("tick", obs.ArithmeticMeanTick),
			zap.String("liquidity", poolObs[i].HarmonicMeanLiquidity),
		)
	}

	return model.QuoteSnapshot{
		ChainID:      s.cfg.ChainID,
		BaseToken:    pair.Base.Hex(),
		QuoteToken:   pair.Quote.Hex(),
		PeriodSecs:   s.cfg.Period,
		MeanTick:     meanTick,
		BaseAmount:   fixedpoint.String(pair.BaseAmount),
		QuoteAmount:  fixedpoint.String(quoteAmount),
		Price:        HumanPrice(pair.BaseAmount, quoteAmount, pair.BaseDecimals, pair.QuoteDecimals),
		Observations: poolObs,
	}, nil
}

// HumanPrice is quoteAmount per unit of baseAmount after scaling both by their token decimals.
// It is empty when baseAmount is zero.
func HumanPrice(baseAmount, quoteAmount *uint256.Int, baseDecimals, quoteDecimals uint8) string {
	if baseAmount == nil || baseAmount.IsZero() || quoteAmount == nil {
		return ""
	}
	base := decimal.NewFromBigInt(baseAmount.ToBig(), -int32(baseDecimals))
	quote := decimal.NewFromBigInt(quoteAmount.ToBig(), -int32(quoteDecimals))
	return quote.Div(base).String()
}
