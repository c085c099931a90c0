package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Uniswap/v3-periphery-sub000/internal/chain"
	"github.com/Uniswap/v3-periphery-sub000/internal/config"
	"github.com/Uniswap/v3-periphery-sub000/internal/dex"
)

func main() {
	root := &cobra.Command{
		Use:          "periphery",
		Short:        "Uniswap v3 periphery math: oracle quotes, tick lens, position valuation",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		newQuoteCmd(),
		newTicksCmd(),
		newLensCmd(),
		newPositionCmd(),
		newDescribeCmd(),
		newSampleCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Ethereum JSON-RPC URL")
	flags.Uint64("block", 0, "block to read state at, 0 means latest")
	flags.String("factory", config.DefaultFactory, "v3 factory address")
	flags.Int("max-retries", 5, "maximum retry attempts per RPC call")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func configFile(cmd *cobra.Command) string {
	cfgFile, _ := cmd.Flags().GetString("config")
	return cfgFile
}

// session is the chain access shared by the on-chain commands.
type session struct {
	logger  *zap.Logger
	client  *chain.Client
	factory common.Address
	block   *big.Int
	tokens  *dex.TokenMetaCache
}

func openSession(ctx context.Context, cfg config.Chain) (*session, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	factory, err := config.ParseAddress("factory", cfg.Factory)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	s := &session{
		logger:  logger,
		client:  client,
		factory: factory,
		tokens:  dex.NewTokenMetaCache(),
	}
	if cfg.Block > 0 {
		s.block = new(big.Int).SetUint64(cfg.Block)
	}
	return s, nil
}

func (s *session) Close() {
	s.client.Close()
	_ = s.logger.Sync()
}

// now is the timestamp of the block the session reads at.
func (s *session) now(ctx context.Context) (uint32, error) {
	if s.block != nil {
		ts, err := s.client.BlockTimestamp(ctx, s.block.Uint64())
		return uint32(ts), err
	}
	header, err := s.client.LatestHeader(ctx)
	if err != nil {
		return 0, err
	}
	return uint32(header.Time), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
