package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("sample", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.StringSlice("pair", nil, "")
	flags.Uint32("period", 1800, "")
	flags.Duration("interval", 0, "")
	flags.String("out", "./data/quotes.jsonl", "")
	return flags
}

func TestLoadSamplePrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "periphery.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
rpc: http://file:8545
period: 600
concurrency: 2
pair:
  - 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
`), 0o644))

	t.Setenv("PERIPHERY_RPC", "http://env:8545")
	t.Setenv("PERIPHERY_MAX_RETRIES", "7")

	flags := sampleFlags()
	require.NoError(t, flags.Parse([]string{"--interval", "1m"}))

	cfg, err := LoadSample(cfgFile, flags)
	require.NoError(t, err)
	assert.Equal(t, "http://env:8545", cfg.RPCURL, "env overrides the file")
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, uint32(600), cfg.Period, "file overrides an unset flag default")
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, DefaultFactory, cfg.Factory)
	assert.Equal(t, "info", cfg.LogLevel)
	require.Len(t, cfg.Pairs, 1)
}

func TestLoadQuoteDefaults(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("{}\n"), 0o644))
	cfg, err := LoadQuote(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1800), cfg.Period)
	assert.Equal(t, []string{"500", "3000", "10000"}, cfg.Fees)
	assert.Equal(t, "1", cfg.Amount)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
}

func lensFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("lens", pflag.ContinueOnError)
	flags.String("pool", "", "")
	flags.Int16("word", 0, "")
	return flags
}

func TestLoadLensWord(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("{}\n"), 0o644))

	cfg, err := LoadLens(empty, lensFlags())
	require.NoError(t, err)
	assert.Nil(t, cfg.Word, "flag default leaves the word unset")

	withWord := filepath.Join(dir, "lens.yaml")
	require.NoError(t, os.WriteFile(withWord, []byte("word: -3\n"), 0o644))
	cfg, err = LoadLens(withWord, lensFlags())
	require.NoError(t, err)
	require.NotNil(t, cfg.Word)
	assert.Equal(t, int16(-3), *cfg.Word)

	t.Setenv("PERIPHERY_WORD", "7")
	cfg, err = LoadLens(empty, lensFlags())
	require.NoError(t, err)
	require.NotNil(t, cfg.Word)
	assert.Equal(t, int16(7), *cfg.Word)

	flags := lensFlags()
	require.NoError(t, flags.Parse([]string{"--word", "0"}))
	cfg, err = LoadLens(empty, flags)
	require.NoError(t, err)
	require.NotNil(t, cfg.Word)
	assert.Equal(t, int16(0), *cfg.Word, "an explicit flag wins over env")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := LoadPosition(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestParsePair(t *testing.T) {
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	spec, err := ParsePair(weth.Hex() + ":" + usdc.Hex())
	require.NoError(t, err)
	assert.Equal(t, weth, spec.Base)
	assert.Equal(t, usdc, spec.Quote)
	assert.Equal(t, "1", spec.Amount)
	assert.Equal(t, []uint32{500, 3000, 10000}, spec.Fees)

	spec, err = ParsePair(weth.Hex() + ":" + usdc.Hex() + ":2.5:500/3000")
	require.NoError(t, err)
	assert.Equal(t, "2.5", spec.Amount)
	assert.Equal(t, []uint32{500, 3000}, spec.Fees)

	for _, bad := range []string{
		weth.Hex(),
		weth.Hex() + ":nope",
		weth.Hex() + ":" + weth.Hex(),
		weth.Hex() + ":" + usdc.Hex() + ":1:abc",
		weth.Hex() + ":" + usdc.Hex() + ":1:500:extra",
	} {
		_, err := ParsePair(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTokenAmount(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"2.5", 6, "2500000"},
		{"0.000001", 6, "1"},
		{"123", 0, "123"},
	}
	for _, tc := range cases {
		got, err := ParseTokenAmount(tc.in, tc.decimals)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}

	_, err := ParseTokenAmount("0.0000001", 6)
	require.Error(t, err)
	_, err = ParseTokenAmount("-1", 6)
	require.Error(t, err)
	_, err = ParseTokenAmount("abc", 6)
	require.Error(t, err)
}

func TestParseFeesAndAddresses(t *testing.T) {
	fees, err := ParseFees([]string{" 500", "", "3000 "})
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 3000}, fees)
	_, err = ParseFees([]string{"16777216"})
	require.Error(t, err)

	addrs, err := ParseAddresses([]string{"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", " "})
	require.NoError(t, err)
	assert.Len(t, addrs, 1)
	_, err = ParseAddresses([]string{"0x123"})
	require.Error(t, err)
}
